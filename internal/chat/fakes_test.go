package chat

import (
	"context"
	"sync"
	"testing"
	"time"

	"google.golang.org/genai"
)

type generateCall struct {
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
}

// fakeGenerator returns resp/err and records every call.
type fakeGenerator struct {
	mu    sync.Mutex
	resp  *genai.GenerateContentResponse
	err   error
	calls []generateCall
}

func (f *fakeGenerator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, generateCall{model: model, contents: contents, config: config})
	return f.resp, f.err
}

func (f *fakeGenerator) lastCall(t *testing.T) generateCall {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		t.Fatal("GenerateContent was not called")
	}
	return f.calls[len(f.calls)-1]
}

type fakeVideos struct {
	op     *genai.GenerateVideosOperation
	err    error
	prompt string
	image  *genai.Image
	config *genai.GenerateVideosConfig
}

func (f *fakeVideos) GenerateVideos(ctx context.Context, model string, prompt string, image *genai.Image, config *genai.GenerateVideosConfig) (*genai.GenerateVideosOperation, error) {
	f.prompt, f.image, f.config = prompt, image, config
	return f.op, f.err
}

// fakePoller reports done after doneAfter polls; doneAfter < 0 never finishes.
type fakePoller struct {
	doneAfter int
	result    *genai.GenerateVideosOperation
	polls     int
}

func (f *fakePoller) GetVideosOperation(ctx context.Context, op *genai.GenerateVideosOperation, config *genai.GetOperationConfig) (*genai.GenerateVideosOperation, error) {
	f.polls++
	if f.doneAfter >= 0 && f.polls >= f.doneAfter {
		return f.result, nil
	}
	return &genai.GenerateVideosOperation{Name: op.Name}, nil
}

type fakeFiles struct {
	data  []byte
	err   error
	calls int
}

func (f *fakeFiles) Download(ctx context.Context, uri genai.DownloadURI, config *genai.DownloadFileConfig) ([]byte, error) {
	f.calls++
	return f.data, f.err
}

func newTestClient(t *testing.T, gen ContentGenerator) *Client {
	t.Helper()
	c, err := newClient(gen, &fakeVideos{}, &fakePoller{}, &fakeFiles{}, Options{PollInterval: time.Millisecond})
	if err != nil {
		t.Fatalf("newClient() error = %v", err)
	}
	return c
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: genai.RoleModel, Parts: []*genai.Part{{Text: text}}},
		}},
	}
}

func blobResponse(mime string, data []byte) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: genai.RoleModel, Parts: []*genai.Part{
				{Text: "here you go"},
				{InlineData: &genai.Blob{MIMEType: mime, Data: data}},
			}},
		}},
	}
}
