package chat

// video.go drives Veo text-to-video and image-to-video generation. The
// generation is a long-running operation: it is started, polled at a fixed
// interval until done, and the result is downloaded.

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/fpang/content-studio/internal/jsonutil"
	"github.com/fpang/content-studio/internal/metrics"
)

// DefaultAnimatePrompt is used when a seed image is given without a prompt.
const DefaultAnimatePrompt = "Animate this"

// VideoRequest describes a Veo generation. Seed, when set, is the first
// frame to animate.
type VideoRequest struct {
	Prompt string
	// AspectRatio is "16:9" or "9:16".
	AspectRatio string
	// Resolution is "720p" or "1080p".
	Resolution string
	Seed       *Image
}

// Video is a finished generation.
type Video struct {
	URI      string
	Data     []byte
	MIMEType string
}

func (r VideoRequest) normalize() (VideoRequest, error) {
	r.Prompt = strings.TrimSpace(r.Prompt)
	if r.Prompt == "" {
		if r.Seed == nil {
			return r, invalidRequest("video prompt is empty")
		}
		r.Prompt = DefaultAnimatePrompt
	}
	if r.Seed != nil && len(r.Seed.Data) == 0 {
		return r, invalidRequest("seed image is empty")
	}
	switch r.AspectRatio {
	case "":
		r.AspectRatio = "16:9"
	case "16:9", "9:16":
	default:
		return r, invalidRequest("video aspect ratio must be 16:9 or 9:16, got %q", r.AspectRatio)
	}
	switch r.Resolution {
	case "":
		r.Resolution = "720p"
	case "720p", "1080p":
	default:
		return r, invalidRequest("video resolution must be 720p or 1080p, got %q", r.Resolution)
	}
	return r, nil
}

// GenerateVideo starts a Veo generation, waits for it and downloads the
// result. The wait is bounded by the client's video timeout and by ctx.
func (c *Client) GenerateVideo(ctx context.Context, req VideoRequest) (*Video, error) {
	const op = "generate_video"

	req, err := req.normalize()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.videoTimeout)
	defer cancel()

	var seed *genai.Image
	if req.Seed != nil {
		mime := req.Seed.MIMEType
		if mime == "" {
			mime = "image/jpeg"
		}
		seed = &genai.Image{ImageBytes: req.Seed.Data, MIMEType: mime}
	}
	cfg := &genai.GenerateVideosConfig{
		NumberOfVideos: 1,
		AspectRatio:    req.AspectRatio,
		Resolution:     req.Resolution,
	}

	log.Info().
		Str("model", c.models.Video).
		Str("prompt", jsonutil.Preview(req.Prompt, 120)).
		Str("aspect_ratio", req.AspectRatio).
		Str("resolution", req.Resolution).
		Bool("seed_image", seed != nil).
		Msg("Starting video generation")

	callStart := time.Now()
	operation, err := c.videos.GenerateVideos(ctx, c.models.Video, req.Prompt, seed, cfg)
	if err != nil {
		metrics.ObserveModelCall(op, metrics.ResultRequestError, time.Since(callStart))
		log.Error().Err(err).Msg("Failed to start video generation")
		return nil, newRequestError(op, err)
	}

	operation, err = c.waitForVideo(ctx, operation)
	if err != nil {
		metrics.ObserveModelCall(op, metrics.ResultRequestError, time.Since(callStart))
		return nil, err
	}

	video, err := c.collectVideo(ctx, operation)
	duration := time.Since(callStart)
	if err != nil {
		var decErr *DecodeError
		result := metrics.ResultRequestError
		if errors.As(err, &decErr) {
			result = metrics.ResultDecodeError
		}
		metrics.ObserveModelCall(op, result, duration)
		return nil, err
	}
	metrics.ObserveModelCall(op, metrics.ResultSuccess, duration)

	log.Info().
		Str("uri", video.URI).
		Int("video_bytes", len(video.Data)).
		Dur("duration", duration).
		Msg("Video generation complete")
	return video, nil
}

// waitForVideo polls operation until it is done. Cancellation of ctx ends
// the wait with a *RequestError wrapping the context error.
func (c *Client) waitForVideo(ctx context.Context, operation *genai.GenerateVideosOperation) (*genai.GenerateVideosOperation, error) {
	const op = "generate_video"
	if operation == nil {
		return nil, &DecodeError{Op: op, Err: errors.New("no operation returned")}
	}

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	polls := 0
	for !operation.Done {
		select {
		case <-ctx.Done():
			log.Warn().Err(ctx.Err()).Int("polls", polls).Str("operation", operation.Name).Msg("Stopped waiting for video")
			return nil, &RequestError{Op: op, Err: ctx.Err()}
		case <-ticker.C:
		}
		polls++
		next, err := c.ops.GetVideosOperation(ctx, operation, nil)
		if err != nil {
			return nil, newRequestError(op, err)
		}
		if next == nil {
			return nil, &DecodeError{Op: op, Err: errors.New("poll returned no operation")}
		}
		operation = next
		log.Debug().Int("polls", polls).Bool("done", operation.Done).Msg("Polled video operation")
	}

	if len(operation.Error) > 0 {
		msg, _ := operation.Error["message"].(string)
		re := &RequestError{Op: op, Err: fmt.Errorf("video operation failed: %s", msg)}
		if code, ok := operation.Error["code"].(float64); ok {
			re.StatusCode = int(code)
		}
		return nil, re
	}
	return operation, nil
}

// collectVideo extracts the first generated video, downloading its bytes
// when the operation only carries a URI.
func (c *Client) collectVideo(ctx context.Context, operation *genai.GenerateVideosOperation) (*Video, error) {
	const op = "generate_video"
	resp := operation.Response
	if resp == nil || len(resp.GeneratedVideos) == 0 || resp.GeneratedVideos[0].Video == nil {
		err := ErrEmptyResponse
		if resp != nil && resp.RAIMediaFilteredCount > 0 {
			err = fmt.Errorf("%w: filtered by safety policy: %s", ErrEmptyResponse, strings.Join(resp.RAIMediaFilteredReasons, "; "))
		}
		return nil, &DecodeError{Op: op, Err: err}
	}

	gv := resp.GeneratedVideos[0].Video
	out := &Video{URI: gv.URI, Data: gv.VideoBytes, MIMEType: gv.MIMEType}
	if out.MIMEType == "" {
		out.MIMEType = "video/mp4"
	}
	if len(out.Data) == 0 {
		if gv.URI == "" {
			return nil, &DecodeError{Op: op, Err: errors.New("generated video has neither bytes nor URI")}
		}
		data, err := c.files.Download(ctx, genai.NewDownloadURIFromVideo(gv), nil)
		if err != nil {
			return nil, newRequestError(op, fmt.Errorf("download video: %w", err))
		}
		if len(data) == 0 {
			return nil, &DecodeError{Op: op, Err: ErrEmptyResponse}
		}
		out.Data = data
	}
	return out, nil
}
