package artifacts

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

func TestInline(t *testing.T) {
	ref, err := Inline{}.Put(context.Background(), "storyboard", "image/png", []byte("hi"))
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if ref != "data:image/png;base64,aGk=" {
		t.Errorf("ref = %q", ref)
	}
	if _, err := (Inline{}).Put(context.Background(), "image", "image/png", nil); err == nil {
		t.Error("empty payload accepted")
	}
}

func TestDir(t *testing.T) {
	root := t.TempDir()
	tests := []struct {
		name    string
		baseURL string
		prefix  string
	}{
		{"file urls", "", "file://"},
		{"served", "http://localhost:8080/artifacts", "http://localhost:8080/artifacts/thumbnail/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := NewDir(root, tt.baseURL)
			if err != nil {
				t.Fatal(err)
			}
			ref, err := d.Put(context.Background(), "thumbnail", "image/jpeg", []byte("jpeg"))
			if err != nil {
				t.Fatalf("Put() error = %v", err)
			}
			if !strings.HasPrefix(ref, tt.prefix) || !strings.HasSuffix(ref, ".jpg") {
				t.Errorf("ref = %q", ref)
			}
		})
	}

	d, _ := NewDir(root, "")
	ref, err := d.Put(context.Background(), "speech", "audio/wav", []byte("RIFF"))
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(strings.TrimPrefix(ref, "file://"))
	if err != nil || string(data) != "RIFF" {
		t.Errorf("stored file = %q, %v", data, err)
	}
	if _, err := d.Put(context.Background(), "../escape", "image/png", []byte("x")); err == nil {
		t.Error("path-like kind accepted")
	}
}

type fakeS3 struct {
	key         string
	contentType string
	body        []byte
	putErr      error
	expires     time.Duration
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	f.key, f.contentType = *in.Key, *in.ContentType
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) PresignGetObject(_ context.Context, in *s3.GetObjectInput, opts ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	var po s3.PresignOptions
	for _, opt := range opts {
		opt(&po)
	}
	f.expires = po.Expires
	return &v4.PresignedHTTPRequest{URL: "https://" + *in.Bucket + ".s3/" + *in.Key + "?sig"}, nil
}

func TestS3(t *testing.T) {
	fake := &fakeS3{}
	sink, err := NewS3(fake, fake, "media", "artifacts/", 15*time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	ref, err := sink.Put(context.Background(), "video", "video/mp4", []byte("mp4"))
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if !strings.HasPrefix(fake.key, "artifacts/video/") || !strings.HasSuffix(fake.key, ".mp4") {
		t.Errorf("key = %q", fake.key)
	}
	if fake.contentType != "video/mp4" || string(fake.body) != "mp4" {
		t.Errorf("upload = %q %q", fake.contentType, fake.body)
	}
	if ref != "https://media.s3/"+fake.key+"?sig" || fake.expires != 15*time.Minute {
		t.Errorf("ref = %q, expires = %v", ref, fake.expires)
	}

	fake.putErr = errors.New("denied")
	if _, err := sink.Put(context.Background(), "video", "video/mp4", []byte("x")); !errors.Is(err, fake.putErr) {
		t.Errorf("error = %v, want wrapped put error", err)
	}
	if _, err := NewS3(fake, fake, "", "", 0); err == nil {
		t.Error("missing bucket accepted")
	}
}
