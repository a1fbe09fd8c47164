package server

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/fpang/content-studio/internal/chat"
	"github.com/fpang/content-studio/internal/media"
	"github.com/fpang/content-studio/internal/store"
)

const (
	// multipartMemory is how much of a form is buffered before spilling to
	// temp files.
	multipartMemory = 32 << 20
	// multipartSlack covers form fields and boundaries on top of the media.
	multipartSlack = 1 << 20
)

// parseUpload parses a multipart body bounded by the upload limit. The
// caller must RemoveAll the form when done.
func (s *Server) parseUpload(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload+multipartSlack)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpError(w, http.StatusRequestEntityTooLarge, "upload too large", err.Error())
			return false
		}
		httpError(w, http.StatusBadRequest, "expected a multipart form", err.Error())
		return false
	}
	return true
}

// ingestField ingests every file sent under field.
func (s *Server) ingestField(ctx context.Context, r *http.Request, field string) ([]*media.Asset, error) {
	var files []*multipart.FileHeader
	if r.MultipartForm != nil {
		files = r.MultipartForm.File[field]
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: missing %q upload", chat.ErrInvalidRequest, field)
	}
	assets := make([]*media.Asset, 0, len(files))
	for _, fh := range files {
		asset, err := s.ingestFile(ctx, fh)
		if err != nil {
			return nil, err
		}
		assets = append(assets, asset)
	}
	return assets, nil
}

// ingestOne ingests the single file under field and checks its kind.
func (s *Server) ingestOne(ctx context.Context, r *http.Request, field string, want media.Kind) (*media.Asset, error) {
	assets, err := s.ingestField(ctx, r, field)
	if err != nil {
		return nil, err
	}
	asset := assets[0]
	if asset.Kind != want {
		return nil, &media.UnsupportedKindError{ContentType: asset.ContentType}
	}
	return asset, nil
}

func (s *Server) ingestFile(ctx context.Context, fh *multipart.FileHeader) (*media.Asset, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, &media.ReadError{Name: fh.Filename, Err: err}
	}
	defer f.Close()

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		if guess, ok := media.ContentTypeForPath(fh.Filename); ok {
			contentType = guess
		}
	}
	return s.ingestor.Ingest(ctx, fh.Filename, contentType, f)
}

func fragmentsOf(assets []*media.Asset) []media.Fragment {
	var out []media.Fragment
	for _, a := range assets {
		out = append(out, a.Fragments...)
	}
	return out
}

// record adds a history item. History is a convenience, so a failed write
// is logged and the request still succeeds.
func (s *Server) record(ctx context.Context, item store.HistoryItem) {
	if _, err := s.library.AddHistory(ctx, item); err != nil {
		log.Warn().Err(err).Str("type", item.Type).Msg("Failed to record history")
	}
}
