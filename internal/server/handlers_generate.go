package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fpang/content-studio/internal/chat"
	"github.com/fpang/content-studio/internal/media"
	"github.com/fpang/content-studio/internal/store"
)

type imageRequest struct {
	Prompt         string `json:"prompt"`
	Style          string `json:"style"`
	NegativePrompt string `json:"negativePrompt"`
	AspectRatio    string `json:"aspectRatio"`
	Size           string `json:"size"`
}

func (req imageRequest) parse() (chat.ImageRequest, error) {
	out := chat.ImageRequest{
		Prompt:         req.Prompt,
		NegativePrompt: req.NegativePrompt,
		AspectRatio:    chat.AspectSquare,
		Size:           chat.Size1K,
	}
	var err error
	if req.Style != "" {
		if out.Style, err = chat.ParseImageStyle(req.Style); err != nil {
			return out, err
		}
	}
	if req.AspectRatio != "" {
		if out.AspectRatio, err = chat.ParseAspectRatio(req.AspectRatio); err != nil {
			return out, err
		}
	}
	if req.Size != "" {
		if out.Size, err = chat.ParseImageSize(req.Size); err != nil {
			return out, err
		}
	}
	return out, nil
}

// publish stores generated media in the sink and returns its reference.
func (s *Server) publish(ctx context.Context, kind, contentType string, data []byte) (string, error) {
	return s.sink.Put(ctx, kind, contentType, data)
}

// POST /api/image
func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	var body imageRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	req, err := body.parse()
	if err != nil {
		respondError(w, err)
		return
	}
	model, ok := s.studio(w, r)
	if !ok {
		return
	}

	img, err := model.GenerateImage(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}
	url, err := s.publish(r.Context(), "image", img.MIMEType, img.Data)
	if err != nil {
		respondError(w, err)
		return
	}
	s.record(r.Context(), store.HistoryItem{
		Type:      store.ItemImage,
		Thumbnail: media.ThumbnailDataURL([]media.Fragment{img.Fragment()}),
		Content:   req.Prompt,
		Metadata:  map[string]any{"url": url, "style": req.Style, "aspectRatio": req.AspectRatio},
	})
	respondJSON(w, http.StatusOK, map[string]string{"url": url})
}

// POST /api/image/edit (multipart: image, prompt)
func (s *Server) handleEditImage(w http.ResponseWriter, r *http.Request) {
	if !s.parseUpload(w, r) {
		return
	}
	defer r.MultipartForm.RemoveAll()

	model, ok := s.studio(w, r)
	if !ok {
		return
	}
	asset, err := s.ingestOne(r.Context(), r, "image", media.KindImage)
	if err != nil {
		respondError(w, err)
		return
	}
	prompt := r.FormValue("prompt")
	img, err := model.EditImage(r.Context(), asset.Fragments[0], prompt)
	if err != nil {
		respondError(w, err)
		return
	}
	url, err := s.publish(r.Context(), "image", img.MIMEType, img.Data)
	if err != nil {
		respondError(w, err)
		return
	}
	s.record(r.Context(), store.HistoryItem{
		Type:      store.ItemImage,
		Thumbnail: media.ThumbnailDataURL([]media.Fragment{img.Fragment()}),
		Content:   prompt,
		Metadata:  map[string]any{"url": url, "mode": "edit"},
	})
	respondJSON(w, http.StatusOK, map[string]string{"url": url})
}

// POST /api/video (multipart: prompt, aspectRatio, resolution, optional image)
func (s *Server) handleVideo(w http.ResponseWriter, r *http.Request) {
	if !s.parseUpload(w, r) {
		return
	}
	defer r.MultipartForm.RemoveAll()

	model, ok := s.studio(w, r)
	if !ok {
		return
	}
	req := chat.VideoRequest{
		Prompt:      r.FormValue("prompt"),
		AspectRatio: r.FormValue("aspectRatio"),
		Resolution:  r.FormValue("resolution"),
	}
	var thumbSource []media.Fragment
	if len(r.MultipartForm.File["image"]) > 0 {
		asset, err := s.ingestOne(r.Context(), r, "image", media.KindImage)
		if err != nil {
			respondError(w, err)
			return
		}
		req.Seed = &chat.Image{Data: asset.Raw, MIMEType: asset.ContentType}
		thumbSource = asset.Fragments
	}

	video, err := model.GenerateVideo(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}
	url, err := s.publish(r.Context(), "video", video.MIMEType, video.Data)
	if err != nil {
		respondError(w, err)
		return
	}
	s.record(r.Context(), store.HistoryItem{
		Type:      store.ItemVideo,
		Thumbnail: media.ThumbnailDataURL(thumbSource),
		Content:   req.Prompt,
		Metadata:  map[string]any{"url": url, "aspectRatio": req.AspectRatio},
	})
	respondJSON(w, http.StatusOK, map[string]string{"url": url})
}

type speechRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice"`
}

// POST /api/speech
func (s *Server) handleSpeech(w http.ResponseWriter, r *http.Request) {
	var body speechRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	model, ok := s.studio(w, r)
	if !ok {
		return
	}

	pcm, err := model.Synthesize(r.Context(), body.Text, body.Voice)
	if err != nil {
		respondError(w, err)
		return
	}
	url, err := s.publish(r.Context(), "speech", "audio/wav", chat.WAV(pcm))
	if err != nil {
		respondError(w, err)
		return
	}
	s.record(r.Context(), store.HistoryItem{
		Type:     store.ItemAudio,
		Content:  body.Text,
		Metadata: map[string]any{"url": url, "voice": body.Voice},
	})
	respondJSON(w, http.StatusOK, map[string]string{"url": url})
}

type toolRequest struct {
	Input    string `json:"input"`
	Language string `json:"language"`
}

// POST /api/tools/{tool}
func (s *Server) handleTool(w http.ResponseWriter, r *http.Request) {
	tool, err := chat.ParseToolType(chi.URLParam(r, "tool"))
	if err != nil {
		respondError(w, err)
		return
	}
	var body toolRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	lang := s.library.Settings().TargetLanguage
	if body.Language != "" {
		if lang, err = chat.ParseLanguage(body.Language); err != nil {
			respondError(w, err)
			return
		}
	}
	model, ok := s.studio(w, r)
	if !ok {
		return
	}

	text, err := model.RunTool(r.Context(), tool, body.Input, lang)
	if err != nil {
		respondError(w, err)
		return
	}
	s.record(r.Context(), store.HistoryItem{
		Type:     store.ItemTool,
		Content:  text,
		Metadata: map[string]any{"tool": tool, "input": body.Input},
	})
	respondJSON(w, http.StatusOK, map[string]string{"text": text})
}

// POST /api/enhance
func (s *Server) handleEnhance(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Prompt string `json:"prompt"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	model, ok := s.studio(w, r)
	if !ok {
		return
	}
	enhanced, err := model.EnhancePrompt(r.Context(), body.Prompt)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"prompt": enhanced})
}

type chatRequest struct {
	Persona     string           `json:"persona"`
	Language    string           `json:"language"`
	History     []chat.Message   `json:"history"`
	Message     string           `json:"message"`
	Attachments []media.Fragment `json:"attachments"`
	Creativity  *float64         `json:"creativity"`
}

// POST /api/chat
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var body chatRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	settings := s.library.Settings()
	req := chat.ConversationRequest{
		Persona:     chat.PersonaAssistant,
		Language:    settings.TargetLanguage,
		History:     body.History,
		Message:     body.Message,
		Attachments: body.Attachments,
		Creativity:  settings.Creativity,
	}
	var err error
	if body.Persona != "" {
		if req.Persona, err = chat.ParsePersona(body.Persona); err != nil {
			respondError(w, err)
			return
		}
	}
	if body.Language != "" {
		if req.Language, err = chat.ParseLanguage(body.Language); err != nil {
			respondError(w, err)
			return
		}
	}
	if body.Creativity != nil {
		req.Creativity = *body.Creativity
	}
	model, ok := s.studio(w, r)
	if !ok {
		return
	}

	reply, err := model.Converse(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}
	s.record(r.Context(), store.HistoryItem{
		Type:     store.ItemChat,
		Content:  reply,
		Metadata: map[string]any{"persona": req.Persona, "message": body.Message},
	})
	respondJSON(w, http.StatusOK, map[string]string{"reply": reply})
}
