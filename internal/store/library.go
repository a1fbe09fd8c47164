package store

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fpang/content-studio/internal/director"
)

// MaxHistory is how many history items are kept; older ones fall off.
const MaxHistory = 100

const promptTitleRunes = 20

// History item types.
const (
	ItemCaption = "caption"
	ItemImage   = "image"
	ItemVideo   = "video"
	ItemTool    = "tool"
	ItemChat    = "chat"
	ItemAudio   = "audio"
)

// Prompt categories.
var PromptCategories = []string{"image", "text", "video", "audio"}

// HistoryItem is one past generation.
type HistoryItem struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Thumbnail string         `json:"thumbnail,omitempty"`
	Content   string         `json:"content"`
	Timestamp int64          `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Favorite  bool           `json:"isFavorite,omitempty"`
}

// SavedPrompt is a prompt the user bookmarked for reuse.
type SavedPrompt struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Text      string `json:"text"`
	Category  string `json:"category"`
	Timestamp int64  `json:"timestamp"`
}

// Library owns the user's history, settings and saved prompts. Every
// change is written back to the BlobStore before the call returns; if the
// write fails the in-memory value is left unchanged.
type Library struct {
	blobs BlobStore
	now   func() time.Time
	newID func() string

	mu       sync.Mutex
	history  []HistoryItem
	settings UserSettings
	prompts  []SavedPrompt
}

// OpenLibrary loads every document from blobs. Missing documents start
// empty (settings start at DefaultSettings). A document that no longer
// decodes is logged and replaced by its empty value.
func OpenLibrary(ctx context.Context, blobs BlobStore) (*Library, error) {
	l := &Library{
		blobs:    blobs,
		now:      time.Now,
		newID:    uuid.NewString,
		settings: DefaultSettings(),
	}
	var err error
	if l.history, err = loadDocument[[]HistoryItem](ctx, blobs, KeyHistory, nil); err != nil {
		return nil, err
	}
	if l.prompts, err = loadDocument[[]SavedPrompt](ctx, blobs, KeyPrompts, nil); err != nil {
		return nil, err
	}
	settings, err := loadDocument(ctx, blobs, KeySettings, DefaultSettings())
	if err != nil {
		return nil, err
	}
	if err := settings.Validate(); err != nil {
		log.Warn().Err(err).Msg("Stored settings invalid, using defaults")
		settings = DefaultSettings()
	}
	l.settings = settings
	if len(l.history) > MaxHistory {
		l.history = l.history[:MaxHistory]
	}

	log.Debug().
		Int("history", len(l.history)).
		Int("prompts", len(l.prompts)).
		Msg("Library loaded")
	return l, nil
}

// loadDocument decodes the document at key over a copy of empty. A
// document that does not decode yields empty, never a partial value.
func loadDocument[T any](ctx context.Context, blobs BlobStore, key string, empty T) (T, error) {
	data, err := blobs.Load(ctx, key)
	if err != nil {
		return empty, fmt.Errorf("load %s: %w", key, err)
	}
	if data == nil {
		return empty, nil
	}
	doc := empty
	if err := json.Unmarshal(data, &doc); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Stored document unreadable, starting empty")
		return empty, nil
	}
	return doc, nil
}

func (l *Library) save(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := l.blobs.Save(ctx, key, data); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// --- History ---

// AddHistory records a new item at the front of the history and returns
// it with its ID and timestamp filled in.
func (l *Library) AddHistory(ctx context.Context, item HistoryItem) (HistoryItem, error) {
	if strings.TrimSpace(item.Type) == "" {
		return HistoryItem{}, fmt.Errorf("%w: history item needs a type", ErrInvalid)
	}
	item.ID = l.newID()
	item.Timestamp = l.now().UnixMilli()

	l.mu.Lock()
	defer l.mu.Unlock()
	next := make([]HistoryItem, 0, min(len(l.history)+1, MaxHistory))
	next = append(next, item)
	next = append(next, l.history[:min(len(l.history), MaxHistory-1)]...)
	if err := l.save(ctx, KeyHistory, next); err != nil {
		return HistoryItem{}, err
	}
	l.history = next
	return item, nil
}

// History returns the items newest first, optionally restricted to one
// type and to favorites.
func (l *Library) History(itemType string, favoritesOnly bool) []HistoryItem {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]HistoryItem, 0, len(l.history))
	for _, h := range l.history {
		if itemType != "" && h.Type != itemType {
			continue
		}
		if favoritesOnly && !h.Favorite {
			continue
		}
		out = append(out, h)
	}
	return out
}

// ToggleFavorite flips the favorite flag of item id and reports the new
// value.
func (l *Library) ToggleFavorite(ctx context.Context, id string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := slices.IndexFunc(l.history, func(h HistoryItem) bool { return h.ID == id })
	if i < 0 {
		return false, ErrNotFound
	}
	next := slices.Clone(l.history)
	next[i].Favorite = !next[i].Favorite
	if err := l.save(ctx, KeyHistory, next); err != nil {
		return false, err
	}
	l.history = next
	return next[i].Favorite, nil
}

// DeleteHistory removes item id.
func (l *Library) DeleteHistory(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	next := slices.DeleteFunc(slices.Clone(l.history), func(h HistoryItem) bool { return h.ID == id })
	if len(next) == len(l.history) {
		return ErrNotFound
	}
	if err := l.save(ctx, KeyHistory, next); err != nil {
		return err
	}
	l.history = next
	return nil
}

// ClearHistory removes every item that is not a favorite and returns how
// many were removed.
func (l *Library) ClearHistory(ctx context.Context) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	next := slices.DeleteFunc(slices.Clone(l.history), func(h HistoryItem) bool { return !h.Favorite })
	removed := len(l.history) - len(next)
	if removed == 0 {
		return 0, nil
	}
	if err := l.save(ctx, KeyHistory, next); err != nil {
		return 0, err
	}
	l.history = next
	return removed, nil
}

// --- Settings ---

func (l *Library) Settings() UserSettings {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.settings
}

// UpdateSettings validates and stores s.
func (l *Library) UpdateSettings(ctx context.Context, s UserSettings) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.save(ctx, KeySettings, s); err != nil {
		return err
	}
	l.settings = s
	return nil
}

// --- Prompts ---

// SavePrompt bookmarks text under category. The title is the first 20
// characters followed by "...".
func (l *Library) SavePrompt(ctx context.Context, text, category string) (SavedPrompt, error) {
	if strings.TrimSpace(text) == "" {
		return SavedPrompt{}, fmt.Errorf("%w: prompt text is empty", ErrInvalid)
	}
	if !slices.Contains(PromptCategories, category) {
		return SavedPrompt{}, fmt.Errorf("%w: unknown prompt category %q", ErrInvalid, category)
	}
	p := SavedPrompt{
		ID:        l.newID(),
		Title:     promptTitle(text),
		Text:      text,
		Category:  category,
		Timestamp: l.now().UnixMilli(),
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	next := append([]SavedPrompt{p}, l.prompts...)
	if err := l.save(ctx, KeyPrompts, next); err != nil {
		return SavedPrompt{}, err
	}
	l.prompts = next
	return p, nil
}

func promptTitle(text string) string {
	if utf8.RuneCountInString(text) <= promptTitleRunes {
		return text + "..."
	}
	return string([]rune(text)[:promptTitleRunes]) + "..."
}

// Prompts returns the saved prompts newest first, optionally for one
// category.
func (l *Library) Prompts(category string) []SavedPrompt {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]SavedPrompt, 0, len(l.prompts))
	for _, p := range l.prompts {
		if category == "" || p.Category == category {
			out = append(out, p)
		}
	}
	return out
}

func (l *Library) DeletePrompt(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	next := slices.DeleteFunc(slices.Clone(l.prompts), func(p SavedPrompt) bool { return p.ID == id })
	if len(next) == len(l.prompts) {
		return ErrNotFound
	}
	if err := l.save(ctx, KeyPrompts, next); err != nil {
		return err
	}
	l.prompts = next
	return nil
}

// --- Director ---

// SaveProject stores a director snapshot, replacing any earlier one.
func (l *Library) SaveProject(ctx context.Context, p director.Project) error {
	return l.save(ctx, KeyDirector, p)
}

// LoadProject returns the stored director snapshot. ok is false when none
// was saved.
func (l *Library) LoadProject(ctx context.Context) (p director.Project, ok bool, err error) {
	data, err := l.blobs.Load(ctx, KeyDirector)
	if err != nil {
		return director.Project{}, false, fmt.Errorf("load %s: %w", KeyDirector, err)
	}
	if data == nil {
		return director.Project{}, false, nil
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return director.Project{}, false, fmt.Errorf("decode %s: %w", KeyDirector, err)
	}
	return p, true, nil
}

// DeleteProject forgets the stored director snapshot.
func (l *Library) DeleteProject(ctx context.Context) error {
	return l.blobs.Delete(ctx, KeyDirector)
}
