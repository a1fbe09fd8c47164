package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/redis/go-redis/v9"

	"github.com/fpang/content-studio/internal/chat"
	"github.com/fpang/content-studio/internal/director"
	"github.com/fpang/content-studio/internal/media"
)

// memStore is an in-memory BlobStore that can be told to fail writes.
type memStore struct {
	mu      sync.Mutex
	docs    map[string][]byte
	saveErr error
}

func newMemStore() *memStore { return &memStore{docs: make(map[string][]byte)} }

func (m *memStore) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.docs[key], nil
}

func (m *memStore) Save(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.docs[key] = append([]byte(nil), data...)
	return nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, key)
	return nil
}

// fakeDynamo keeps items in a map keyed by PK|SK.
type fakeDynamo struct {
	items map[string]map[string]types.AttributeValue
	err   error
}

func itemKey(k map[string]types.AttributeValue) string {
	pk := k["PK"].(*types.AttributeValueMemberS).Value
	sk := k["SK"].(*types.AttributeValueMemberS).Value
	return pk + "|" + sk
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &dynamodb.GetItemOutput{Item: f.items[itemKey(in.Key)]}, nil
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.items[itemKey(in.Item)] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	delete(f.items, itemKey(in.Key))
	return &dynamodb.DeleteItemOutput{}, nil
}

// fakeRedis answers with prebuilt command results.
type fakeRedis struct {
	values map[string]string
	err    error
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	v, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	if f.err != nil {
		return redis.NewStatusResult("", f.err)
	}
	f.values[key] = string(value.([]byte))
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	for _, k := range keys {
		delete(f.values, k)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func TestBlobStores(t *testing.T) {
	fileStore, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	dyn := &fakeDynamo{items: make(map[string]map[string]types.AttributeValue)}
	rds := &fakeRedis{values: make(map[string]string)}

	stores := map[string]BlobStore{
		"file":   fileStore,
		"dynamo": NewDynamoStore(dyn, "studio", "alice"),
		"redis":  NewRedisStore(rds, "alice"),
	}
	for name, s := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if data, err := s.Load(ctx, KeyHistory); err != nil || data != nil {
				t.Fatalf("Load(missing) = %q, %v; want nil, nil", data, err)
			}
			if err := s.Save(ctx, KeyHistory, []byte(`[1]`)); err != nil {
				t.Fatalf("Save() error = %v", err)
			}
			if err := s.Save(ctx, KeyHistory, []byte(`[1,2]`)); err != nil {
				t.Fatalf("Save() error = %v", err)
			}
			data, err := s.Load(ctx, KeyHistory)
			if err != nil || string(data) != `[1,2]` {
				t.Fatalf("Load() = %q, %v", data, err)
			}
			if err := s.Delete(ctx, KeyHistory); err != nil {
				t.Fatalf("Delete() error = %v", err)
			}
			if err := s.Delete(ctx, KeyHistory); err != nil {
				t.Fatalf("second Delete() error = %v", err)
			}
			if data, _ := s.Load(ctx, KeyHistory); data != nil {
				t.Errorf("Load() after Delete = %q", data)
			}
		})
	}

	if _, ok := dyn.items["PROFILE#alice|DOC#history"]; ok {
		t.Error("dynamo item survived delete")
	}
}

func TestBlobStoreErrors(t *testing.T) {
	boom := errors.New("boom")
	stores := map[string]BlobStore{
		"dynamo": NewDynamoStore(&fakeDynamo{err: boom}, "studio", ""),
		"redis":  NewRedisStore(&fakeRedis{err: boom}, ""),
	}
	for name, s := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if _, err := s.Load(ctx, KeySettings); !errors.Is(err, boom) {
				t.Errorf("Load() error = %v", err)
			}
			if err := s.Save(ctx, KeySettings, []byte("{}")); !errors.Is(err, boom) {
				t.Errorf("Save() error = %v", err)
			}
		})
	}
}

func TestFileStoreRejectsPathKeys(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"", "../etc", "a/b", ".hidden"} {
		if err := s.Save(context.Background(), key, []byte("x")); err == nil {
			t.Errorf("Save(%q) accepted a path-like key", key)
		}
	}
}

func newTestLibrary(t *testing.T, blobs BlobStore) *Library {
	t.Helper()
	l, err := OpenLibrary(context.Background(), blobs)
	if err != nil {
		t.Fatalf("OpenLibrary() error = %v", err)
	}
	var n int
	l.newID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	clock := time.Unix(1700000000, 0)
	l.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return l
}

func TestHistory(t *testing.T) {
	ctx := context.Background()
	blobs := newMemStore()
	l := newTestLibrary(t, blobs)

	for i := range MaxHistory + 5 {
		if _, err := l.AddHistory(ctx, HistoryItem{Type: ItemCaption, Content: fmt.Sprint(i)}); err != nil {
			t.Fatalf("AddHistory() error = %v", err)
		}
	}
	items := l.History("", false)
	if len(items) != MaxHistory {
		t.Fatalf("len = %d, want %d", len(items), MaxHistory)
	}
	if items[0].Content != fmt.Sprint(MaxHistory+4) || items[0].ID != "id-105" {
		t.Errorf("newest item = %+v", items[0])
	}

	fav, err := l.ToggleFavorite(ctx, items[3].ID)
	if err != nil || !fav {
		t.Fatalf("ToggleFavorite() = %v, %v", fav, err)
	}
	if got := l.History("", true); len(got) != 1 || got[0].ID != items[3].ID {
		t.Errorf("favorites = %+v", got)
	}
	if _, err := l.ToggleFavorite(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ToggleFavorite(missing) error = %v", err)
	}

	if err := l.DeleteHistory(ctx, items[0].ID); err != nil {
		t.Fatalf("DeleteHistory() error = %v", err)
	}
	removed, err := l.ClearHistory(ctx)
	if err != nil || removed != MaxHistory-2 {
		t.Errorf("ClearHistory() = %d, %v; want %d", removed, err, MaxHistory-2)
	}

	// A fresh library sees what was saved.
	reopened := newTestLibrary(t, blobs)
	if got := reopened.History("", false); len(got) != 1 || !got[0].Favorite {
		t.Errorf("reopened history = %+v", got)
	}
}

func TestHistoryFailedSaveLeavesState(t *testing.T) {
	blobs := newMemStore()
	l := newTestLibrary(t, blobs)
	blobs.saveErr = errors.New("disk full")
	if _, err := l.AddHistory(context.Background(), HistoryItem{Type: ItemImage}); err == nil {
		t.Fatal("AddHistory() succeeded with a failing store")
	}
	if len(l.History("", false)) != 0 {
		t.Error("item kept after failed save")
	}
}

func TestSettings(t *testing.T) {
	ctx := context.Background()
	blobs := newMemStore()
	l := newTestLibrary(t, blobs)

	if l.Settings() != DefaultSettings() {
		t.Errorf("initial settings = %+v", l.Settings())
	}

	tests := []struct {
		name   string
		mutate func(*UserSettings)
		ok     bool
	}{
		{"dark theme", func(s *UserSettings) { s.Theme = "slate"; s.Creativity = 1.8 }, true},
		{"unknown theme", func(s *UserSettings) { s.Theme = "neon" }, false},
		{"creativity high", func(s *UserSettings) { s.Creativity = 2.1 }, false},
		{"tts slow", func(s *UserSettings) { s.TTSSpeed = 0.1 }, false},
		{"safety unknown", func(s *UserSettings) { s.SafetyFilter = "block_all" }, false},
		{"language unknown", func(s *UserSettings) { s.TargetLanguage = "Klingon" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.mutate(&s)
			err := l.UpdateSettings(ctx, s)
			if (err == nil) != tt.ok {
				t.Fatalf("UpdateSettings() error = %v, want ok=%v", err, tt.ok)
			}
		})
	}

	if got := newTestLibrary(t, blobs).Settings(); got.Theme != "slate" || got.Creativity != 1.8 {
		t.Errorf("reopened settings = %+v", got)
	}
}

func TestCorruptDocumentsStartEmpty(t *testing.T) {
	blobs := newMemStore()
	blobs.docs[KeyHistory] = []byte("{not json")
	blobs.docs[KeySettings] = []byte(`{"theme":"neon"}`)
	l := newTestLibrary(t, blobs)
	if len(l.History("", false)) != 0 {
		t.Error("corrupt history was not reset")
	}
	if l.Settings() != DefaultSettings() {
		t.Error("invalid settings were not reset")
	}
}

func TestMistypedDocumentsDiscardedWhole(t *testing.T) {
	blobs := newMemStore()
	blobs.docs[KeyHistory] = []byte(`[{"id":"a","type":"image","content":"kept?"},{"id":5}]`)
	blobs.docs[KeyPrompts] = []byte(`[{"id":"p1","text":"hello"},{"timestamp":"yesterday"}]`)
	blobs.docs[KeySettings] = []byte(`{"theme":"slate","creativity":"high"}`)
	l := newTestLibrary(t, blobs)
	if got := l.History("", false); len(got) != 0 {
		t.Errorf("History() = %+v, want empty", got)
	}
	if got := l.Prompts(""); len(got) != 0 {
		t.Errorf("Prompts() = %+v, want empty", got)
	}
	if got := l.Settings(); got != DefaultSettings() {
		t.Errorf("Settings() = %+v, want defaults", got)
	}
}

func TestPrompts(t *testing.T) {
	ctx := context.Background()
	l := newTestLibrary(t, newMemStore())

	p, err := l.SavePrompt(ctx, "یک گربه در فضا با لباس فضانوردی طلایی", "image")
	if err != nil {
		t.Fatalf("SavePrompt() error = %v", err)
	}
	if p.Title != "یک گربه در فضا با لب..." {
		t.Errorf("Title = %q", p.Title)
	}
	if short, _ := l.SavePrompt(ctx, "hello", "text"); short.Title != "hello..." {
		t.Errorf("short Title = %q", short.Title)
	}
	if _, err := l.SavePrompt(ctx, "x", "poem"); err == nil {
		t.Error("unknown category accepted")
	}
	if _, err := l.SavePrompt(ctx, "  ", "text"); err == nil {
		t.Error("blank prompt accepted")
	}

	if got := l.Prompts(""); len(got) != 2 || got[0].Text != "hello" {
		t.Errorf("Prompts() = %+v", got)
	}
	if got := l.Prompts("image"); len(got) != 1 {
		t.Errorf("Prompts(image) = %+v", got)
	}
	if err := l.DeletePrompt(ctx, p.ID); err != nil {
		t.Fatalf("DeletePrompt() error = %v", err)
	}
	if err := l.DeletePrompt(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeletePrompt() error = %v", err)
	}
}

func TestDirectorProject(t *testing.T) {
	ctx := context.Background()
	l := newTestLibrary(t, newMemStore())

	if _, ok, err := l.LoadProject(ctx); ok || err != nil {
		t.Fatalf("LoadProject() on empty store = %v, %v", ok, err)
	}
	want := director.Project{
		Frames:   []media.Fragment{{ContentType: "image/jpeg", Data: []byte{1, 2}, Offset: 4.5}},
		Goal:     "trailer",
		Analysis: &chat.VideoAnalysis{Summary: "s", Storyboard: []*chat.StoryboardFrame{{ID: "1", RenderPrompt: "p"}}},
	}
	if err := l.SaveProject(ctx, want); err != nil {
		t.Fatalf("SaveProject() error = %v", err)
	}
	got, ok, err := l.LoadProject(ctx)
	if err != nil || !ok {
		t.Fatalf("LoadProject() = %v, %v", ok, err)
	}
	if got.Goal != "trailer" || got.Frames[0].Offset != 4.5 || got.Analysis.Storyboard[0].RenderPrompt != "p" {
		t.Errorf("project = %+v", got)
	}
	if err := l.DeleteProject(ctx); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := l.LoadProject(ctx); ok {
		t.Error("project survived DeleteProject")
	}
}
