// Package store persists the user's library: generation history, settings,
// saved prompts and the last director project.
//
// Persistence is split in two layers. A BlobStore keeps opaque JSON
// documents under a handful of fixed keys; it has file, DynamoDB and Redis
// implementations. Library sits on top, owns the decoded values and
// writes a document back whenever it changes.
package store

import (
	"context"
	"errors"
)

// Document keys.
const (
	KeyHistory  = "history"
	KeySettings = "settings"
	KeyPrompts  = "prompts"
	KeyDirector = "director"
)

// ErrNotFound is returned when a library item does not exist.
var ErrNotFound = errors.New("store: item not found")

// ErrInvalid is wrapped when a library change is rejected before saving.
var ErrInvalid = errors.New("store: invalid value")

// BlobStore keeps whole documents by key. Implementations are safe for
// concurrent use.
//
// Load returns (nil, nil) when the key has never been saved. Save replaces
// the document. Deleting a missing key is not an error.
type BlobStore interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}
