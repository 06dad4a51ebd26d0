package storage

import (
	"context"
	"io"
)

// FileStore persists uploaded media keyed by a caller-chosen name. Save uses
// full-overwrite semantics and Remove is idempotent: removing an absent file
// is not an error.
type FileStore interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
	Remove(ctx context.Context, name string) error
}
