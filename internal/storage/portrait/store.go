// Package portrait stores uploaded character portraits on local disk or in
// an S3-compatible bucket.
package portrait

import (
	"context"
	"io"
)

// Store persists portrait images under already-sanitized names
type Store interface {
	// Save writes the image, replacing any existing file with the same name
	Save(ctx context.Context, name string, r io.Reader) error
	// Delete removes a portrait; a missing one is not an error
	Delete(ctx context.Context, name string) error
	// URL returns the public address of a stored portrait
	URL(name string) string
}
