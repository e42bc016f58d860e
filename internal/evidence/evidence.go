// Package evidence stores captured photos (clock selfies, audit photos) in an
// object bucket and hands back public URLs for the log records.
package evidence

import (
	"context"
	"fmt"
	"time"
)

// Uploader persists one photo and returns its public URL. Implementations
// must be safe for concurrent use; callers treat failures as degraded (the
// flow falls back to embedding the image inline) rather than fatal.
type Uploader interface {
	Upload(ctx context.Context, key string, mimeType string, data []byte) (string, error)
}

// ObjectKey builds the canonical key for a capture: the owning identifier
// plus the capture timestamp in milliseconds.
func ObjectKey(identifier string, at time.Time) string {
	return fmt.Sprintf("%s_%d.jpg", identifier, at.UnixMilli())
}
