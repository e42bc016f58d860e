package evidence

import (
	"context"
	"fmt"
	"sync"
)

// MemoryUploader keeps uploads in a map. Used by tests and local development.
type MemoryUploader struct {
	mu      sync.RWMutex
	objects map[string][]byte

	// FailWith, when set, makes every Upload fail. Lets tests exercise the
	// degraded path.
	FailWith error
}

func NewMemoryUploader() *MemoryUploader {
	return &MemoryUploader{objects: make(map[string][]byte)}
}

func (u *MemoryUploader) Upload(_ context.Context, key, _ string, data []byte) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.FailWith != nil {
		return "", u.FailWith
	}

	stored := make([]byte, len(data))
	copy(stored, data)
	u.objects[key] = stored
	return fmt.Sprintf("memory://fichadas/%s", key), nil
}

// Object returns a stored object for test assertions.
func (u *MemoryUploader) Object(key string) ([]byte, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	data, ok := u.objects[key]
	return data, ok
}

// Len reports how many objects were stored.
func (u *MemoryUploader) Len() int {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return len(u.objects)
}
