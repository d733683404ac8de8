package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/yungbote/levelsnap-backend/internal/scene"
)

// Entry is a cached scene with the provenance it was first served with.
type Entry struct {
	Provenance string          `json:"provenance"`
	Scene      json.RawMessage `json:"scene"`
}

// SceneCache stores model-produced scenes keyed by image. Get reports a miss
// with (nil, nil).
type SceneCache interface {
	Get(ctx context.Context, key string) (*scene.Scene, string, error)
	Set(ctx context.Context, key string, s *scene.Scene, provenance string) error
	Close() error
}

// Key identifies a request: same model, same bytes, same declared size.
func Key(model string, image []byte, mimeType string, width, height int) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%d\x00%d\x00", model, mimeType, width, height)
	h.Write(image)
	return hex.EncodeToString(h.Sum(nil))
}

func encodeEntry(s *scene.Scene, provenance string) ([]byte, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Entry{Provenance: provenance, Scene: raw})
}

// decodeEntry re-validates the stored scene so a stale or tampered entry is
// never served.
func decodeEntry(b []byte) (*scene.Scene, string, error) {
	var e Entry
	if err := json.Unmarshal(b, &e); err != nil {
		return nil, "", fmt.Errorf("decode cache entry: %w", err)
	}
	s, err := scene.ValidateJSON(e.Scene)
	if err != nil {
		return nil, "", fmt.Errorf("cached scene invalid: %w", err)
	}
	return s, e.Provenance, nil
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, string) (*scene.Scene, string, error) { return nil, "", nil }
func (Nop) Set(context.Context, string, *scene.Scene, string) error   { return nil }
func (Nop) Close() error                                               { return nil }

// Memory is an unbounded in-process cache for tests and single-node dev runs.
type Memory struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{entries: map[string][]byte{}}
}

func (m *Memory) Get(_ context.Context, key string) (*scene.Scene, string, error) {
	m.mu.RLock()
	b, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, "", nil
	}
	return decodeEntry(b)
}

func (m *Memory) Set(_ context.Context, key string, s *scene.Scene, provenance string) error {
	b, err := encodeEntry(s, provenance)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.entries[key] = b
	m.mu.Unlock()
	return nil
}

func (m *Memory) Close() error { return nil }

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
