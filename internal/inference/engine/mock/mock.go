package mock

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/yungbote/levelsnap-backend/internal/inference/engine"
)

// DefaultReply is a fenced, valid scene so the unconfigured service still
// exercises extraction end to end.
const DefaultReply = "```json\n" + `{
  "version": 1,
  "image": {"w": 1024, "h": 768},
  "objects": [
    {"id": "floor", "type": "platform", "label": "table top",
     "bounds_normalized": {"x": 0, "y": 0.85, "w": 1, "h": 0.15}, "surface_type": "solid"},
    {"id": "shelf", "type": "platform", "label": "book shelf",
     "bounds_normalized": {"x": 0.3, "y": 0.55, "w": 0.3, "h": 0.05}},
    {"id": "plant", "type": "obstacle", "label": "potted plant", "category": "plant",
     "bounds_normalized": {"x": 0.7, "y": 0.6, "w": 0.1, "h": 0.25}, "enemy_spawn_anchor": true},
    {"id": "mug", "type": "collectible", "label": "coffee mug",
     "bounds_normalized": {"x": 0.42, "y": 0.48, "w": 0.05, "h": 0.07}}
  ],
  "spawns": {
    "player": {"x": 0.05, "y": 0.8},
    "exit": {"x": 0.95, "y": 0.8},
    "enemies": [{"x": 0.72, "y": 0.55}],
    "pickups": [{"x": 0.44, "y": 0.45, "type": "coin"}]
  },
  "rules": []
}` + "\n```"

// Engine replays a script of replies. Each call consumes the next reply and
// the last one repeats; an empty script always answers DefaultReply.
type Engine struct {
	mu      sync.Mutex
	replies []string
	next    int

	// Err, when set, is returned instead of a reply.
	Err error

	calls atomic.Int64
}

func New(replies ...string) *Engine {
	return &Engine{replies: append([]string(nil), replies...)}
}

func (e *Engine) GenerateText(ctx context.Context, model string, messages []engine.Message, opts engine.GenerateOptions) (string, error) {
	_ = model
	_ = messages
	_ = opts

	e.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if e.Err != nil {
		return "", e.Err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.replies) == 0 {
		return DefaultReply, nil
	}
	i := e.next
	if i >= len(e.replies) {
		i = len(e.replies) - 1
	} else {
		e.next++
	}
	return e.replies[i], nil
}

// Calls reports how many times GenerateText was invoked.
func (e *Engine) Calls() int {
	return int(e.calls.Load())
}
