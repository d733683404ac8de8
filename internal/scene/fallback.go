package scene

import "fmt"

const fallbackJSON = `{
  "version": 1,
  "image": {"w": 1280, "h": 720},
  "objects": [
    {"id": "ground", "type": "platform", "label": "floor", "bounds_normalized": {"x": 0, "y": 0.9, "w": 1, "h": 0.1}, "surface_type": "solid", "category": "other"},
    {"id": "ledge-left", "type": "platform", "label": "shelf", "bounds_normalized": {"x": 0.12, "y": 0.68, "w": 0.22, "h": 0.04}, "category": "furniture"},
    {"id": "ledge-right", "type": "platform", "label": "table", "bounds_normalized": {"x": 0.58, "y": 0.6, "w": 0.25, "h": 0.05}, "surface_type": "bouncy", "category": "furniture"},
    {"id": "spikes", "type": "hazard", "label": "cables", "bounds_normalized": {"x": 0.42, "y": 0.86, "w": 0.1, "h": 0.04}, "category": "electric", "game_mechanics": {"damage_amount": 10}},
    {"id": "fern", "type": "obstacle", "label": "potted plant", "bounds_normalized": {"x": 0.86, "y": 0.74, "w": 0.08, "h": 0.16}, "category": "plant"},
    {"id": "coin-1", "type": "collectible", "bounds_normalized": {"x": 0.2, "y": 0.6, "w": 0.03, "h": 0.05}},
    {"id": "coin-2", "type": "collectible", "bounds_normalized": {"x": 0.66, "y": 0.5, "w": 0.03, "h": 0.05}},
    {"id": "coin-3", "type": "collectible", "bounds_normalized": {"x": 0.46, "y": 0.72, "w": 0.03, "h": 0.05}}
  ],
  "spawns": {
    "player": {"x": 0.05, "y": 0.85},
    "exit": {"x": 0.95, "y": 0.85},
    "enemies": [],
    "pickups": [
      {"x": 0.25, "y": 0.62, "type": "coin"},
      {"x": 0.7, "y": 0.54, "type": "coin"},
      {"x": 0.5, "y": 0.8, "type": "heart"}
    ]
  },
  "rules": []
}`

var fallback = mustParseFallback()

func mustParseFallback() *Scene {
	s, err := ValidateJSON([]byte(fallbackJSON))
	if err != nil {
		panic(fmt.Sprintf("scene: built-in fallback is invalid: %v", err))
	}
	return s
}

// Fallback returns a copy of the built-in level used when no model output
// could be validated.
func Fallback() *Scene {
	return fallback.Clone()
}
