package pipeline

import (
	"fmt"
	"strings"

	"github.com/yungbote/levelsnap-backend/internal/scene"
)

var systemPrompt = buildSystemPrompt()

func buildSystemPrompt() string {
	var caps []string
	for _, t := range scene.ObjectTypes {
		caps = append(caps, fmt.Sprintf("%s <= %d", t, scene.Caps[t]))
	}

	return strings.TrimSpace(fmt.Sprintf(`
You turn a photo into a 2D platformer level. Look at the physical objects in the
photo and describe them as game objects.

Respond with a single JSON object and nothing else, shaped like:
{
  "version": 1,
  "image": {"w": <int>, "h": <int>},
  "objects": [{
    "id": "<unique string>",
    "type": "platform" | "obstacle" | "collectible" | "hazard" | "enemy",
    "label": "<what it is in the photo>",
    "confidence": <0..1>,
    "bounds_normalized": {"x": <0..1>, "y": <0..1>, "w": <0..1>, "h": <0..1>},
    "surface_type": "solid" | "bouncy" | "slippery" | "breakable" | "soft",
    "category": "plant" | "electric" | "food" | "furniture" | "other",
    "enemy_spawn_anchor": <bool>,
    "game_mechanics": {"damage_amount": <0..50>, "speed_multiplier": <0.5..2.0>}
  }],
  "spawns": {
    "player": {"x": <0..1>, "y": <0..1>},
    "exit": {"x": <0..1>, "y": <0..1>},
    "enemies": [{"x": <0..1>, "y": <0..1>, "type": "<optional>"}],
    "pickups": [{"x": <0..1>, "y": <0..1>, "type": "<optional>"}]
  },
  "rules": []
}

Hard limits: at most %d objects in total, and per type %s.
Coordinates are fractions of the image with the origin at the top left.
Every object id must be unique. Put the player and the exit on reachable platforms.`,
		scene.MaxObjects, strings.Join(caps, ", ")))
}

func userPrompt(req Request) string {
	mime := strings.TrimSpace(req.MimeType)
	if mime == "" {
		mime = "unknown"
	}
	if req.Width > 0 && req.Height > 0 {
		return fmt.Sprintf("Build a level from this photo (%s, %dx%d pixels). Use image.w=%d and image.h=%d.",
			mime, req.Width, req.Height, req.Width, req.Height)
	}
	return fmt.Sprintf("Build a level from this photo (%s). Report its pixel size in image.w and image.h.", mime)
}

func repairPrompt(errs []string) string {
	var b strings.Builder
	b.WriteString("Your previous response was rejected. Fix every problem below and return the corrected JSON only, with no prose or code fences.\n\nProblems:\n")
	for i, e := range errs {
		fmt.Fprintf(&b, "%d. %s\n", i+1, e)
	}
	return strings.TrimSpace(b.String())
}
