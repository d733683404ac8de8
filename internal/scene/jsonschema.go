package scene

// JSONSchema renders the scene contract as JSON Schema for engines that
// support guided decoding. Per-type caps are not expressible here and are
// stated in the prompt instead.
func JSONSchema() map[string]any {
	unit := map[string]any{"type": "number", "minimum": 0, "maximum": 1}
	point := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"x":    unit,
			"y":    unit,
			"type": map[string]any{"type": "string"},
		},
		"required": []string{"x", "y"},
	}
	rect := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"x": unit, "y": unit, "w": unit, "h": unit,
		},
		"required": []string{"x", "y", "w", "h"},
	}
	object := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"id":                 map[string]any{"type": "string", "minLength": 1},
			"type":               map[string]any{"type": "string", "enum": ObjectTypes},
			"label":              map[string]any{"type": "string"},
			"confidence":         unit,
			"bounds_normalized":  rect,
			"surface_type":       map[string]any{"type": "string", "enum": SurfaceTypes},
			"category":           map[string]any{"type": "string", "enum": Categories},
			"enemy_spawn_anchor": map[string]any{"type": "boolean"},
			"game_mechanics": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"damage_amount":    map[string]any{"type": "number", "minimum": MinDamage, "maximum": MaxDamage},
					"speed_multiplier": map[string]any{"type": "number", "minimum": MinSpeed, "maximum": MaxSpeed},
				},
				"additionalProperties": true,
			},
		},
		"required": []string{"id", "type", "bounds_normalized"},
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"version": map[string]any{"type": "integer", "const": Version},
			"image": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"w": map[string]any{"type": "integer", "exclusiveMinimum": 0},
					"h": map[string]any{"type": "integer", "exclusiveMinimum": 0},
				},
				"required": []string{"w", "h"},
			},
			"objects": map[string]any{"type": "array", "maxItems": MaxObjects, "items": object},
			"spawns": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"player":  point,
					"exit":    point,
					"enemies": map[string]any{"type": "array", "items": point},
					"pickups": map[string]any{"type": "array", "items": point},
				},
				"required": []string{"player", "exit"},
			},
			"rules": map[string]any{"type": "array", "items": map[string]any{}},
		},
		"required": []string{"version", "image", "spawns"},
	}
}
