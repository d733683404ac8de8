package scene

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
)

// Decode parses raw JSON into generic values, keeping numbers as json.Number.
// Trailing data after the first value is rejected.
func Decode(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode scene json: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, errors.New("decode scene json: unexpected data after top-level value")
	}
	return v, nil
}

// Parse checks v against the scene contract and applies defaults. The
// returned scene is populated as far as decoding got, even when errors are
// reported, so that later passes can still inspect the objects that decoded.
func Parse(v any) (*Scene, FieldErrors) {
	p := &parser{}
	s := p.scene(v)
	return s, p.errs
}

type parser struct {
	errs FieldErrors
}

func (p *parser) fail(path, format string, args ...any) {
	p.errs = append(p.errs, FieldError{Path: path, Message: fmt.Sprintf(format, args...)})
}

func (p *parser) scene(v any) *Scene {
	s := &Scene{
		Objects: []Object{},
		Rules:   []json.RawMessage{},
		Spawns:  Spawns{Enemies: []Point{}, Pickups: []Point{}},
	}
	m, ok := p.object("", v)
	if !ok {
		return s
	}

	if raw, ok := p.required(m, "", "version"); ok {
		p.version("version", raw, s)
	}
	if raw, ok := p.required(m, "", "image"); ok {
		s.Image = p.image("image", raw)
	}
	if raw, present := m["objects"]; present {
		s.Objects = p.objects("objects", raw)
	}
	if raw, ok := p.required(m, "", "spawns"); ok {
		s.Spawns = p.spawns("spawns", raw)
	}
	if raw, present := m["rules"]; present {
		s.Rules = p.rules("rules", raw)
	}
	return s
}

func (p *parser) version(path string, raw any, s *Scene) {
	n, ok := raw.(json.Number)
	if !ok {
		p.fail(path, "Invalid literal value, expected %d", Version)
		return
	}
	f, err := n.Float64()
	if err != nil || f != Version {
		p.fail(path, "Invalid literal value, expected %d", Version)
		return
	}
	s.Version = Version
}

func (p *parser) image(path string, raw any) ImageSize {
	var out ImageSize
	m, ok := p.object(path, raw)
	if !ok {
		return out
	}
	if v, ok := p.required(m, path, "w"); ok {
		out.W = p.positiveInt(joinPath(path, "w"), v)
	}
	if v, ok := p.required(m, path, "h"); ok {
		out.H = p.positiveInt(joinPath(path, "h"), v)
	}
	return out
}

func (p *parser) objects(path string, raw any) []Object {
	items, ok := p.array(path, raw)
	if !ok {
		return []Object{}
	}
	if len(items) > MaxObjects {
		p.fail(path, "Array must contain at most %d element(s)", MaxObjects)
	}
	out := make([]Object, 0, len(items))
	for i, item := range items {
		if o, ok := p.sceneObject(indexPath(path, i), item); ok {
			out = append(out, o)
		}
	}
	return out
}

// sceneObject reports ok when the object's type decoded, which is all the
// semantic pass needs to tally it.
func (p *parser) sceneObject(path string, raw any) (Object, bool) {
	var o Object
	m, ok := p.object(path, raw)
	if !ok {
		return o, false
	}

	if v, ok := p.required(m, path, "id"); ok {
		o.ID = p.nonEmptyString(joinPath(path, "id"), v)
	}
	typed := false
	if v, ok := p.required(m, path, "type"); ok {
		o.Type, typed = enumValue(p, joinPath(path, "type"), v, ObjectTypes)
	}
	if v, present := m["label"]; present {
		if s, ok := p.str(joinPath(path, "label"), v); ok {
			o.Label = &s
		}
	}
	if v, present := m["confidence"]; present {
		if f, ok := p.numberIn(joinPath(path, "confidence"), v, 0, 1); ok {
			o.Confidence = &f
		}
	}
	if v, ok := p.required(m, path, "bounds_normalized"); ok {
		o.Bounds = p.rect(joinPath(path, "bounds_normalized"), v)
	}
	if v, present := m["surface_type"]; present {
		if st, ok := enumValue(p, joinPath(path, "surface_type"), v, SurfaceTypes); ok {
			o.SurfaceType = &st
		}
	}
	if v, present := m["category"]; present {
		if c, ok := enumValue(p, joinPath(path, "category"), v, Categories); ok {
			o.Category = &c
		}
	}
	if v, present := m["enemy_spawn_anchor"]; present {
		if b, ok := p.boolean(joinPath(path, "enemy_spawn_anchor"), v); ok {
			o.EnemySpawnAnchor = &b
		}
	}
	if v, present := m["game_mechanics"]; present {
		o.GameMechanics = p.gameMechanics(joinPath(path, "game_mechanics"), v)
	}
	return o, typed
}

func (p *parser) gameMechanics(path string, raw any) *GameMechanics {
	m, ok := p.object(path, raw)
	if !ok {
		return nil
	}
	gm := &GameMechanics{}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := m[k]
		switch k {
		case "damage_amount":
			if f, ok := p.numberIn(joinPath(path, k), v, MinDamage, MaxDamage); ok {
				gm.DamageAmount = &f
			}
		case "speed_multiplier":
			if f, ok := p.numberIn(joinPath(path, k), v, MinSpeed, MaxSpeed); ok {
				gm.SpeedMultiplier = &f
			}
		default:
			b, err := json.Marshal(v)
			if err != nil {
				p.fail(joinPath(path, k), "Unserializable value")
				continue
			}
			if gm.Extra == nil {
				gm.Extra = map[string]json.RawMessage{}
			}
			gm.Extra[k] = b
		}
	}
	return gm
}

func (p *parser) spawns(path string, raw any) Spawns {
	out := Spawns{Enemies: []Point{}, Pickups: []Point{}}
	m, ok := p.object(path, raw)
	if !ok {
		return out
	}
	if v, ok := p.required(m, path, "player"); ok {
		out.Player = p.point(joinPath(path, "player"), v)
	}
	if v, ok := p.required(m, path, "exit"); ok {
		out.Exit = p.point(joinPath(path, "exit"), v)
	}
	if v, present := m["enemies"]; present {
		out.Enemies = p.points(joinPath(path, "enemies"), v)
	}
	if v, present := m["pickups"]; present {
		out.Pickups = p.points(joinPath(path, "pickups"), v)
	}
	return out
}

func (p *parser) points(path string, raw any) []Point {
	items, ok := p.array(path, raw)
	if !ok {
		return []Point{}
	}
	out := make([]Point, 0, len(items))
	for i, item := range items {
		out = append(out, p.point(indexPath(path, i), item))
	}
	return out
}

func (p *parser) point(path string, raw any) Point {
	var out Point
	m, ok := p.object(path, raw)
	if !ok {
		return out
	}
	if v, ok := p.required(m, path, "x"); ok {
		out.X, _ = p.numberIn(joinPath(path, "x"), v, 0, 1)
	}
	if v, ok := p.required(m, path, "y"); ok {
		out.Y, _ = p.numberIn(joinPath(path, "y"), v, 0, 1)
	}
	if v, present := m["type"]; present {
		out.Type, _ = p.str(joinPath(path, "type"), v)
	}
	return out
}

func (p *parser) rect(path string, raw any) Rect {
	var out Rect
	m, ok := p.object(path, raw)
	if !ok {
		return out
	}
	fields := []struct {
		key string
		dst *float64
	}{{"x", &out.X}, {"y", &out.Y}, {"w", &out.W}, {"h", &out.H}}
	for _, f := range fields {
		if v, ok := p.required(m, path, f.key); ok {
			*f.dst, _ = p.numberIn(joinPath(path, f.key), v, 0, 1)
		}
	}
	return out
}

func (p *parser) rules(path string, raw any) []json.RawMessage {
	items, ok := p.array(path, raw)
	if !ok {
		return []json.RawMessage{}
	}
	out := make([]json.RawMessage, 0, len(items))
	for i, item := range items {
		b, err := json.Marshal(item)
		if err != nil {
			p.fail(indexPath(path, i), "Unserializable value")
			continue
		}
		out = append(out, b)
	}
	return out
}

// ---------------- primitives ----------------

func (p *parser) required(m map[string]any, parent, key string) (any, bool) {
	v, ok := m[key]
	if !ok {
		p.fail(joinPath(parent, key), "Required")
		return nil, false
	}
	return v, true
}

func (p *parser) object(path string, raw any) (map[string]any, bool) {
	m, ok := raw.(map[string]any)
	if !ok {
		p.fail(path, "Expected object, received %s", typeName(raw))
		return nil, false
	}
	return m, true
}

func (p *parser) array(path string, raw any) ([]any, bool) {
	a, ok := raw.([]any)
	if !ok {
		p.fail(path, "Expected array, received %s", typeName(raw))
		return nil, false
	}
	return a, true
}

func (p *parser) str(path string, raw any) (string, bool) {
	s, ok := raw.(string)
	if !ok {
		p.fail(path, "Expected string, received %s", typeName(raw))
		return "", false
	}
	return s, true
}

func (p *parser) nonEmptyString(path string, raw any) string {
	s, ok := p.str(path, raw)
	if ok && s == "" {
		p.fail(path, "String must contain at least 1 character(s)")
	}
	return s
}

func (p *parser) boolean(path string, raw any) (bool, bool) {
	b, ok := raw.(bool)
	if !ok {
		p.fail(path, "Expected boolean, received %s", typeName(raw))
		return false, false
	}
	return b, true
}

func (p *parser) number(path string, raw any) (float64, bool) {
	n, ok := raw.(json.Number)
	if !ok {
		p.fail(path, "Expected number, received %s", typeName(raw))
		return 0, false
	}
	f, err := n.Float64()
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		p.fail(path, "Expected number, received nan")
		return 0, false
	}
	return f, true
}

func (p *parser) numberIn(path string, raw any, min, max float64) (float64, bool) {
	f, ok := p.number(path, raw)
	if !ok {
		return 0, false
	}
	if f < min {
		p.fail(path, "Number must be greater than or equal to %s", formatNum(min))
		return f, false
	}
	if f > max {
		p.fail(path, "Number must be less than or equal to %s", formatNum(max))
		return f, false
	}
	return f, true
}

func (p *parser) positiveInt(path string, raw any) int {
	f, ok := p.number(path, raw)
	if !ok {
		return 0
	}
	if f != math.Trunc(f) {
		p.fail(path, "Expected integer, received float")
		return 0
	}
	if f <= 0 {
		p.fail(path, "Number must be greater than 0")
		return 0
	}
	// Image sizes are pixel counts; anything past int32 is not a real photo.
	if f > math.MaxInt32 {
		p.fail(path, "Number must be less than or equal to %d", math.MaxInt32)
		return 0
	}
	return int(f)
}

func enumValue[T ~string](p *parser, path string, raw any, allowed []T) (T, bool) {
	var zero T
	s, ok := raw.(string)
	if !ok {
		p.fail(path, "Expected %s, received %s", quoteEnum(allowed), typeName(raw))
		return zero, false
	}
	for _, a := range allowed {
		if string(a) == s {
			return a, true
		}
	}
	p.fail(path, "Invalid enum value. Expected %s, received '%s'", quoteEnum(allowed), s)
	return zero, false
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case json.Number, float64:
		return "number"
	case bool:
		return "boolean"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func formatNum(f float64) string {
	return fmt.Sprintf("%g", f)
}
