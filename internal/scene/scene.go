// Package scene defines the level description exchanged between the vision
// model and the renderer, together with its validators.
package scene

import (
	"bytes"
	"encoding/json"
	"sort"
)

// Version is the only contract revision accepted by Parse.
const Version = 1

// MaxObjects bounds len(Scene.Objects).
const MaxObjects = 25

const (
	MinDamage = 0.0
	MaxDamage = 50.0
	MinSpeed  = 0.5
	MaxSpeed  = 2.0
)

type ObjectType string

const (
	TypePlatform    ObjectType = "platform"
	TypeObstacle    ObjectType = "obstacle"
	TypeCollectible ObjectType = "collectible"
	TypeHazard      ObjectType = "hazard"
	TypeEnemy       ObjectType = "enemy"
)

// ObjectTypes lists every object type in cap-report order.
var ObjectTypes = []ObjectType{TypePlatform, TypeObstacle, TypeCollectible, TypeHazard, TypeEnemy}

// Caps is the per-type object limit.
var Caps = map[ObjectType]int{
	TypePlatform:    12,
	TypeObstacle:    8,
	TypeCollectible: 10,
	TypeHazard:      8,
	TypeEnemy:       2,
}

type SurfaceType string

const (
	SurfaceSolid     SurfaceType = "solid"
	SurfaceBouncy    SurfaceType = "bouncy"
	SurfaceSlippery  SurfaceType = "slippery"
	SurfaceBreakable SurfaceType = "breakable"
	SurfaceSoft      SurfaceType = "soft"
)

var SurfaceTypes = []SurfaceType{SurfaceSolid, SurfaceBouncy, SurfaceSlippery, SurfaceBreakable, SurfaceSoft}

type Category string

const (
	CategoryPlant     Category = "plant"
	CategoryElectric  Category = "electric"
	CategoryFood      Category = "food"
	CategoryFurniture Category = "furniture"
	CategoryOther     Category = "other"
)

var Categories = []Category{CategoryPlant, CategoryElectric, CategoryFood, CategoryFurniture, CategoryOther}

// Scene is a validated level. Values returned by Validate, Fallback or the
// pipeline are treated as immutable; use Clone before editing.
type Scene struct {
	Version int               `json:"version"`
	Image   ImageSize         `json:"image"`
	Objects []Object          `json:"objects"`
	Spawns  Spawns            `json:"spawns"`
	Rules   []json.RawMessage `json:"rules"`
}

type ImageSize struct {
	W int `json:"w"`
	H int `json:"h"`
}

// Rect is a normalized rectangle; X/Y is the top-left corner.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

type Point struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Type string  `json:"type,omitempty"`
}

type Spawns struct {
	Player  Point   `json:"player"`
	Exit    Point   `json:"exit"`
	Enemies []Point `json:"enemies"`
	Pickups []Point `json:"pickups"`
}

type Object struct {
	ID               string         `json:"id"`
	Type             ObjectType     `json:"type"`
	Label            *string        `json:"label,omitempty"`
	Confidence       *float64       `json:"confidence,omitempty"`
	Bounds           Rect           `json:"bounds_normalized"`
	SurfaceType      *SurfaceType   `json:"surface_type,omitempty"`
	Category         *Category      `json:"category,omitempty"`
	EnemySpawnAnchor *bool          `json:"enemy_spawn_anchor,omitempty"`
	GameMechanics    *GameMechanics `json:"game_mechanics,omitempty"`
}

// Surface returns the surface type, solid when unset.
func (o Object) Surface() SurfaceType {
	if o.SurfaceType == nil {
		return SurfaceSolid
	}
	return *o.SurfaceType
}

// GameMechanics holds tuning values. Keys other than the known ones are kept
// verbatim in Extra and written back out by MarshalJSON.
type GameMechanics struct {
	DamageAmount    *float64
	SpeedMultiplier *float64
	Extra           map[string]json.RawMessage
}

func (g GameMechanics) MarshalJSON() ([]byte, error) {
	keys := make([]string, 0, len(g.Extra)+2)
	vals := make(map[string]json.RawMessage, len(g.Extra)+2)
	for k, v := range g.Extra {
		if k == "damage_amount" || k == "speed_multiplier" {
			continue
		}
		keys = append(keys, k)
		vals[k] = v
	}
	if g.DamageAmount != nil {
		b, err := json.Marshal(*g.DamageAmount)
		if err != nil {
			return nil, err
		}
		keys = append(keys, "damage_amount")
		vals["damage_amount"] = b
	}
	if g.SpeedMultiplier != nil {
		b, err := json.Marshal(*g.SpeedMultiplier)
		if err != nil {
			return nil, err
		}
		keys = append(keys, "speed_multiplier")
		vals["speed_multiplier"] = b
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, _ := json.Marshal(k)
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vals[k])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalJSON guarantees that list fields serialize as arrays, never null.
func (s Scene) MarshalJSON() ([]byte, error) {
	type plain Scene
	out := plain(s)
	if out.Objects == nil {
		out.Objects = []Object{}
	}
	if out.Rules == nil {
		out.Rules = []json.RawMessage{}
	}
	if out.Spawns.Enemies == nil {
		out.Spawns.Enemies = []Point{}
	}
	if out.Spawns.Pickups == nil {
		out.Spawns.Pickups = []Point{}
	}
	return json.Marshal(out)
}

// CountByType tallies objects per type.
func (s *Scene) CountByType() map[ObjectType]int {
	return countByType(s.Objects)
}

func countByType(objects []Object) map[ObjectType]int {
	out := make(map[ObjectType]int, len(ObjectTypes))
	for _, o := range objects {
		out[o.Type]++
	}
	return out
}

// Clone returns a deep copy of s.
func (s *Scene) Clone() *Scene {
	if s == nil {
		return nil
	}
	out := &Scene{
		Version: s.Version,
		Image:   s.Image,
		Objects: make([]Object, len(s.Objects)),
		Spawns: Spawns{
			Player:  s.Spawns.Player,
			Exit:    s.Spawns.Exit,
			Enemies: append([]Point{}, s.Spawns.Enemies...),
			Pickups: append([]Point{}, s.Spawns.Pickups...),
		},
		Rules: make([]json.RawMessage, len(s.Rules)),
	}
	for i, o := range s.Objects {
		out.Objects[i] = o.clone()
	}
	for i, r := range s.Rules {
		out.Rules[i] = append(json.RawMessage(nil), r...)
	}
	return out
}

func (o Object) clone() Object {
	out := o
	out.Label = clonePtr(o.Label)
	out.Confidence = clonePtr(o.Confidence)
	out.SurfaceType = clonePtr(o.SurfaceType)
	out.Category = clonePtr(o.Category)
	out.EnemySpawnAnchor = clonePtr(o.EnemySpawnAnchor)
	if o.GameMechanics != nil {
		gm := &GameMechanics{
			DamageAmount:    clonePtr(o.GameMechanics.DamageAmount),
			SpeedMultiplier: clonePtr(o.GameMechanics.SpeedMultiplier),
		}
		if o.GameMechanics.Extra != nil {
			gm.Extra = make(map[string]json.RawMessage, len(o.GameMechanics.Extra))
			for k, v := range o.GameMechanics.Extra {
				gm.Extra[k] = append(json.RawMessage(nil), v...)
			}
		}
		out.GameMechanics = gm
	}
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
