package scene

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func objectsOf(typ ObjectType, n int, prefix string) []any {
	out := make([]any, 0, n)
	for i := 0; i < n; i++ {
		o := platformObj(fmt.Sprintf("%s-%d", prefix, i))
		o["type"] = string(typ)
		out = append(out, o)
	}
	return out
}

func TestCheckCaps_ReportsEveryViolation(t *testing.T) {
	doc := minimalDoc()
	objs := objectsOf(TypePlatform, 13, "p")
	objs = append(objs, objectsOf(TypeEnemy, 3, "e")...)
	objs = append(objs, objectsOf(TypeHazard, 8, "h")...)
	doc["objects"] = objs

	_, err := ValidateJSON(mustJSON(t, doc))
	assert.Equal(t, []string{
		"objects: too many platform objects: 13 exceeds the cap of 12",
		"objects: too many enemy objects: 3 exceeds the cap of 2",
	}, validationMessages(t, err))
}

func TestValidate_OverLimitCombinesStructuralAndCaps(t *testing.T) {
	doc := minimalDoc()
	doc["objects"] = objectsOf(TypePlatform, 27, "p")

	_, err := ValidateJSON(mustJSON(t, doc))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, FieldErrors{{Path: "objects", Message: "Array must contain at most 25 element(s)"}}, verr.Structural)
	assert.Equal(t, FieldErrors{{Path: "objects", Message: "too many platform objects: 27 exceeds the cap of 12", Rule: RuleCap}}, verr.Semantic)
	assert.Contains(t, verr.Error(), "and 1 more")
}

func TestValidate_ExactlyAtCapsPasses(t *testing.T) {
	doc := minimalDoc()
	var objs []any
	objs = append(objs, objectsOf(TypePlatform, 12, "p")...)
	objs = append(objs, objectsOf(TypeObstacle, 8, "o")...)
	objs = append(objs, objectsOf(TypeEnemy, 2, "e")...)
	objs = append(objs, objectsOf(TypeHazard, 3, "h")...)
	doc["objects"] = objs

	s, err := ValidateJSON(mustJSON(t, doc))
	require.NoError(t, err)
	assertInvariants(t, s)
}

func TestCheckIDs_FlagsDuplicates(t *testing.T) {
	objs := []Object{{ID: "a"}, {ID: "b"}, {ID: "a"}, {ID: ""}, {ID: "b"}}
	got := CheckIDs(objs)
	assert.Equal(t, []string{
		`objects.2.id: duplicate id "a" (first used by objects.0)`,
		`objects.4.id: duplicate id "b" (first used by objects.1)`,
	}, got.Strings())
	for _, fe := range got {
		assert.Equal(t, RuleDuplicateID, fe.Rule)
	}
}

func TestValidate_DuplicateIDsFail(t *testing.T) {
	doc := minimalDoc()
	doc["objects"] = []any{platformObj("x"), platformObj("x")}
	_, err := ValidateJSON(mustJSON(t, doc))
	assert.Equal(t, []string{`objects.1.id: duplicate id "x" (first used by objects.0)`}, validationMessages(t, err))
}

// assertInvariants checks the properties every validated scene must hold.
func assertInvariants(t *testing.T, s *Scene) {
	t.Helper()
	require.NotNil(t, s)
	assert.Equal(t, Version, s.Version)
	assert.Greater(t, s.Image.W, 0)
	assert.Greater(t, s.Image.H, 0)
	assert.LessOrEqual(t, len(s.Objects), MaxObjects)
	for typ, n := range s.CountByType() {
		assert.LessOrEqual(t, n, Caps[typ], "type %s", typ)
	}
	unit := func(name string, v float64) {
		assert.True(t, v >= 0 && v <= 1, "%s=%v out of [0,1]", name, v)
	}
	for i, o := range s.Objects {
		unit(fmt.Sprintf("objects.%d.x", i), o.Bounds.X)
		unit(fmt.Sprintf("objects.%d.y", i), o.Bounds.Y)
		unit(fmt.Sprintf("objects.%d.w", i), o.Bounds.W)
		unit(fmt.Sprintf("objects.%d.h", i), o.Bounds.H)
		if gm := o.GameMechanics; gm != nil {
			if gm.DamageAmount != nil {
				assert.True(t, *gm.DamageAmount >= MinDamage && *gm.DamageAmount <= MaxDamage)
			}
			if gm.SpeedMultiplier != nil {
				assert.True(t, *gm.SpeedMultiplier >= MinSpeed && *gm.SpeedMultiplier <= MaxSpeed)
			}
		}
	}
	points := append([]Point{s.Spawns.Player, s.Spawns.Exit}, s.Spawns.Enemies...)
	points = append(points, s.Spawns.Pickups...)
	for i, p := range points {
		unit(fmt.Sprintf("point.%d.x", i), p.X)
		unit(fmt.Sprintf("point.%d.y", i), p.Y)
	}
}
