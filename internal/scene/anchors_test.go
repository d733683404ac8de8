package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr[T any](v T) *T { return &v }

func TestIsEnemySpawnAnchor(t *testing.T) {
	cases := []struct {
		name string
		obj  Object
		want bool
	}{
		{"plant", Object{Category: ptr(CategoryPlant)}, true},
		{"electric", Object{Category: ptr(CategoryElectric)}, true},
		{"furniture", Object{Category: ptr(CategoryFurniture)}, false},
		{"flag overrides food", Object{EnemySpawnAnchor: ptr(true), Category: ptr(CategoryFood)}, true},
		{"flag false keeps plant", Object{EnemySpawnAnchor: ptr(false), Category: ptr(CategoryPlant)}, true},
		{"flag false", Object{EnemySpawnAnchor: ptr(false)}, false},
		{"nothing set", Object{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			first := IsEnemySpawnAnchor(tc.obj)
			assert.Equal(t, tc.want, first)
			assert.Equal(t, first, IsEnemySpawnAnchor(tc.obj))
		})
	}
}

func TestEnemySpawnAnchors_FiltersInOrderWithoutMutation(t *testing.T) {
	objs := []Object{
		{ID: "a", Category: ptr(CategoryFood)},
		{ID: "b", Category: ptr(CategoryElectric)},
		{ID: "c", EnemySpawnAnchor: ptr(true)},
		{ID: "d"},
	}
	got := EnemySpawnAnchors(objs)
	ids := make([]string, 0, len(got))
	for _, o := range got {
		ids = append(ids, o.ID)
	}
	assert.Equal(t, []string{"b", "c"}, ids)
	assert.Len(t, objs, 4)

	*objs[0].Category = CategoryPlant
	again := EnemySpawnAnchors(objs)
	assert.Len(t, again, 3, "predicate follows the current field values")
}
