package scene

// IsEnemySpawnAnchor reports whether o is a candidate location for enemy
// placement: explicitly flagged, or categorized as plant or electric.
func IsEnemySpawnAnchor(o Object) bool {
	if o.EnemySpawnAnchor != nil && *o.EnemySpawnAnchor {
		return true
	}
	if o.Category == nil {
		return false
	}
	switch *o.Category {
	case CategoryPlant, CategoryElectric:
		return true
	default:
		return false
	}
}

// EnemySpawnAnchors returns the anchor objects in their original order.
func EnemySpawnAnchors(objects []Object) []Object {
	out := make([]Object, 0, len(objects))
	for _, o := range objects {
		if IsEnemySpawnAnchor(o) {
			out = append(out, o)
		}
	}
	return out
}
