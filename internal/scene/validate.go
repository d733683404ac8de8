package scene

import "fmt"

// CheckCaps reports every object type whose count exceeds its cap.
func CheckCaps(objects []Object) FieldErrors {
	counts := countByType(objects)
	var out FieldErrors
	for _, t := range ObjectTypes {
		if n, limit := counts[t], Caps[t]; n > limit {
			out = append(out, FieldError{
				Path:    "objects",
				Rule:    RuleCap,
				Message: fmt.Sprintf("too many %s objects: %d exceeds the cap of %d", t, n, limit),
			})
		}
	}
	return out
}

// CheckIDs reports object ids that repeat an earlier id. Empty ids are left
// to the structural pass.
func CheckIDs(objects []Object) FieldErrors {
	seen := make(map[string]int, len(objects))
	var out FieldErrors
	for i, o := range objects {
		if o.ID == "" {
			continue
		}
		if first, dup := seen[o.ID]; dup {
			out = append(out, FieldError{
				Path:    indexPath("objects", i) + ".id",
				Rule:    RuleDuplicateID,
				Message: fmt.Sprintf("duplicate id %q (first used by objects.%d)", o.ID, first),
			})
			continue
		}
		seen[o.ID] = i
	}
	return out
}

// Validate runs the structural and semantic passes over decoded JSON. It
// returns a *ValidationError listing every problem found, or the scene.
func Validate(v any) (*Scene, error) {
	s, structural := Parse(v)
	verr := &ValidationError{Structural: structural}
	verr.Semantic = append(verr.Semantic, CheckCaps(s.Objects)...)
	verr.Semantic = append(verr.Semantic, CheckIDs(s.Objects)...)
	if !verr.empty() {
		return nil, verr
	}
	return s, nil
}

// ValidateJSON decodes raw and validates it.
func ValidateJSON(raw []byte) (*Scene, error) {
	v, err := Decode(raw)
	if err != nil {
		return nil, err
	}
	return Validate(v)
}
