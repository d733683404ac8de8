package scene

import (
	"fmt"
	"strings"
)

// Semantic rule names carried by FieldError.Rule.
const (
	RuleCap         = "cap"
	RuleDuplicateID = "duplicate_id"
)

// FieldError is one problem at a dot-joined field path ("spawns.player").
// Rule is set on semantic problems only.
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
	Rule    string `json:"rule,omitempty"`
}

func (e FieldError) String() string {
	if e.Path == "" {
		return e.Message
	}
	return e.Path + ": " + e.Message
}

type FieldErrors []FieldError

func (fe FieldErrors) Strings() []string {
	out := make([]string, 0, len(fe))
	for _, e := range fe {
		out = append(out, e.String())
	}
	return out
}

// ValidationError aggregates every structural and semantic problem found in
// one validation pass.
type ValidationError struct {
	Structural FieldErrors
	Semantic   FieldErrors
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "scene validation failed"
	}
	msgs := e.Messages()
	switch len(msgs) {
	case 0:
		return "scene validation failed"
	case 1:
		return "scene validation failed: " + msgs[0]
	default:
		return fmt.Sprintf("scene validation failed: %s (and %d more)", msgs[0], len(msgs)-1)
	}
}

// Messages lists structural problems first, then semantic ones.
func (e *ValidationError) Messages() []string {
	if e == nil {
		return nil
	}
	out := e.Structural.Strings()
	return append(out, e.Semantic.Strings()...)
}

func (e *ValidationError) empty() bool {
	return len(e.Structural) == 0 && len(e.Semantic) == 0
}

func joinPath(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}

func indexPath(parent string, i int) string {
	return joinPath(parent, fmt.Sprint(i))
}

func quoteEnum[T ~string](vals []T) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = "'" + string(v) + "'"
	}
	return strings.Join(parts, " | ")
}
