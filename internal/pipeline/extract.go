package pipeline

import (
	"encoding/json"
	"errors"
	"strings"
)

var ErrNoJSON = errors.New("no JSON object found in model output")

// ExtractJSON returns the first complete top-level JSON object in text.
// Markdown code fences are searched before the surrounding prose.
func ExtractJSON(text string) ([]byte, error) {
	for _, candidate := range fencedBlocks(text) {
		if obj, ok := firstObject(candidate); ok {
			return obj, nil
		}
	}
	if obj, ok := firstObject(text); ok {
		return obj, nil
	}
	return nil, ErrNoJSON
}

// fencedBlocks returns the bodies of ``` fences in order. The language tag on
// the opening fence line is dropped; an unterminated fence runs to the end.
func fencedBlocks(text string) []string {
	var out []string
	rest := text
	for {
		open := strings.Index(rest, "```")
		if open < 0 {
			return out
		}
		body := rest[open+3:]
		if nl := strings.IndexByte(body, '\n'); nl >= 0 && !strings.ContainsAny(body[:nl], "{[") {
			body = body[nl+1:]
		}
		end := strings.Index(body, "```")
		if end < 0 {
			return append(out, body)
		}
		out = append(out, body[:end])
		rest = body[end+3:]
	}
}

func firstObject(s string) ([]byte, bool) {
	for start := strings.IndexByte(s, '{'); start >= 0; {
		if end, ok := matchBrace(s, start); ok {
			obj := []byte(strings.TrimSpace(s[start : end+1]))
			if json.Valid(obj) {
				return obj, true
			}
		}
		next := strings.IndexByte(s[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return nil, false
}

// matchBrace finds the '}' closing the '{' at start, skipping string literals.
func matchBrace(s string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}
