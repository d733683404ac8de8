package oaihttp

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

const maxErrorBody = 512

// HTTPError is a non-2xx reply from the chat completions server. Message is
// taken from an OpenAI-style error envelope when the body has one.
type HTTPError struct {
	StatusCode int
	Message    string
	Body       string
}

func newHTTPError(status int, raw []byte) *HTTPError {
	e := &HTTPError{StatusCode: status, Body: clip(strings.TrimSpace(string(raw)), maxErrorBody)}

	// {"error":{"message":"..."}} from OpenAI and vLLM, {"error":"..."} from llama.cpp.
	var env struct {
		Error json.RawMessage `json:"error"`
	}
	if json.Unmarshal(raw, &env) != nil || len(env.Error) == 0 {
		return e
	}
	var obj struct {
		Message string `json:"message"`
	}
	var s string
	switch {
	case json.Unmarshal(env.Error, &obj) == nil && obj.Message != "":
		e.Message = obj.Message
	case json.Unmarshal(env.Error, &s) == nil:
		e.Message = s
	}
	return e
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "chat completions: upstream error"
	}
	detail := e.Message
	if detail == "" {
		detail = e.Body
	}
	if detail == "" {
		return fmt.Sprintf("chat completions: status %d", e.StatusCode)
	}
	return fmt.Sprintf("chat completions: status %d: %s", e.StatusCode, detail)
}

// Temporary reports rate limiting and server-side failures.
func (e *HTTPError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
