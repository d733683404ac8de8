package oaihttp

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/yungbote/levelsnap-backend/internal/inference/config"
	"github.com/yungbote/levelsnap-backend/internal/inference/engine"
)

var ErrEmptyCompletion = errors.New("empty upstream completion")

// Engine talks to any OpenAI-compatible chat completions endpoint
// (OpenAI, vLLM, SGLang). Every GenerateText is a single POST.
type Engine struct {
	baseURL string
	apiKey  string

	chatCompletionsPath string
	timeout             time.Duration

	jsonSchemaMode           string
	jsonSchemaMaxPromptBytes int

	httpClient *http.Client
}

func New(cfg config.EngineConfig) (*Engine, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("oai_http: base_url required")
	}

	chatPath := strings.TrimSpace(cfg.ChatCompletionsPath)
	if chatPath == "" {
		chatPath = "/v1/chat/completions"
	}

	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	timeout := cfg.Timeout.Duration
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	mode := strings.ToLower(strings.TrimSpace(cfg.JSONSchema.Mode))
	if mode == "" {
		mode = "auto"
	}

	maxPromptBytes := cfg.JSONSchema.MaxPromptBytes
	if maxPromptBytes <= 0 {
		maxPromptBytes = 64 << 10
	}

	return &Engine{
		baseURL:                  baseURL,
		apiKey:                   strings.TrimSpace(cfg.APIKey),
		chatCompletionsPath:      chatPath,
		timeout:                  timeout,
		jsonSchemaMode:           mode,
		jsonSchemaMaxPromptBytes: maxPromptBytes,
		httpClient:               &http.Client{Transport: tr},
	}, nil
}

// NewWithHTTPClient is intended for tests; it avoids network access by using a custom RoundTripper.
func NewWithHTTPClient(cfg config.EngineConfig, httpClient *http.Client) (*Engine, error) {
	e, err := New(cfg)
	if err != nil {
		return nil, err
	}
	if httpClient != nil {
		e.httpClient = httpClient
	}
	return e, nil
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

type chatMessage struct {
	Role string `json:"role"`
	// Content is a string, or []contentPart when the message carries images.
	Content any `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`

	// Optional OpenAI-compatible extensions supported by vLLM/SGLang variants.
	ResponseFormat map[string]any `json:"response_format,omitempty"`
	GuidedJSON     any            `json:"guided_json,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content,omitempty"`
		} `json:"message,omitempty"`
		Text string `json:"text,omitempty"`
	} `json:"choices"`
}

func (e *Engine) GenerateText(ctx context.Context, model string, messages []engine.Message, opts engine.GenerateOptions) (string, error) {
	chatMsgs := toChatMessages(messages)
	if len(chatMsgs) == 0 {
		return "", errors.New("no messages")
	}

	reqBody := e.buildChatRequest(model, chatMsgs, opts, isRepairTurn(messages))

	var resp chatCompletionResponse
	if err := e.doJSON(ctx, http.MethodPost, e.chatCompletionsPath, reqBody, &resp); err != nil {
		return "", err
	}

	text := extractChatText(resp)
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}

// isRepairTurn reports whether the conversation already holds a model reply.
func isRepairTurn(messages []engine.Message) bool {
	for _, m := range messages {
		if m.Role == engine.RoleAssistant {
			return true
		}
	}
	return false
}

func (e *Engine) buildChatRequest(model string, messages []chatMessage, opts engine.GenerateOptions, repair bool) chatCompletionRequest {
	req := chatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxOutputTokens,
	}

	if opts.JSONSchema == nil {
		return req
	}

	useGuided := e.jsonSchemaMode == "guided_json" || (e.jsonSchemaMode == "auto" && !repair)
	usePrompt := e.jsonSchemaMode == "prompt" || (e.jsonSchemaMode == "auto" && repair)

	if useGuided && opts.JSONSchema.Schema != nil {
		req.ResponseFormat = map[string]any{"type": "json_object"}
		req.GuidedJSON = opts.JSONSchema.Schema
	}

	if usePrompt {
		req.Messages = append(req.Messages, chatMessage{
			Role:    engine.RoleSystem,
			Content: e.jsonSchemaPrompt(opts.JSONSchema),
		})
	}

	return req
}

func (e *Engine) jsonSchemaPrompt(s *engine.JSONSchema) string {
	name := strings.TrimSpace(s.Name)

	var schemaText string
	if s.Schema != nil {
		if b, err := json.Marshal(s.Schema); err == nil && len(b) <= e.jsonSchemaMaxPromptBytes {
			schemaText = string(b)
		}
	}

	var b strings.Builder
	b.WriteString("Return ONLY a valid JSON value that conforms to the provided JSON Schema. Do not include markdown or commentary.\n")
	if name != "" {
		b.WriteString("Schema name: ")
		b.WriteString(name)
		b.WriteString("\n")
	}
	if schemaText != "" {
		b.WriteString("Schema:\n")
		b.WriteString(schemaText)
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}

func toChatMessages(messages []engine.Message) []chatMessage {
	out := make([]chatMessage, 0, len(messages))
	for _, m := range messages {
		role := strings.TrimSpace(m.Role)
		content := strings.TrimSpace(m.Content)
		if role == "" || (content == "" && len(m.Images) == 0) {
			continue
		}
		if len(m.Images) == 0 {
			out = append(out, chatMessage{Role: role, Content: content})
			continue
		}

		parts := make([]contentPart, 0, len(m.Images)+1)
		if content != "" {
			parts = append(parts, contentPart{Type: "text", Text: content})
		}
		for _, img := range m.Images {
			parts = append(parts, contentPart{
				Type:     "image_url",
				ImageURL: &imageURL{URL: dataURL(img), Detail: "high"},
			})
		}
		out = append(out, chatMessage{Role: role, Content: parts})
	}
	return out
}

func dataURL(img engine.Image) string {
	mime := strings.TrimSpace(img.MimeType)
	if mime == "" {
		mime = "image/png"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(img.Bytes)
}

func extractChatText(resp chatCompletionResponse) string {
	for _, c := range resp.Choices {
		if strings.TrimSpace(c.Message.Content) != "" {
			return c.Message.Content
		}
		if strings.TrimSpace(c.Text) != "" {
			return c.Text
		}
	}
	return ""
}

func (e *Engine) doJSON(ctx context.Context, method string, path string, body any, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}

	ctx2 := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx2, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx2, method, e.baseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return newHTTPError(resp.StatusCode, raw)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
