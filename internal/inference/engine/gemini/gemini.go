package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/yungbote/levelsnap-backend/internal/inference/config"
	"github.com/yungbote/levelsnap-backend/internal/inference/engine"
)

var ErrEmptyCompletion = errors.New("gemini: empty completion")

// Engine generates scenes with the Gemini API. Every GenerateText is a single
// GenerateContent call.
type Engine struct {
	client  *genai.Client
	timeout time.Duration
}

func New(ctx context.Context, cfg config.EngineConfig) (*Engine, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("gemini: api_key required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  strings.TrimSpace(cfg.APIKey),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	timeout := cfg.Timeout.Duration
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Engine{client: client, timeout: timeout}, nil
}

func (e *Engine) GenerateText(ctx context.Context, model string, messages []engine.Message, opts engine.GenerateOptions) (string, error) {
	system, contents := toContents(messages)
	if len(contents) == 0 {
		return "", errors.New("no messages")
	}

	gc := &genai.GenerateContentConfig{
		SystemInstruction: system,
		Temperature:       genai.Ptr(float32(opts.Temperature)),
	}
	if opts.MaxOutputTokens > 0 {
		gc.MaxOutputTokens = int32(opts.MaxOutputTokens)
	}
	if opts.JSONSchema != nil {
		gc.ResponseMIMEType = "application/json"
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	resp, err := e.client.Models.GenerateContent(ctx, model, contents, gc)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}

// toContents folds system messages into a single system instruction and maps
// the remaining turns onto Gemini roles.
func toContents(messages []engine.Message) (*genai.Content, []*genai.Content) {
	var sys []string
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		text := strings.TrimSpace(m.Content)
		switch m.Role {
		case engine.RoleSystem:
			if text != "" {
				sys = append(sys, text)
			}
			continue
		case engine.RoleUser, engine.RoleAssistant:
		default:
			continue
		}

		parts := make([]*genai.Part, 0, len(m.Images)+1)
		if text != "" {
			parts = append(parts, genai.NewPartFromText(text))
		}
		for _, img := range m.Images {
			mime := img.MimeType
			if mime == "" {
				mime = "image/png"
			}
			parts = append(parts, genai.NewPartFromBytes(img.Bytes, mime))
		}
		if len(parts) == 0 {
			continue
		}

		role := genai.Role(genai.RoleUser)
		if m.Role == engine.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromParts(parts, role))
	}

	var system *genai.Content
	if len(sys) > 0 {
		system = genai.NewContentFromText(strings.Join(sys, "\n\n"), genai.RoleUser)
	}
	return system, contents
}
