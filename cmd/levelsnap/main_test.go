package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/levelsnap-backend/internal/inference/engine/mock"
	"github.com/yungbote/levelsnap-backend/internal/scene"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, data, 0o600))
	return p
}

func TestValidateCommand_Valid(t *testing.T) {
	path := writeFile(t, "reply.txt", []byte("Here you go:\n"+mock.DefaultReply))

	out, err := execute(t, "", "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "valid: 4 objects")
	assert.Contains(t, out, "platform     2/12")
	assert.Contains(t, out, "enemy spawn anchors: plant")
}

func TestValidateCommand_InvalidFromStdin(t *testing.T) {
	var objects []string
	for i := 0; i < 3; i++ {
		objects = append(objects, fmt.Sprintf(`{"id":"e%d","type":"enemy","bounds_normalized":{"x":0.1,"y":0.1,"w":0.1,"h":0.1}}`, i))
	}
	body := fmt.Sprintf(`{"version":1,"image":{"w":640,"h":480},"objects":[%s],`+
		`"spawns":{"player":{"x":0.1,"y":0.9},"exit":{"x":0.9,"y":0.9}}}`, strings.Join(objects, ","))

	out, err := execute(t, body, "validate", "-")
	require.Error(t, err)
	assert.Contains(t, out, "too many enemy objects")
}

func TestValidateCommand_NoJSON(t *testing.T) {
	out, err := execute(t, "the model refused", "validate", "-")
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(out, "- "))
}

func TestFallbackCommand(t *testing.T) {
	out, err := execute(t, "", "fallback")
	require.NoError(t, err)

	sc, err := scene.ValidateJSON([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, scene.Fallback(), sc)
}

func TestSchemaCommand(t *testing.T) {
	out, err := execute(t, "", "schema")
	require.NoError(t, err)
	var schema map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &schema))
	assert.Equal(t, "object", schema["type"])
}

func TestGenerateCommand_MockEngine(t *testing.T) {
	for _, k := range []string{"LOG_MODE", "LOG_LEVEL", "LS_MODEL", "LS_STORE_DRIVER", "LS_STORE_DSN", "LS_REDIS_ADDR", "METRICS_ENABLED", "OTEL_ENABLED"} {
		t.Setenv(k, "")
	}
	cfgPath := writeFile(t, "config.yaml", []byte("env: test\n"))

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 10, 10))))
	imgPath := writeFile(t, "photo.png", buf.Bytes())

	out, err := execute(t, "", "generate", "--config", cfgPath, "--image", imgPath)
	require.NoError(t, err)

	var res struct {
		Provenance string          `json:"provenance"`
		ModelCalls int             `json:"model_calls"`
		Scene      json.RawMessage `json:"scene"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res), out)
	assert.Equal(t, "ai", res.Provenance)
	assert.Equal(t, 1, res.ModelCalls)
	_, err = scene.ValidateJSON(res.Scene)
	assert.NoError(t, err)
}

func TestGenerateCommand_RequiresImage(t *testing.T) {
	_, err := execute(t, "", "generate")
	assert.Error(t, err)
}
