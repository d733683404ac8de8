package gemini

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/yungbote/levelsnap-backend/internal/inference/config"
	"github.com/yungbote/levelsnap-backend/internal/inference/engine"
)

func TestToContents_FoldsSystemAndMapsRoles(t *testing.T) {
	system, contents := toContents([]engine.Message{
		{Role: engine.RoleSystem, Content: "be a level designer"},
		{Role: engine.RoleUser, Content: "photo", Images: []engine.Image{{Bytes: []byte("img"), MimeType: "image/jpeg"}}},
		{Role: engine.RoleAssistant, Content: "{broken"},
		{Role: engine.RoleSystem, Content: "json only"},
		{Role: engine.RoleUser, Content: "fix it"},
		{Role: "tool", Content: "ignored"},
	})

	require.NotNil(t, system)
	require.Len(t, system.Parts, 1)
	assert.Equal(t, "be a level designer\n\njson only", system.Parts[0].Text)

	require.Len(t, contents, 3)
	assert.Equal(t, string(genai.RoleUser), string(contents[0].Role))
	require.Len(t, contents[0].Parts, 2)
	assert.Equal(t, "photo", contents[0].Parts[0].Text)
	require.NotNil(t, contents[0].Parts[1].InlineData)
	assert.Equal(t, "image/jpeg", contents[0].Parts[1].InlineData.MIMEType)
	assert.Equal(t, []byte("img"), contents[0].Parts[1].InlineData.Data)

	assert.Equal(t, string(genai.RoleModel), string(contents[1].Role))
	assert.Equal(t, "fix it", contents[2].Parts[0].Text)
}

func TestToContents_NoSystem(t *testing.T) {
	system, contents := toContents([]engine.Message{{Role: engine.RoleUser, Content: "hi"}})
	assert.Nil(t, system)
	assert.Len(t, contents, 1)
}

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New(t.Context(), config.EngineConfig{Type: "gemini"})
	assert.Error(t, err)
}
