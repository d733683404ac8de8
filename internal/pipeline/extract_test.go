package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/levelsnap-backend/internal/scene"
)

const bareScene = `{"version":1,"image":{"w":10,"h":10},"spawns":{"player":{"x":0,"y":0},"exit":{"x":1,"y":1}},"rules":[{"note":"a } inside \" a string"}]}`

func TestExtractJSON_FencedMatchesBare(t *testing.T) {
	bare, err := ExtractJSON(bareScene)
	require.NoError(t, err)

	fenced, err := ExtractJSON("```json\n" + bareScene + "\n```")
	require.NoError(t, err)
	assert.Equal(t, string(bare), string(fenced))

	a, err := scene.ValidateJSON(bare)
	require.NoError(t, err)
	b, err := scene.ValidateJSON(fenced)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestExtractJSON_Tolerance(t *testing.T) {
	cases := map[string]string{
		"bare":              bareScene,
		"fence no lang":     "```\n" + bareScene + "\n```",
		"fence one line":    "```" + bareScene + "```",
		"prose around":      "Here is your level:\n" + bareScene + "\nHave fun!",
		"prose and fence":   "Sure!\n```json\n" + bareScene + "\n```\nLet me know.",
		"unterminated":      "```json\n" + bareScene,
		"leading brace junk": "{oops} " + bareScene,
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := ExtractJSON(in)
			require.NoError(t, err)
			assert.JSONEq(t, bareScene, string(got))
		})
	}
}

func TestExtractJSON_NoJSON(t *testing.T) {
	for _, in := range []string{"", "no json here", "{ \"open\": ", "```json\n```", "[1,2,3]"} {
		_, err := ExtractJSON(in)
		assert.ErrorIs(t, err, ErrNoJSON, "input %q", in)
	}
}
