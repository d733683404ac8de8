package pipeline

import (
	"unicode/utf8"

	"github.com/yungbote/levelsnap-backend/internal/inference/engine"
)

const echoTruncatedMarker = "\n...[truncated]"

// Conversation is the message history for one Generate call. It is owned by
// the caller and never shared between requests.
type Conversation struct {
	// MaxMessages bounds the history including the system message; <= 0 means
	// unbounded. The system message is always kept and the oldest turns drop first.
	MaxMessages int

	// MaxEchoBytes caps a model reply echoed back by AddReply; <= 0 means no cap.
	MaxEchoBytes int

	system engine.Message
	turns  []engine.Message
}

func NewConversation(system string, maxMessages, maxEchoBytes int) *Conversation {
	return &Conversation{
		MaxMessages:  maxMessages,
		MaxEchoBytes: maxEchoBytes,
		system:       engine.Message{Role: engine.RoleSystem, Content: system},
	}
}

func (c *Conversation) AddUser(content string, images ...engine.Image) {
	c.add(engine.Message{Role: engine.RoleUser, Content: content, Images: images})
}

// AddReply records a prior model response, truncated to MaxEchoBytes.
func (c *Conversation) AddReply(raw string) {
	c.add(engine.Message{Role: engine.RoleAssistant, Content: truncateEcho(raw, c.MaxEchoBytes)})
}

func (c *Conversation) add(m engine.Message) {
	c.turns = append(c.turns, m)
	if c.MaxMessages <= 0 {
		return
	}
	keep := c.MaxMessages - 1
	if keep < 1 {
		keep = 1
	}
	if drop := len(c.turns) - keep; drop > 0 {
		c.turns = append(c.turns[:0:0], c.turns[drop:]...)
	}
}

// Messages returns a copy of the history, system message first.
func (c *Conversation) Messages() []engine.Message {
	out := make([]engine.Message, 0, len(c.turns)+1)
	out = append(out, c.system)
	return append(out, c.turns...)
}

func (c *Conversation) Len() int { return len(c.turns) + 1 }

func truncateEcho(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + echoTruncatedMarker
}
