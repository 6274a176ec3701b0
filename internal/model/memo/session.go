package memo

import (
	"strings"
	"time"
)

// Stage tracks how far a memo dialogue has progressed. Stages only move
// forward; the terminal transition deletes the session instead of adding
// a fourth value.
type Stage string

const (
	StageStarted         Stage = "started"
	StageAskingQuestions Stage = "asking_questions"
	StageGenerating      Stage = "generating"
)

// Session captures one in-progress memo dialogue, keyed by the DM channel
// it runs in. A channel holds at most one session at a time.
type Session struct {
	ID      string
	UserID  string
	Stage   Stage
	Context string

	// Participants is reserved for a future flow; nothing populates it yet.
	Participants string

	ClarifyingQuestions []string
	ClarifyingAnswers   string

	// Provenance for thread-shortcut sessions, used only to route replies.
	RawMessages     []ThreadMessage
	OriginalChannel string
	ThreadTS        string

	CreatedAt time.Time
}

// ThreadMessage is one message of a captured thread transcript.
type ThreadMessage struct {
	Sender   string
	Text     string
	Subtype  string
	FromBot  bool
	TS       string
	ThreadTS string
}

// IsStopRequest reports whether a user message cancels the dialogue.
// Matching is case-insensitive and ignores surrounding whitespace.
func IsStopRequest(text string) bool {
	return strings.EqualFold(strings.TrimSpace(text), "stop")
}
