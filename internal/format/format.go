// Package format turns raw memo text into the fixed three-message reply.
package format

import "strings"

// Memo is the split form of a generated memo.
type Memo struct {
	Title string
	Body  string
}

// Split separates an optional leading "# Title" line from the memo body.
// Splitting is a pure function of its input, so reformatting the same memo
// always yields the same result.
func Split(raw string) Memo {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "#") {
		return Memo{Body: text}
	}

	firstLine := text
	rest := ""
	if idx := strings.Index(text, "\n"); idx >= 0 {
		firstLine = text[:idx]
		rest = text[idx+1:]
	}

	title := strings.TrimSpace(strings.TrimLeft(firstLine, "#"))
	title = strings.TrimSuffix(title, ":")

	return Memo{
		Title: title,
		Body:  strings.TrimSpace(rest),
	}
}

const (
	ackMessage = "All done! Here is your decision memo. :memo:"
	tipMessage = "Tip: you can run the memo command again anytime, or invoke the shortcut on a thread to start from an existing discussion."
)

// RenderDelivery produces the exact three outbound messages for a memo:
// acknowledgment, bolded title plus body, and the closing usage tip. The
// three-message split is a fixed contract with the client experience.
func RenderDelivery(memo Memo) []string {
	content := memo.Body
	if memo.Title != "" {
		content = "*" + memo.Title + "*\n\n" + memo.Body
	}

	return []string{ackMessage, content, tipMessage}
}
