package draft

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// ErrEmptyCompletion marks a technically-successful call that produced no
// usable text; callers treat it like any other generator failure.
var ErrEmptyCompletion = errors.New("draft generator returned empty completion")

// Generator is the LLM completion surface the planner and composer consume.
// No streaming: one prompt in, one text out, or an error.
type Generator interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// ArkGenerator runs completions through an eino chat model, bounding every
// call with a timeout so a hung vendor call degrades into the normal
// fallback paths instead of stalling the dialogue.
type ArkGenerator struct {
	chatModel model.ChatModel
	timeout   time.Duration
}

// NewArkGenerator wraps an already-configured chat model. A non-positive
// timeout falls back to 30 seconds.
func NewArkGenerator(chatModel model.ChatModel, timeout time.Duration) *ArkGenerator {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ArkGenerator{chatModel: chatModel, timeout: timeout}
}

// Complete sends a single user-role prompt and returns the full response
// text.
func (g *ArkGenerator) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	opts := []model.Option{}
	if maxTokens > 0 {
		opts = append(opts, model.WithMaxTokens(maxTokens))
	}

	msg, err := g.chatModel.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)}, opts...)
	if err != nil {
		return "", fmt.Errorf("ark completion failed: %w", err)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return "", ErrEmptyCompletion
	}
	return msg.Content, nil
}
