package composer

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/nwehrle/memoloom/internal/service/draft"
)

// SectionHeadings are the five fixed memo sections, in order. The first is
// answered in short prose, the rest as bullet lists.
var SectionHeadings = []string{
	"*What is the choice we are making?*",
	"*Why are we making it?*",
	"*What are the risks?*",
	"*What is the reward?*",
	"*What alternatives were considered?*",
}

const memoMaxTokens = 1500

// Service turns a decision context (optionally enriched with clarification
// answers) into a memo. It never surfaces generator errors: any failure
// yields the deterministic fallback memo so the dialogue always ends with
// a memo-shaped artifact.
type Service struct {
	generator draft.Generator
}

func NewService(generator draft.Generator) *Service {
	return &Service{generator: generator}
}

// Compose drafts a memo from the context alone.
func (s *Service) Compose(ctx context.Context, contextText, participants string) string {
	prompt := buildMemoPrompt(contextText, participants, "")
	return s.complete(ctx, prompt)
}

// ComposeWithClarification drafts a memo weaving in the user's clarification
// reply. The single reply is treated as the answer to the whole question
// set; questions and answers pair positionally.
func (s *Service) ComposeWithClarification(ctx context.Context, contextText, participants string, questions []string, answer string) string {
	prompt := buildMemoPrompt(contextText, participants, renderClarification(questions, answer))
	return s.complete(ctx, prompt)
}

func (s *Service) complete(ctx context.Context, prompt string) string {
	memo, err := s.generator.Complete(ctx, prompt, memoMaxTokens)
	if err != nil {
		log.Printf("[composer] memo generation failed, returning fallback memo: %v", err)
		return FallbackMemo()
	}
	return strings.TrimSpace(memo)
}

const memoPromptHeader = `Write a decision memo based on the context below. Follow this structure exactly:

- The first line is a title prefixed with "# ".
- Then exactly five sections, each introduced by one of these literal heading lines, in this order:
  %s
- Answer the first section in one or two short sentences of prose.
- Answer the remaining four sections as bullet lists. Each bullet is a single line starting with the marker glued directly to the text, like "•Reduced hosting cost". Do not put a space, dash, or asterisk after the marker, and do not use bold or italic markers inside bullets.
- Do not add any sections, preamble, or closing remarks.`

func buildMemoPrompt(contextText, participants, clarification string) string {
	var b strings.Builder
	fmt.Fprintf(&b, memoPromptHeader, strings.Join(SectionHeadings, "\n  "))

	if strings.TrimSpace(participants) != "" {
		fmt.Fprintf(&b, "\n\nPeople involved in the decision: %s", participants)
	}

	b.WriteString("\n\nContext:\n")
	b.WriteString(contextText)

	if clarification != "" {
		b.WriteString("\n\nThe author answered clarifying questions about this decision. Use these answers to sharpen the memo, and weave the answer to the final question into the relevant sections. Do not quote the questions or answers verbatim.\n\n")
		b.WriteString(clarification)
	}

	return b.String()
}

func renderClarification(questions []string, answer string) string {
	if len(questions) == 0 {
		return strings.TrimSpace(answer)
	}

	var b strings.Builder
	for i, question := range questions {
		fmt.Fprintf(&b, "Q%d: %s\n", i+1, question)
	}
	fmt.Fprintf(&b, "Combined answer to all questions: %s", strings.TrimSpace(answer))
	return b.String()
}

// FallbackMemo is the deterministic memo used when generation fails. It
// keeps the five-heading skeleton so downstream formatting and the user
// experience stay identical.
func FallbackMemo() string {
	var b strings.Builder
	b.WriteString("# Decision Memo\n\n")
	b.WriteString("_Automatic drafting was unavailable, so this memo is a skeleton. Fill in the sections below from your notes._\n\n")

	prose := "Describe the decision in one or two sentences."
	bullets := []string{
		"•Add the key points here",
		"•Add supporting details here",
	}

	for i, heading := range SectionHeadings {
		b.WriteString(heading)
		b.WriteString("\n")
		if i == 0 {
			b.WriteString(prose)
		} else {
			b.WriteString(strings.Join(bullets, "\n"))
		}
		if i < len(SectionHeadings)-1 {
			b.WriteString("\n\n")
		}
	}
	return b.String()
}
