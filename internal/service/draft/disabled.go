package draft

import (
	"context"
	"errors"
)

// ErrDraftingDisabled is returned when the service runs without LLM
// credentials. Callers degrade exactly as for any other generator failure.
var ErrDraftingDisabled = errors.New("draft generation is disabled")

type disabledGenerator struct{}

// Disabled returns a Generator whose calls always fail, so the planner
// skips questions and the composer serves fallback memos.
func Disabled() Generator {
	return disabledGenerator{}
}

func (disabledGenerator) Complete(context.Context, string, int) (string, error) {
	return "", ErrDraftingDisabled
}
