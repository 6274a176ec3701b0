package planner

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

type stubGenerator struct {
	response string
	err      error
	calls    int
}

func (s *stubGenerator) Complete(_ context.Context, _ string, _ int) (string, error) {
	s.calls++
	return s.response, s.err
}

func TestPlanAppendsCatchAll(t *testing.T) {
	cases := []struct {
		name     string
		response string
		wantLen  int
	}{
		{"empty array", `[]`, 1},
		{"one question", `["What is the budget?"]`, 2},
		{"two questions", `["What is the budget?","Who signs off?"]`, 3},
		{"four questions capped at two", `["q1","q2","q3","q4"]`, 3},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewService(&stubGenerator{response: tc.response})
			questions := svc.Plan(context.Background(), "some context", "")

			if len(questions) != tc.wantLen {
				t.Fatalf("expected %d questions, got %d: %v", tc.wantLen, len(questions), questions)
			}
			if questions[len(questions)-1] != CatchAllQuestion {
				t.Fatalf("catch-all is not last: %v", questions)
			}
		})
	}
}

func TestPlanGeneratorFailureDegradesToCatchAll(t *testing.T) {
	svc := NewService(&stubGenerator{err: errors.New("rate limited")})

	questions := svc.Plan(context.Background(), "We decided to switch database vendors because of cost.", "")

	want := []string{CatchAllQuestion}
	if !reflect.DeepEqual(questions, want) {
		t.Fatalf("expected only the catch-all, got %v", questions)
	}
}

func TestPlanEmptyArrayScenario(t *testing.T) {
	svc := NewService(&stubGenerator{response: `[]`})

	questions := svc.Plan(context.Background(), "We decided to switch database vendors because of cost.", "")

	if len(questions) != 1 || questions[0] != CatchAllQuestion {
		t.Fatalf("expected [catch-all], got %v", questions)
	}
}

func TestParseQuestionListStrictJSON(t *testing.T) {
	questions := ParseQuestionList(`["What is the timeline?", "What does it cost?"]`)

	want := []string{"What is the timeline?", "What does it cost?"}
	if !reflect.DeepEqual(questions, want) {
		t.Fatalf("got %v want %v", questions, want)
	}
}

func TestParseQuestionListRegexMatchesJSONPath(t *testing.T) {
	direct := ParseQuestionList(`["q1","q2"]`)
	embedded := ParseQuestionList(`Sure! Here are the questions: ["q1","q2"] — let me know if you need more.`)

	if !reflect.DeepEqual(direct, embedded) {
		t.Fatalf("regex path diverged: direct=%v embedded=%v", direct, embedded)
	}
	if len(direct) != 2 {
		t.Fatalf("expected 2 questions, got %v", direct)
	}
}

func TestParseQuestionListUnparseable(t *testing.T) {
	questions := ParseQuestionList("I cannot answer that right now.")

	if len(questions) != 0 {
		t.Fatalf("expected no questions, got %v", questions)
	}
}

func TestParseQuestionListDropsEmptyElements(t *testing.T) {
	questions := ParseQuestionList(`["", "What is the risk?", ""]`)

	want := []string{"What is the risk?"}
	if !reflect.DeepEqual(questions, want) {
		t.Fatalf("got %v want %v", questions, want)
	}
}

func TestPlanPromptIncludesContext(t *testing.T) {
	gen := &stubGenerator{response: `[]`}
	svc := NewService(gen)

	svc.Plan(context.Background(), "migrate to vendor B", "")

	if gen.calls != 1 {
		t.Fatalf("expected one generator call, got %d", gen.calls)
	}
}
