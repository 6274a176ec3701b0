package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/nwehrle/memoloom/internal/service/draft"
)

// CatchAllQuestion always closes the clarification list, so the user gets
// a chance to volunteer anything the model did not think to ask.
const CatchAllQuestion = "Is there anything else I should know about this decision before proceeding?"

// maxProposedQuestions bounds how many model-proposed questions survive,
// keeping the full list at three including the catch-all.
const maxProposedQuestions = 2

const questionMaxTokens = 400

// Service asks the draft generator for strategic clarifying questions about
// a decision context. It never fails: generator errors and unparseable
// output both degrade to the bare catch-all question.
type Service struct {
	generator draft.Generator
}

func NewService(generator draft.Generator) *Service {
	return &Service{generator: generator}
}

// Plan returns the clarifying questions for the given context. The result
// is never empty and the catch-all is always last.
func (s *Service) Plan(ctx context.Context, contextText, participants string) []string {
	prompt := buildQuestionPrompt(contextText, participants)

	questions := []string{}
	response, err := s.generator.Complete(ctx, prompt, questionMaxTokens)
	if err != nil {
		log.Printf("[planner] question generation failed, proceeding with catch-all only: %v", err)
	} else {
		questions = ParseQuestionList(response)
	}

	return append(questions, CatchAllQuestion)
}

const questionPromptTemplate = `You are helping someone write a decision memo. Based on the context below, respond with ONLY a JSON array containing at most 2 strategic clarifying questions that would most improve the memo. If the context is already sufficient, respond with an empty JSON array: [].

Do not include any text outside the JSON array.%s

Context:
%s`

func buildQuestionPrompt(contextText, participants string) string {
	participantNote := ""
	if strings.TrimSpace(participants) != "" {
		participantNote = fmt.Sprintf("\n\nPeople involved in the decision: %s", participants)
	}
	return fmt.Sprintf(questionPromptTemplate, participantNote, contextText)
}

var bracketedList = regexp.MustCompile(`\[([\s\S]*?)\]`)

// ParseQuestionList extracts at most two questions from a model response.
// Strategy one is a strict JSON parse of the whole response; strategy two
// recovers a bracketed list embedded in prose. When both fail the caller
// proceeds with no proposed questions, which is not an error.
func ParseQuestionList(response string) []string {
	trimmed := strings.TrimSpace(response)

	var parsed []string
	if err := json.Unmarshal([]byte(trimmed), &parsed); err == nil {
		return takeQuestions(parsed)
	}

	match := bracketedList.FindStringSubmatch(trimmed)
	if match == nil {
		return []string{}
	}

	parts := strings.Split(match[1], `","`)
	recovered := make([]string, 0, len(parts))
	for _, part := range parts {
		question := strings.Trim(strings.TrimSpace(part), `"[]`)
		if question == "" {
			continue
		}
		recovered = append(recovered, question)
	}
	return takeQuestions(recovered)
}

func takeQuestions(candidates []string) []string {
	questions := make([]string, 0, maxProposedQuestions)
	for _, candidate := range candidates {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		questions = append(questions, candidate)
		if len(questions) == maxProposedQuestions {
			break
		}
	}
	return questions
}
