// Package quiz holds the question model, question-bank loading and the
// sequencer that orders questions for one session.
package quiz

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/RaghavAtRuntime/local-llm-tutor/pkg/types"
)

// ErrInvalidBank indicates a question bank that failed schema validation.
var ErrInvalidBank = errors.New("quiz: invalid question bank")

// Question is a single quiz item. Immutable once loaded.
type Question struct {
	// ID uniquely identifies the question within a bank.
	ID string `json:"question_id"`
	// Prompt is the question text read to the learner.
	Prompt string `json:"question"`
	// ExpectedAnswer is the reference answer used for grading.
	ExpectedAnswer string `json:"expected_answer"`
	// KeyConcepts are case-insensitive match targets for concept coverage.
	// Never empty for a valid question.
	KeyConcepts []string `json:"key_concepts"`
	// Difficulty is one of easy, medium, hard.
	Difficulty types.Difficulty `json:"difficulty"`
	// Topic is a free-form subject label.
	Topic string `json:"topic"`
}

// LoadBank reads a JSON question bank from path and validates it.
//
// The file holds a JSON array of question objects. Validation rejects empty
// banks, duplicate or empty IDs, empty prompts or expected answers, empty
// key-concept lists and unknown difficulty tags; all violations are joined
// into one error wrapping ErrInvalidBank.
func LoadBank(path string) ([]Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("quiz: read bank: %w", err)
	}
	return ParseBank(data)
}

// ParseBank decodes and validates a JSON question bank.
func ParseBank(data []byte) ([]Question, error) {
	var questions []Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBank, err)
	}

	var errs []error
	if len(questions) == 0 {
		errs = append(errs, errors.New("bank contains no questions"))
	}
	seen := make(map[string]struct{}, len(questions))
	for i, q := range questions {
		if q.ID == "" {
			errs = append(errs, fmt.Errorf("question %d: empty question_id", i))
		} else if _, dup := seen[q.ID]; dup {
			errs = append(errs, fmt.Errorf("question %d: duplicate question_id %q", i, q.ID))
		} else {
			seen[q.ID] = struct{}{}
		}
		if q.Prompt == "" {
			errs = append(errs, fmt.Errorf("question %d: empty question text", i))
		}
		if q.ExpectedAnswer == "" {
			errs = append(errs, fmt.Errorf("question %d: empty expected_answer", i))
		}
		if len(q.KeyConcepts) == 0 {
			errs = append(errs, fmt.Errorf("question %d: empty key_concepts", i))
		}
		for j, c := range q.KeyConcepts {
			if c == "" {
				errs = append(errs, fmt.Errorf("question %d: empty key concept at index %d", i, j))
			}
		}
		if !q.Difficulty.IsValid() {
			errs = append(errs, fmt.Errorf("question %d: unknown difficulty %q", i, q.Difficulty))
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBank, errors.Join(errs...))
	}
	return questions, nil
}
