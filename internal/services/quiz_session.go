package services

import (
	"fmt"
	"math"

	"github.com/SAP-F-2025/lms-store/internal/models"
)

// PassThreshold is the minimum score, in percent, that passes a quiz.
const PassThreshold = 80

// ScoreQuiz grades answers (question id -> chosen option index) against questions.
// Unanswered questions count as wrong. An empty quiz scores 0.
func ScoreQuiz(questions []models.QuizQuestion, answers map[string]int) QuizResult {
	result := QuizResult{Total: len(questions)}
	if result.Total == 0 {
		return result
	}

	for _, q := range questions {
		if chosen, ok := answers[q.ID]; ok && chosen == q.CorrectIndex {
			result.Correct++
		}
	}
	result.Score = int(math.Round(100 * float64(result.Correct) / float64(result.Total)))
	result.Passed = result.Score >= PassThreshold
	return result
}

type QuizState int

const (
	QuizViewing QuizState = iota
	QuizAnswering
	QuizPassed
	QuizRetry
)

func (s QuizState) String() string {
	switch s {
	case QuizViewing:
		return "viewing"
	case QuizAnswering:
		return "answering"
	case QuizPassed:
		return "passed"
	case QuizRetry:
		return "retry"
	default:
		return fmt.Sprintf("QuizState(%d)", int(s))
	}
}

// QuizSession is the client-side state of one learner taking one module quiz.
// It is not safe for concurrent use and persists nothing by itself.
type QuizSession struct {
	module  models.Module
	state   QuizState
	answers map[string]int
	result  *QuizResult
}

func NewQuizSession(module models.Module) *QuizSession {
	return &QuizSession{
		module:  module,
		state:   QuizViewing,
		answers: make(map[string]int),
	}
}

func (s *QuizSession) State() QuizState {
	return s.state
}

// Result is the last submitted result, if any.
func (s *QuizSession) Result() (QuizResult, bool) {
	if s.result == nil {
		return QuizResult{}, false
	}
	return *s.result, true
}

// Answers returns a copy of the current selections.
func (s *QuizSession) Answers() map[string]int {
	out := make(map[string]int, len(s.answers))
	for k, v := range s.answers {
		out[k] = v
	}
	return out
}

// Start moves from viewing the module to answering its quiz.
func (s *QuizSession) Start() error {
	if !s.module.HasQuiz() {
		return fmt.Errorf("%w: %s", ErrNoQuiz, s.module.ID)
	}
	if s.state != QuizViewing {
		return s.transitionError("start")
	}
	s.state = QuizAnswering
	return nil
}

// Select records (or replaces) the chosen option for a question.
func (s *QuizSession) Select(questionID string, option int) error {
	if s.state != QuizAnswering {
		return s.transitionError("select")
	}
	for _, q := range s.module.Quiz {
		if q.ID != questionID {
			continue
		}
		if option < 0 || option >= len(q.Options) {
			return NewValidationError("option", "is out of range", option)
		}
		s.answers[questionID] = option
		return nil
	}
	return NewValidationError("questionId", "does not belong to this quiz", questionID)
}

// Submit scores the current answers and moves to Passed or Retry.
func (s *QuizSession) Submit() (QuizResult, error) {
	if s.state != QuizAnswering {
		return QuizResult{}, s.transitionError("submit")
	}
	result := ScoreQuiz(s.module.Quiz, s.answers)
	s.result = &result
	if result.Passed {
		s.state = QuizPassed
	} else {
		s.state = QuizRetry
	}
	return result, nil
}

// Retake restarts a failed attempt from an empty answer set.
func (s *QuizSession) Retake() error {
	if s.state != QuizRetry {
		return s.transitionError("retake")
	}
	s.answers = make(map[string]int)
	s.state = QuizAnswering
	return nil
}

func (s *QuizSession) transitionError(action string) error {
	return fmt.Errorf("%w: cannot %s while %s", ErrInvalidTransition, action, s.state)
}
