package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/lms-store/internal/models"
)

func makeQuiz(n int) []models.QuizQuestion {
	quiz := make([]models.QuizQuestion, n)
	for i := range quiz {
		quiz[i] = models.QuizQuestion{
			ID:           fmt.Sprintf("q%d", i+1),
			Text:         fmt.Sprintf("Question %d", i+1),
			Options:      []string{"right", "wrong"},
			CorrectIndex: 0,
		}
	}
	return quiz
}

// answersWithCorrect answers the first k questions right and the rest wrong.
func answersWithCorrect(quiz []models.QuizQuestion, k int) map[string]int {
	answers := make(map[string]int, len(quiz))
	for i, q := range quiz {
		if i < k {
			answers[q.ID] = q.CorrectIndex
		} else {
			answers[q.ID] = 1
		}
	}
	return answers
}

func TestScoreQuiz(t *testing.T) {
	tests := []struct {
		name       string
		questions  int
		correct    int
		wantScore  int
		wantPassed bool
	}{
		{name: "empty quiz", questions: 0, correct: 0, wantScore: 0, wantPassed: false},
		{name: "all correct", questions: 2, correct: 2, wantScore: 100, wantPassed: true},
		{name: "threshold passes", questions: 5, correct: 4, wantScore: 80, wantPassed: true},
		{name: "just below threshold", questions: 24, correct: 19, wantScore: 79, wantPassed: false},
		{name: "rounds half up", questions: 8, correct: 5, wantScore: 63, wantPassed: false},
		{name: "two thirds", questions: 3, correct: 2, wantScore: 67, wantPassed: false},
		{name: "nothing right", questions: 4, correct: 0, wantScore: 0, wantPassed: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quiz := makeQuiz(tt.questions)
			got := ScoreQuiz(quiz, answersWithCorrect(quiz, tt.correct))
			assert.Equal(t, tt.questions, got.Total)
			assert.Equal(t, tt.correct, got.Correct)
			assert.Equal(t, tt.wantScore, got.Score)
			assert.Equal(t, tt.wantPassed, got.Passed)
		})
	}
}

func TestScoreQuiz_UnansweredCountsAsWrong(t *testing.T) {
	quiz := makeQuiz(5)
	got := ScoreQuiz(quiz, map[string]int{"q1": 0, "q2": 0, "q3": 0, "q4": 0, "unknown": 0})
	assert.Equal(t, 4, got.Correct)
	assert.Equal(t, 80, got.Score)
	assert.True(t, got.Passed)
}

func TestQuizSession_PassFlow(t *testing.T) {
	module := models.Module{ID: "m1", Title: "Intro", Quiz: makeQuiz(2)}
	session := NewQuizSession(module)
	assert.Equal(t, QuizViewing, session.State())

	require.NoError(t, session.Start())
	assert.Equal(t, QuizAnswering, session.State())

	require.NoError(t, session.Select("q1", 1))
	require.NoError(t, session.Select("q1", 0))
	require.NoError(t, session.Select("q2", 0))
	assert.Equal(t, map[string]int{"q1": 0, "q2": 0}, session.Answers())

	result, err := session.Submit()
	require.NoError(t, err)
	assert.Equal(t, 100, result.Score)
	assert.Equal(t, QuizPassed, session.State())

	last, ok := session.Result()
	require.True(t, ok)
	assert.Equal(t, result, last)

	err = session.Retake()
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestQuizSession_RetryFlow(t *testing.T) {
	module := models.Module{ID: "m1", Title: "Intro", Quiz: makeQuiz(2)}
	session := NewQuizSession(module)

	_, err := session.Submit()
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.ErrorIs(t, session.Select("q1", 0), ErrInvalidTransition)

	require.NoError(t, session.Start())
	assert.ErrorIs(t, session.Start(), ErrInvalidTransition)
	require.NoError(t, session.Select("q1", 0))

	result, err := session.Submit()
	require.NoError(t, err)
	assert.Equal(t, 50, result.Score)
	assert.False(t, result.Passed)
	assert.Equal(t, QuizRetry, session.State())

	require.NoError(t, session.Retake())
	assert.Equal(t, QuizAnswering, session.State())
	assert.Empty(t, session.Answers())
}

func TestQuizSession_SelectValidation(t *testing.T) {
	session := NewQuizSession(models.Module{ID: "m1", Quiz: makeQuiz(1)})
	require.NoError(t, session.Start())

	assert.True(t, IsValidationError(session.Select("q1", 2)))
	assert.True(t, IsValidationError(session.Select("q1", -1)))
	assert.True(t, IsValidationError(session.Select("q9", 0)))
}

func TestQuizSession_NoQuiz(t *testing.T) {
	session := NewQuizSession(models.Module{ID: "m1"})
	assert.ErrorIs(t, session.Start(), ErrNoQuiz)
	assert.Equal(t, QuizViewing, session.State())
	_, ok := session.Result()
	assert.False(t, ok)
}

func TestQuizState_String(t *testing.T) {
	assert.Equal(t, "viewing", QuizViewing.String())
	assert.Equal(t, "answering", QuizAnswering.String())
	assert.Equal(t, "passed", QuizPassed.String())
	assert.Equal(t, "retry", QuizRetry.String())
	assert.Equal(t, "QuizState(9)", QuizState(9).String())
}

func TestQuizService_Submit(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	quiz := env.manager.Quiz()

	// seed: u1 is enrolled in c1, m2 carries two questions answered by option 1
	_, err := quiz.Evaluate(ctx, "c1", "m1", nil)
	assert.ErrorIs(t, err, ErrNoQuiz)
	_, err = quiz.Evaluate(ctx, "c404", "m2", nil)
	assert.ErrorIs(t, err, ErrCourseNotFound)
	_, err = quiz.Evaluate(ctx, "c1", "m404", nil)
	assert.ErrorIs(t, err, ErrModuleNotFound)

	failed, err := quiz.Submit(ctx, "u1", "c1", "m2", map[string]int{"q1": 1, "q2": 0})
	require.NoError(t, err)
	assert.True(t, failed.Recorded)
	assert.Equal(t, 50, failed.Result.Score)
	assert.Equal(t, 0, failed.Enrollment.Progress)
	assert.Equal(t, 1, failed.Enrollment.Modules["m2"].Attempts)

	passed, err := quiz.Submit(ctx, "u1", "c1", "m2", map[string]int{"q1": 1, "q2": 1})
	require.NoError(t, err)
	require.True(t, passed.Recorded)
	mp := passed.Enrollment.Modules["m2"]
	assert.True(t, mp.Completed)
	assert.NotNil(t, mp.CompletedAt)
	assert.Equal(t, 2, mp.Attempts)
	assert.Equal(t, 100, mp.BestScore)
	assert.Equal(t, 50, passed.Enrollment.Progress)

	// u2 is not enrolled: scored but not recorded
	unrecorded, err := quiz.Submit(ctx, "u2", "c1", "m2", map[string]int{"q1": 1, "q2": 1})
	require.NoError(t, err)
	assert.False(t, unrecorded.Recorded)
	assert.True(t, unrecorded.Result.Passed)
	assert.Nil(t, unrecorded.Enrollment)
}
