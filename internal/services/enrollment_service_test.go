package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/lms-store/internal/events"
	"github.com/SAP-F-2025/lms-store/internal/models"
)

func TestEnrollmentService_ReassignKeepsOneRow(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := env.manager.Enrollment()

	_, err := svc.SetProgress(ctx, "u1", 40)
	require.NoError(t, err)

	_, err = svc.Reassign(ctx, "u1", "cA")
	require.NoError(t, err)
	got, err := svc.Reassign(ctx, "u1", "cB")
	require.NoError(t, err)
	assert.Equal(t, "cB", got.CourseID)
	assert.Equal(t, 0, got.Progress)

	rows, err := env.store.Enrollments().Get(ctx)
	require.NoError(t, err)
	var mine []models.Enrollment
	for _, e := range rows {
		if e.UserID == "u1" {
			mine = append(mine, e)
		}
	}
	require.Len(t, mine, 1)
	assert.Equal(t, "cB", mine[0].CourseID)
	assert.Equal(t, 0, mine[0].Progress)
	assert.False(t, mine[0].EnrolledAt.IsZero())
}

func TestEnrollmentService_ReassignSameCourseResets(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := env.manager.Enrollment()

	_, err := svc.SetProgress(ctx, "u1", 70)
	require.NoError(t, err)
	got, err := svc.Reassign(ctx, "u1", "c1")
	require.NoError(t, err)
	assert.Equal(t, 0, got.Progress)
}

func TestEnrollmentService_ReassignValidation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := env.manager.Enrollment()

	_, err := svc.Reassign(ctx, "", "c1")
	assert.True(t, IsValidationError(err))
	_, err = svc.Reassign(ctx, "u1", "  ")
	assert.True(t, IsValidationError(err))
	assert.Empty(t, env.publisher.GetPublishedEvents())
}

func TestEnrollmentService_SetProgressClamps(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := env.manager.Enrollment()

	tests := []struct {
		in   int
		want int
	}{
		{in: -5, want: 0},
		{in: 0, want: 0},
		{in: 55, want: 55},
		{in: 100, want: 100},
		{in: 250, want: 100},
	}
	for _, tt := range tests {
		got, err := svc.SetProgress(ctx, "u1", tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got.Progress)

		current, err := svc.Current(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, tt.want, current.Progress)
	}
}

func TestEnrollmentService_NotEnrolled(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := env.manager.Enrollment()

	_, err := svc.SetProgress(ctx, "u2", 10)
	assert.ErrorIs(t, err, ErrEnrollmentNotFound)
	_, err = svc.Current(ctx, "u2")
	assert.ErrorIs(t, err, ErrEnrollmentNotFound)
	assert.True(t, IsNotFound(err))
	assert.ErrorIs(t, svc.Remove(ctx, "u2"), ErrEnrollmentNotFound)
	assert.Empty(t, env.publisher.GetPublishedEvents())
}

func TestEnrollmentService_ListAndRemove(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := env.manager.Enrollment()

	_, err := svc.Reassign(ctx, "u4", "c1")
	require.NoError(t, err)

	rows, err := svc.ListByCourse(ctx, "c1")
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	require.NoError(t, svc.Remove(ctx, "u1"))
	rows, err = svc.ListByCourse(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "u4", rows[0].UserID)

	empty, err := svc.ListByCourse(ctx, "c404")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestEnrollmentService_CompleteModule(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := env.manager.Enrollment()

	got, err := svc.CompleteModule(ctx, "u1", "m1")
	require.NoError(t, err)
	assert.Equal(t, 50, got.Progress)
	first := got.Modules["m1"].CompletedAt
	require.NotNil(t, first)

	// completing twice keeps the original timestamp
	got, err = svc.CompleteModule(ctx, "u1", "m1")
	require.NoError(t, err)
	assert.Equal(t, *first, *got.Modules["m1"].CompletedAt)

	got, err = svc.CompleteModule(ctx, "u1", "m2")
	require.NoError(t, err)
	assert.Equal(t, 100, got.Progress)
	assert.Equal(t, 2, got.CompletedModules())

	_, err = svc.CompleteModule(ctx, "u1", "m404")
	assert.ErrorIs(t, err, ErrModuleNotFound)
	_, err = svc.CompleteModule(ctx, "u2", "m1")
	assert.ErrorIs(t, err, ErrEnrollmentNotFound)
}

func TestEnrollmentService_RecordQuizResultWrongCourse(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := env.manager.Enrollment()

	course, err := env.manager.Course().Create(ctx, &CourseRequest{
		Title:        "Accounting",
		Category:     "Business",
		InstructorID: "u2",
		Modules:      []models.Module{{Title: "Ledgers", VideoType: models.VideoURL, Quiz: makeQuiz(1)}},
	})
	require.NoError(t, err)

	_, err = svc.RecordQuizResult(ctx, "u1", course.ID, course.Modules[0].ID, QuizResult{Correct: 1, Total: 1, Score: 100, Passed: true})
	assert.True(t, IsBusinessRuleError(err))
}

func TestEnrollmentService_PublishesAfterWrite(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.manager.Enrollment().Reassign(ctx, "u1", "c1")
	require.NoError(t, err)

	published := env.publisher.GetPublishedEvents()
	require.Len(t, published, 1)
	assert.Equal(t, events.TopicEnrollmentsChanged, published[0].Type)
	assert.Equal(t, events.CollectionEnrollments, published[0].Data.Collection)
	assert.Equal(t, 1, published[0].Data.Count)
}
