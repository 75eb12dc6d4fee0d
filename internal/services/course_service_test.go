package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/lms-store/internal/models"
	"github.com/SAP-F-2025/lms-store/internal/validator"
)

func validCourseRequest(instructorID string) *CourseRequest {
	return &CourseRequest{
		Title:        "Mobile Money Basics",
		Category:     "Finance",
		InstructorID: instructorID,
		Description:  "Accepting payments with mobile wallets.",
		Modules: []models.Module{
			{Title: "Opening an account", VideoType: models.VideoURL, VideoURL: "https://www.youtube.com/embed/x"},
			{Title: "Collecting payments", VideoType: models.VideoFile, Quiz: makeQuiz(3)},
		},
	}
}

func TestCourseService_Create(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	courses := env.manager.Course()

	course, err := courses.Create(ctx, validCourseRequest("u4"))
	require.NoError(t, err)
	assert.NotEmpty(t, course.ID)
	require.Len(t, course.Modules, 2)
	for _, m := range course.Modules {
		assert.NotEmpty(t, m.ID)
	}
	assert.Len(t, course.Modules[1].Quiz, 3)

	stored, err := courses.Get(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, course.Title, stored.Title)
	assert.Equal(t, course.Modules[1].ID, stored.Modules[1].ID)
}

func TestCourseService_CreateRejects(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	courses := env.manager.Course()

	_, err := courses.Create(ctx, validCourseRequest("u1"))
	assert.True(t, IsBusinessRuleError(err), "students cannot own courses")

	_, err = courses.Create(ctx, validCourseRequest("ghost"))
	assert.True(t, IsValidationError(err))

	req := validCourseRequest("u2")
	req.Title = ""
	_, err = courses.Create(ctx, req)
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.True(t, verrs.HasField("title"))

	req = validCourseRequest("u2")
	req.Modules[1].Quiz[0].CorrectIndex = 5
	_, err = courses.Create(ctx, req)
	require.ErrorAs(t, err, &verrs)
	assert.True(t, verrs.HasField("modules[1].quiz[0].correctIndex"))

	list, err := courses.List(ctx, CourseFilter{IncludeDrafts: true})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCourseService_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	courses := env.manager.Course()

	req := validCourseRequest("u2")
	req.Title = "Digital Marketing, second edition"
	req.Modules = []models.Module{{ID: "m1", Title: "Introduction to the Web", VideoType: models.VideoFile}}
	updated, err := courses.Update(ctx, "c1", req)
	require.NoError(t, err)
	assert.Equal(t, "Digital Marketing, second edition", updated.Title)
	require.Len(t, updated.Modules, 1)
	assert.Equal(t, "m1", updated.Modules[0].ID)

	_, err = courses.Update(ctx, "c404", req)
	assert.ErrorIs(t, err, ErrCourseNotFound)

	require.NoError(t, courses.Delete(ctx, "c1"))
	assert.ErrorIs(t, courses.Delete(ctx, "c1"), ErrCourseNotFound)

	// enrollments are not cascaded
	current, err := env.manager.Enrollment().Current(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "c1", current.CourseID)
}

func TestCourseService_ListFilters(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	courses := env.manager.Course()

	draft := validCourseRequest("u4")
	draft.IsDraft = true
	_, err := courses.Create(ctx, draft)
	require.NoError(t, err)

	published, err := courses.List(ctx, CourseFilter{})
	require.NoError(t, err)
	require.Len(t, published, 1)
	assert.Equal(t, "c1", published[0].ID)

	mine, err := courses.List(ctx, CourseFilter{InstructorID: "u4", IncludeDrafts: true})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.True(t, mine[0].IsDraft)
}

func TestCourseService_ModulesAndQuiz(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	courses := env.manager.Course()

	module, err := courses.AddModule(ctx, "c1", &ModuleRequest{Title: "Payments", VideoType: models.VideoURL})
	require.NoError(t, err)
	assert.NotEmpty(t, module.ID)

	_, err = courses.AddModule(ctx, "c1", &ModuleRequest{Title: "Broken", VideoType: "vhs"})
	assert.True(t, IsValidationError(err))
	_, err = courses.AddModule(ctx, "c404", &ModuleRequest{Title: "Lost", VideoType: models.VideoURL})
	assert.ErrorIs(t, err, ErrCourseNotFound)

	withQuiz, err := courses.SetQuiz(ctx, "c1", module.ID, &QuizRequest{Questions: makeQuiz(2)})
	require.NoError(t, err)
	assert.True(t, withQuiz.HasQuiz())

	cleared, err := courses.SetQuiz(ctx, "c1", module.ID, &QuizRequest{})
	require.NoError(t, err)
	assert.False(t, cleared.HasQuiz())

	_, err = courses.SetQuiz(ctx, "c1", "m404", &QuizRequest{})
	assert.ErrorIs(t, err, ErrModuleNotFound)

	course, err := courses.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Len(t, course.Modules, 3)
}
