package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/lms-store/internal/models"
)

func TestIntegrityService_SeedIsClean(t *testing.T) {
	env := newTestEnv(t)

	report, err := env.manager.Integrity().Check(context.Background())
	require.NoError(t, err)
	assert.True(t, report.OK(), "issues: %v", report.Issues)
	assert.False(t, report.CheckedAt.IsZero())
}

func TestIntegrityService_Check(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	require.NoError(t, env.store.Users().Save(ctx, []models.User{
		{ID: "u1", FirstName: "Jean", Email: "jean@akwaba.ci", Role: models.RoleStudent},
		{ID: "u2", FirstName: "Amani", Email: "amani@akwaba.ci", Role: models.RoleInstructor},
		{ID: "u5", FirstName: "Jean", Email: " JEAN@akwaba.ci", Role: models.RoleStudent},
	}))
	require.NoError(t, env.store.Courses().Save(ctx, []models.Course{
		{ID: "c1", Title: "Owned", InstructorID: "u2"},
		{ID: "c2", Title: "Student owned", InstructorID: "u1"},
		{ID: "c3", Title: "Orphan", InstructorID: "u9"},
	}))
	require.NoError(t, env.store.Enrollments().Save(ctx, []models.Enrollment{
		{UserID: "u1", CourseID: "c1"},
		{UserID: "u1", CourseID: "c2"},
		{UserID: "u5", CourseID: "c404"},
		{UserID: "u8", CourseID: "c1"},
	}))
	require.NoError(t, env.store.Messages().Save(ctx, []models.ChatMessage{
		{ID: "m1", FromID: "u1", ToID: models.GlobalChannelID, Text: "hi"},
		{ID: "m2", FromID: "u9", ToID: models.GlobalChannelID, Text: "ghost broadcast"},
		{ID: "m3", FromID: "u1", ToID: "u2", Text: "direct"},
		{ID: "m4", FromID: "u9", ToID: "u2", Text: "ghost direct"},
	}))

	report, err := env.manager.Integrity().Check(ctx)
	require.NoError(t, err)
	assert.False(t, report.OK())

	byKind := make(map[IntegrityIssueKind][]IntegrityIssue)
	for _, issue := range report.Issues {
		byKind[issue.Kind] = append(byKind[issue.Kind], issue)
	}

	require.Len(t, byKind[IssueDuplicateEmail], 1)
	assert.Equal(t, "u5", byKind[IssueDuplicateEmail][0].RecordID)

	require.Len(t, byKind[IssueInstructorNotStaff], 1)
	assert.Equal(t, "c2", byKind[IssueInstructorNotStaff][0].RecordID)

	require.Len(t, byKind[IssueMissingInstructor], 1)
	assert.Equal(t, "c3", byKind[IssueMissingInstructor][0].RecordID)

	require.Len(t, byKind[IssueDuplicateEnrollment], 1)
	assert.Equal(t, "u1", byKind[IssueDuplicateEnrollment][0].RecordID)

	dangling := byKind[IssueDanglingEnrollment]
	require.Len(t, dangling, 2)
	assert.ElementsMatch(t, []string{"u5", "u8"}, []string{dangling[0].RecordID, dangling[1].RecordID})

	// broadcasts from removed users are not orphans
	require.Len(t, byKind[IssueOrphanedMessage], 1)
	assert.Equal(t, "m4", byKind[IssueOrphanedMessage][0].RecordID)

	assert.Len(t, report.Issues, 7)
}

func TestIntegrityService_CorruptCollectionUsesSeed(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	require.NoError(t, env.backend.Store(ctx, env.store.Users().Key(), []byte("{not json")))

	report, err := env.manager.Integrity().Check(ctx)
	require.NoError(t, err)
	assert.True(t, report.OK())
}
