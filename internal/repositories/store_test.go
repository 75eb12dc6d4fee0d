package repositories

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/lms-store/internal/events"
	"github.com/SAP-F-2025/lms-store/internal/models"
	"github.com/SAP-F-2025/lms-store/internal/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestStore(t *testing.T) (*Store, *storage.MemoryBackend, *events.MockEventPublisher) {
	t.Helper()
	backend := storage.NewMemoryBackend()
	publisher := events.NewMockEventPublisher(testLogger())
	store, err := NewStore(StoreConfig{
		Backend:   backend,
		Publisher: publisher,
		Logger:    testLogger(),
	})
	require.NoError(t, err)
	return store, backend, publisher
}

func TestCollection_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newTestStore(t)

	users := []models.User{
		{ID: "u9", Name: "Traoré", FirstName: "Awa", Email: "awa@akwaba.ci", Role: models.RoleEditor,
			CreatedAt: time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)},
		{ID: "u1", Name: "Bakayoko", FirstName: "Jean-Marc", Email: "jm@akwaba.ci", Role: models.RoleStudent,
			Phone: "+2250700000000", CreatedAt: time.Date(2024, 9, 2, 8, 0, 0, 0, time.UTC)},
	}
	require.NoError(t, store.Users().Save(ctx, users))

	got, err := store.Users().Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, users, got)
}

func TestCollection_SeedFallback(t *testing.T) {
	ctx := context.Background()
	store, _, publisher := newTestStore(t)

	users, err := store.Users().Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.SeedUsers(), users)

	courses, err := store.Courses().Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.SeedCourses(), courses)

	messages, err := store.Messages().Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, messages)

	assert.Empty(t, publisher.GetPublishedEvents(), "reads must not publish")
}

func TestCollection_Corruption(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		payload string
	}{
		{name: "garbage", payload: "{not json"},
		{name: "empty", payload: ""},
		{name: "scalar", payload: "42"},
		{name: "wrong item shape", payload: `{"version":1,"items":[{"progress":"high"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, backend, publisher := newTestStore(t)
			key := store.Enrollments().Key()
			require.NoError(t, backend.Store(ctx, key, []byte(tt.payload)))

			got, err := store.Enrollments().Get(ctx)
			require.Error(t, err)
			assert.True(t, IsCorruptionError(err))
			assert.Equal(t, models.SeedEnrollments(), got)

			extra := models.Enrollment{UserID: "u4", CourseID: "c1", Progress: 10}
			require.NoError(t, store.Enrollments().Update(ctx, func(items []models.Enrollment) ([]models.Enrollment, error) {
				assert.Equal(t, models.SeedEnrollments(), items)
				return append(items, extra), nil
			}))

			got, err = store.Enrollments().Get(ctx)
			require.NoError(t, err)
			assert.Equal(t, append(models.SeedEnrollments(), extra), got)
			assert.Len(t, publisher.GetPublishedEvents(), 1)
		})
	}
}

func TestCollection_FutureVersionIsKept(t *testing.T) {
	ctx := context.Background()
	store, backend, publisher := newTestStore(t)
	payload := `{"version":7,"items":[]}`
	key := store.Enrollments().Key()
	require.NoError(t, backend.Store(ctx, key, []byte(payload)))

	got, err := store.Enrollments().Get(ctx)
	assert.True(t, IsCorruptionError(err))
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
	assert.Equal(t, models.SeedEnrollments(), got)

	err = store.Enrollments().Update(ctx, func(items []models.Enrollment) ([]models.Enrollment, error) {
		return nil, nil
	})
	assert.True(t, IsCorruptionError(err))
	assert.ErrorIs(t, err, ErrUnsupportedVersion)

	raw, err := backend.Load(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, payload, string(raw), "content from a newer schema must not be overwritten")
	assert.Empty(t, publisher.GetPublishedEvents())
}

func TestCollection_LegacyUsersMigrated(t *testing.T) {
	ctx := context.Background()
	store, backend, _ := newTestStore(t)

	legacy := `[
		{"id":"u1","name":"Bakayoko","firstName":"Jean-Marc","email":"jm@akwaba.ci","role":"Étudiant","avatar":"a"},
		{"id":"u2","name":"Konan","firstName":"Amani","email":"amani@akwaba.ci","role":"Formateur","avatar":"b"},
		{"id":"u3","name":"Admin","firstName":"Akwaba","email":"admin@akwaba.ci","role":"Administrateur","avatar":"c"},
		{"id":"u4","name":"Ouattara","firstName":"Sali","email":"sali@akwaba.ci","role":"Éditeur","avatar":"d"}
	]`
	require.NoError(t, backend.Store(ctx, store.Users().Key(), []byte(legacy)))

	users, err := store.Users().Get(ctx)
	require.NoError(t, err)
	require.Len(t, users, 4)
	assert.Equal(t, models.RoleStudent, users[0].Role)
	assert.Equal(t, models.RoleInstructor, users[1].Role)
	assert.Equal(t, models.RoleAdmin, users[2].Role)
	assert.Equal(t, models.RoleEditor, users[3].Role)
	assert.Equal(t, "Jean-Marc", users[0].FirstName)

	// the next write upgrades the layout
	require.NoError(t, store.Users().Update(ctx, func(items []models.User) ([]models.User, error) {
		return items, nil
	}))
	raw, err := backend.Load(ctx, store.Users().Key())
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"version":1`)
	assert.Contains(t, string(raw), `"role":"instructor"`)
}

func TestCollection_LegacyUnknownRole(t *testing.T) {
	ctx := context.Background()
	store, backend, _ := newTestStore(t)

	require.NoError(t, backend.Store(ctx, store.Users().Key(), []byte(`[{"id":"u1","role":"Stagiaire"}]`)))

	_, err := store.Users().Get(ctx)
	assert.True(t, IsCorruptionError(err))
	assert.ErrorIs(t, err, models.ErrUnknownRole)
}

// orderCheckingPublisher loads the key at publish time to prove the write happened first.
type orderCheckingPublisher struct {
	backend storage.Backend
	seen    []string
}

func (p *orderCheckingPublisher) Publish(ctx context.Context, event *events.Event) error {
	raw, err := p.backend.Load(ctx, event.Data.Key)
	if err != nil {
		return err
	}
	p.seen = append(p.seen, string(raw))
	return nil
}

func (p *orderCheckingPublisher) Close() error { return nil }

func TestCollection_NotifiesAfterWrite(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryBackend()
	publisher := &orderCheckingPublisher{backend: backend}
	store, err := NewStore(StoreConfig{Backend: backend, Publisher: publisher, Logger: testLogger()})
	require.NoError(t, err)

	msg := models.ChatMessage{ID: "msg-1", FromID: "u1", ToID: models.GlobalChannelID, Text: "Bonjour"}
	require.NoError(t, store.Messages().Save(ctx, []models.ChatMessage{msg}))

	require.Len(t, publisher.seen, 1)
	assert.Contains(t, publisher.seen[0], "Bonjour")
}

func TestCollection_PublishEvents(t *testing.T) {
	ctx := context.Background()
	store, _, publisher := newTestStore(t)

	require.NoError(t, store.Courses().Save(ctx, models.SeedCourses()))
	require.NoError(t, store.Enrollments().Update(ctx, func(items []models.Enrollment) ([]models.Enrollment, error) {
		return append(items, models.Enrollment{UserID: "u9", CourseID: "c1"}), nil
	}))

	published := publisher.GetPublishedEvents()
	require.Len(t, published, 2)
	assert.Equal(t, events.TopicCoursesChanged, published[0].Type)
	assert.Equal(t, events.TopicEnrollmentsChanged, published[1].Type)
	assert.Equal(t, 2, published[1].Data.Count)
	assert.Equal(t, DefaultKeyPrefix+"enrollments", published[1].Data.Key)
}

func TestCollection_PublishFailureDoesNotFailWrite(t *testing.T) {
	ctx := context.Background()
	store, _, publisher := newTestStore(t)
	publisher.FailWith(errors.New("bus down"))

	require.NoError(t, store.Messages().Save(ctx, nil))
	got, err := store.Messages().Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCollection_UpdateNoChange(t *testing.T) {
	ctx := context.Background()
	store, backend, publisher := newTestStore(t)

	err := store.Users().Update(ctx, func(items []models.User) ([]models.User, error) {
		return nil, ErrNoChange
	})
	require.NoError(t, err)

	_, err = backend.Load(ctx, store.Users().Key())
	assert.True(t, storage.IsNotFound(err))
	assert.Empty(t, publisher.GetPublishedEvents())
}

func TestCollection_UpdateConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newTestStore(t)
	require.NoError(t, store.Messages().Save(ctx, nil))

	const senders = 25
	var wg sync.WaitGroup
	for i := 0; i < senders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := store.Messages().Update(ctx, func(items []models.ChatMessage) ([]models.ChatMessage, error) {
				return append(items, models.ChatMessage{
					ID:     fmt.Sprintf("msg-%d", i),
					FromID: "u1",
					ToID:   models.GlobalChannelID,
					Text:   "hello",
				}), nil
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	got, err := store.Messages().Get(ctx)
	require.NoError(t, err)
	assert.Len(t, got, senders)
}

func TestStore_InitIdempotent(t *testing.T) {
	ctx := context.Background()
	store, _, publisher := newTestStore(t)

	custom := []models.User{{ID: "u42", Email: "solo@akwaba.ci", Role: models.RoleAdmin}}
	require.NoError(t, store.Users().Save(ctx, custom))
	publisher.ClearEvents()

	require.NoError(t, store.Init(ctx))
	assert.Len(t, publisher.GetPublishedEvents(), 3, "only the absent collections are seeded")

	users, err := store.Users().Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, custom, users, "existing data is kept")

	publisher.ClearEvents()
	require.NoError(t, store.Init(ctx))
	assert.Empty(t, publisher.GetPublishedEvents())

	seeded, err := store.Courses().Init(ctx)
	require.NoError(t, err)
	assert.False(t, seeded)
}

func TestNewStore_RequiresBackend(t *testing.T) {
	_, err := NewStore(StoreConfig{})
	assert.Error(t, err)
}

func TestNewStore_KeyPrefix(t *testing.T) {
	store, err := NewStore(StoreConfig{Backend: storage.NewMemoryBackend(), KeyPrefix: "test_"})
	require.NoError(t, err)
	assert.Equal(t, "test_users", store.Users().Key())
	assert.Equal(t, "test_messages", store.Messages().Key())
}
