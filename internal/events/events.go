package events

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	// EventSource identifies this store in published events
	EventSource  = "lms-store"
	EventVersion = "1.0"
)

// Topics
const (
	// TopicStoreChanged receives every write, whatever the collection.
	TopicStoreChanged = "store.changed"

	TopicUsersChanged       = "store.users.changed"
	TopicCoursesChanged     = "store.courses.changed"
	TopicEnrollmentsChanged = "store.enrollments.changed"
	TopicMessagesChanged    = "store.messages.changed"
)

// Collection names as carried in CollectionChanged.
const (
	CollectionUsers       = "users"
	CollectionCourses     = "courses"
	CollectionEnrollments = "enrollments"
	CollectionMessages    = "messages"
)

// Event is the envelope of every published notification.
type Event struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	Source    string            `json:"source"`
	Version   string            `json:"version"`
	Timestamp time.Time         `json:"timestamp"`
	Data      CollectionChanged `json:"data"`
}

// CollectionChanged describes a completed collection write.
type CollectionChanged struct {
	Collection string `json:"collection"`
	Key        string `json:"key"`
	Count      int    `json:"count"`
}

// EventPublisher announces store writes. Implementations must not block on slow observers.
type EventPublisher interface {
	Publish(ctx context.Context, event *Event) error
	Close() error
}

// EventSubscriber delivers events for the given topics until ctx is cancelled.
type EventSubscriber interface {
	Subscribe(ctx context.Context, topics ...string) (<-chan *Event, error)
}

// TopicFor returns the typed topic of a collection.
func TopicFor(collection string) (string, error) {
	switch collection {
	case CollectionUsers:
		return TopicUsersChanged, nil
	case CollectionCourses:
		return TopicCoursesChanged, nil
	case CollectionEnrollments:
		return TopicEnrollmentsChanged, nil
	case CollectionMessages:
		return TopicMessagesChanged, nil
	default:
		return "", fmt.Errorf("unknown collection %q", collection)
	}
}

// NewCollectionChangedEvent builds the event announcing a write of collection.
func NewCollectionChangedEvent(collection, key string, count int) (*Event, error) {
	topic, err := TopicFor(collection)
	if err != nil {
		return nil, err
	}
	return &Event{
		ID:        uuid.NewString(),
		Type:      topic,
		Source:    EventSource,
		Version:   EventVersion,
		Timestamp: time.Now().UTC(),
		Data: CollectionChanged{
			Collection: collection,
			Key:        key,
			Count:      count,
		},
	}, nil
}
