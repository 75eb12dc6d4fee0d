package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const subscriberBuffer = 64

// Bus is the in-process publish/subscribe hub for store notifications.
// Each event goes to its typed topic and to TopicStoreChanged.
type Bus struct {
	pubSub    *gochannel.GoChannel
	forwarder message.Publisher
	logger    *slog.Logger
	closeOnce sync.Once
}

// BusOption customizes a Bus
type BusOption func(*Bus)

// WithForwarder copies every published event to an external publisher (for example Kafka).
func WithForwarder(p message.Publisher) BusOption {
	return func(b *Bus) {
		b.forwarder = p
	}
}

func NewBus(logger *slog.Logger, opts ...BusOption) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Bus{
		pubSub: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: subscriberBuffer,
		}, watermill.NewSlogLogger(logger)),
		logger: logger,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Bus) Publish(ctx context.Context, event *Event) error {
	if event == nil {
		return fmt.Errorf("event is required")
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	for _, topic := range []string{event.Type, TopicStoreChanged} {
		msg := message.NewMessage(watermill.NewUUID(), payload)
		msg.SetContext(ctx)
		if err := b.pubSub.Publish(topic, msg); err != nil {
			return fmt.Errorf("failed to publish to %s: %w", topic, err)
		}
	}

	if b.forwarder != nil {
		msg := message.NewMessage(event.ID, payload)
		msg.Metadata.Set("collection", event.Data.Collection)
		if err := b.forwarder.Publish(event.Type, msg); err != nil {
			// local observers already have the event
			b.logger.WarnContext(ctx, "Failed to forward event",
				"event_id", event.ID,
				"topic", event.Type,
				"error", err)
		}
	}

	b.logger.DebugContext(ctx, "Event published",
		"event_id", event.ID,
		"topic", event.Type,
		"collection", event.Data.Collection)
	return nil
}

// Subscribe merges the given topics into one channel. The channel closes once ctx is done
// or the bus is closed. Subscribing to both a typed topic and TopicStoreChanged
// delivers the same event twice.
func (b *Bus) Subscribe(ctx context.Context, topics ...string) (<-chan *Event, error) {
	if len(topics) == 0 {
		topics = []string{TopicStoreChanged}
	}

	out := make(chan *Event, subscriberBuffer)
	var wg sync.WaitGroup
	for _, topic := range topics {
		messages, err := b.pubSub.Subscribe(ctx, topic)
		if err != nil {
			return nil, fmt.Errorf("failed to subscribe to %s: %w", topic, err)
		}

		wg.Add(1)
		go func(topic string, messages <-chan *message.Message) {
			defer wg.Done()
			for msg := range messages {
				var event Event
				if err := json.Unmarshal(msg.Payload, &event); err != nil {
					b.logger.Error("Dropping undecodable event", "topic", topic, "error", err)
					msg.Ack()
					continue
				}
				msg.Ack()

				select {
				case out <- &event:
				case <-ctx.Done():
					return
				}
			}
		}(topic, messages)
	}

	go func() {
		wg.Wait()
		close(out)
	}()
	return out, nil
}

func (b *Bus) Close() error {
	var err error
	b.closeOnce.Do(func() {
		err = b.pubSub.Close()
		if b.forwarder != nil {
			if ferr := b.forwarder.Close(); ferr != nil && err == nil {
				err = ferr
			}
		}
	})
	return err
}
