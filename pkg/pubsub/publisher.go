package pubsub

import (
	"context"
	"fmt"
	"strings"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"

	"github.com/stickerlandia/print-service/pkg/enums"
)

// EventPublisher routes integration events to the topic owning their prefix.
// Each publish is bounded by the configured timeout so a broker stall cannot
// wedge the outbox pass.
type EventPublisher struct {
	client  *Client
	timeout time.Duration
}

func NewEventPublisher(client *Client, timeout time.Duration) *EventPublisher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &EventPublisher{client: client, timeout: timeout}
}

// Publish sends the event to its topic and blocks until the broker acks.
func (p *EventPublisher) Publish(ctx context.Context, eventType enums.EventType, data []byte, attributes map[string]string) error {
	publisher, err := p.publisherFor(eventType)
	if err != nil {
		return err
	}

	attrs := map[string]string{"eventType": eventType.String()}
	for k, v := range attributes {
		attrs[k] = v
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	result := publisher.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: attrs,
	})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publishing %s: %w", eventType, err)
	}
	return nil
}

func (p *EventPublisher) publisherFor(eventType enums.EventType) (*pubsub.Publisher, error) {
	name := eventType.String()
	switch {
	case strings.HasPrefix(name, "printers."):
		if pub := p.client.PrintersPublisher(); pub != nil {
			return pub, nil
		}
	case strings.HasPrefix(name, "printJobs."):
		if pub := p.client.PrintJobsPublisher(); pub != nil {
			return pub, nil
		}
	default:
		return nil, fmt.Errorf("no topic for event type %q", name)
	}
	return nil, fmt.Errorf("topic for event type %q not configured", name)
}
