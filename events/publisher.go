// Package events publishes authentication lifecycle events so the rest of
// the application (toasts, audit, cache invalidation) can react without
// coupling to the session store.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

const topic = "venus.auth"

// Event kinds published on the auth topic.
const (
	KindSignedIn  = "signed-in"
	KindSignedOut = "signed-out"
)

// Event is the payload carried on the auth topic.
type Event struct {
	Kind   string    `json:"kind"`
	UserID string    `json:"user_id,omitempty"`
	Handle string    `json:"handle,omitempty"`
	At     time.Time `json:"at"`
}

// Publisher publishes auth lifecycle events.
type Publisher interface {
	PublishSignedIn(userID, handle string) error
	PublishSignedOut(userID string) error
}

// WatermillPublisher implements Publisher on a watermill message publisher.
type WatermillPublisher struct {
	publisher message.Publisher
	nowTime   func() time.Time
}

// NewWatermillPublisher creates a new watermill-backed publisher
func NewWatermillPublisher(publisher message.Publisher) *WatermillPublisher {
	return &WatermillPublisher{
		publisher: publisher,
		nowTime:   time.Now,
	}
}

// PublishSignedIn publishes a signed-in event
func (p *WatermillPublisher) PublishSignedIn(userID, handle string) error {
	return p.publish(Event{Kind: KindSignedIn, UserID: userID, Handle: handle, At: p.nowTime()})
}

// PublishSignedOut publishes a signed-out event
func (p *WatermillPublisher) PublishSignedOut(userID string) error {
	return p.publish(Event{Kind: KindSignedOut, UserID: userID, At: p.nowTime()})
}

func (p *WatermillPublisher) publish(event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(uuid.NewString(), payload)
	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Topic returns the topic auth events are published on, for subscribers.
func Topic() string {
	return topic
}
