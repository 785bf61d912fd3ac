package testdoubles

import (
	"context"
	"sync"

	"github.com/AntonStoeckl/lending-registry-go/circulation"
)

// SubscriberSpy is a Subscriber that records the messages it receives.
// An optional OnNotify hook runs after each recorded message.
type SubscriberSpy struct {
	mu       sync.Mutex
	id       string
	messages []string
	OnNotify func(message string)
}

// NewSubscriberSpy creates a SubscriberSpy with the given id.
func NewSubscriberSpy(id string) *SubscriberSpy {
	return &SubscriberSpy{id: id}
}

// SubscriberID implements circulation.Subscriber.
func (s *SubscriberSpy) SubscriberID() string { return s.id }

// Notify implements circulation.Subscriber.
func (s *SubscriberSpy) Notify(message string) {
	s.mu.Lock()
	s.messages = append(s.messages, message)
	s.mu.Unlock()

	if s.OnNotify != nil {
		s.OnNotify(message)
	}
}

// Messages returns a copy of the received messages, oldest first.
func (s *SubscriberSpy) Messages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.messages...)
}

// JournalSpy is a Journal that records events, or fails with Err when it is set.
type JournalSpy struct {
	mu     sync.Mutex
	events circulation.DomainEvents
	err    error
}

// NewJournalSpy creates a JournalSpy that accepts every event.
func NewJournalSpy() *JournalSpy {
	return &JournalSpy{}
}

// NewFailingJournalSpy creates a JournalSpy that rejects every event with err.
func NewFailingJournalSpy(err error) *JournalSpy {
	return &JournalSpy{err: err}
}

// Record implements circulation.Journal.
func (j *JournalSpy) Record(_ context.Context, event circulation.DomainEvent) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.err != nil {
		return j.err
	}

	j.events = append(j.events, event)

	return nil
}

// Events returns a copy of the recorded events in order.
func (j *JournalSpy) Events() circulation.DomainEvents {
	j.mu.Lock()
	defer j.mu.Unlock()

	return append(circulation.DomainEvents(nil), j.events...)
}

// EventTypes returns the types of the recorded events in order.
func (j *JournalSpy) EventTypes() []string {
	j.mu.Lock()
	defer j.mu.Unlock()

	types := make([]string, 0, len(j.events))
	for _, e := range j.events {
		types = append(types, e.EventType())
	}

	return types
}

var (
	_ circulation.Subscriber = (*SubscriberSpy)(nil)
	_ circulation.Journal    = (*JournalSpy)(nil)
)
