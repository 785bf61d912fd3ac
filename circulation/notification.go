package circulation

import (
	"slices"
	"sync"
)

// Subscriber receives broadcast text messages. Subscribers are distinct by SubscriberID.
type Subscriber interface {
	SubscriberID() string
	Notify(message string)
}

// Channel is a subscriber registry with synchronous fan-out.
//
// Broadcast iterates a snapshot of the subscriber list, so subscribers added or removed
// while a broadcast is running do not affect that broadcast and cannot deadlock it.
type Channel struct {
	mu          sync.RWMutex
	subscribers []Subscriber
}

// NewChannel creates an empty Channel.
func NewChannel() *Channel {
	return &Channel{}
}

// Subscribe adds s unless a subscriber with the same id is already present.
// It reports whether s was added.
func (c *Channel) Subscribe(s Subscriber) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.indexOf(s.SubscriberID()) >= 0 {
		return false
	}

	c.subscribers = append(c.subscribers, s)

	return true
}

// Replace puts s in the slot of the subscriber with the same id, keeping its position in the
// broadcast order. Without such a subscriber, s is appended. It reports whether a subscriber was replaced.
func (c *Channel) Replace(s Subscriber) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i := c.indexOf(s.SubscriberID()); i >= 0 {
		c.subscribers[i] = s
		return true
	}

	c.subscribers = append(c.subscribers, s)

	return false
}

// Unsubscribe removes the subscriber with s's id. It reports whether one was removed.
func (c *Channel) Unsubscribe(s Subscriber) bool {
	return c.UnsubscribeID(s.SubscriberID())
}

// UnsubscribeID removes the subscriber with the given id. It reports whether one was removed.
func (c *Channel) UnsubscribeID(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(id)
	if i < 0 {
		return false
	}

	c.subscribers = slices.Delete(c.subscribers, i, i+1)

	return true
}

// IsSubscribed reports whether a subscriber with the given id is present.
func (c *Channel) IsSubscribed(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.indexOf(id) >= 0
}

// Len returns the number of subscribers.
func (c *Channel) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.subscribers)
}

// Broadcast delivers message to every current subscriber in subscription order
// and returns the number of subscribers reached.
func (c *Channel) Broadcast(message string) int {
	c.mu.RLock()
	recipients := slices.Clone(c.subscribers)
	c.mu.RUnlock()

	for _, s := range recipients {
		s.Notify(message)
	}

	return len(recipients)
}

func (c *Channel) indexOf(id string) int {
	return slices.IndexFunc(c.subscribers, func(s Subscriber) bool {
		return s.SubscriberID() == id
	})
}
