package events

import (
	"sync"
)

// Snapshot is the payload pushed to subscribers: the current state of a
// query result after a mutation, not a delta.
type Snapshot struct {
	Topic   string
	Payload interface{}
}

// BadgeTopic names the per-user unread-badge stream.
func BadgeTopic(userID string) string {
	return "badge:" + userID
}

type subscriber struct {
	ch chan Snapshot
}

// Hub is an in-process snapshot-subscription broker. Callers register
// interest in a topic and receive a stream of snapshots; unsubscribing is
// explicit and tied to the caller's lifecycle, so tests and handlers cannot
// leak listeners. Publish never blocks: a subscriber that has not drained
// its previous snapshot gets the newer one instead — intermediate states
// may be skipped, the latest always arrives.
type Hub struct {
	mu     sync.Mutex
	topics map[string]map[*subscriber]struct{}
}

func NewHub() *Hub {
	return &Hub{topics: make(map[string]map[*subscriber]struct{})}
}

// Subscribe registers interest in a topic. The returned cancel function
// removes the subscription and closes the channel; it is safe to call more
// than once.
func (h *Hub) Subscribe(topic string) (<-chan Snapshot, func()) {
	sub := &subscriber{ch: make(chan Snapshot, 1)}

	h.mu.Lock()
	subs, ok := h.topics[topic]
	if !ok {
		subs = make(map[*subscriber]struct{})
		h.topics[topic] = subs
	}
	subs[sub] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			if subs, ok := h.topics[topic]; ok {
				delete(subs, sub)
				if len(subs) == 0 {
					delete(h.topics, topic)
				}
			}
			h.mu.Unlock()
			close(sub.ch)
		})
	}
	return sub.ch, cancel
}

// Publish fans a snapshot out to current subscribers of the topic.
func (h *Hub) Publish(topic string, payload interface{}) {
	snap := Snapshot{Topic: topic, Payload: payload}

	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.topics[topic] {
		// Replace a stale undelivered snapshot with the fresh one.
		select {
		case sub.ch <- snap:
		default:
			select {
			case <-sub.ch:
			default:
			}
			select {
			case sub.ch <- snap:
			default:
			}
		}
	}
}
