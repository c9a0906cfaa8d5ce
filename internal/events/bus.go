// Package events is an in-process publish/subscribe bus for data changes.
package events

import (
	"sync"
	"time"
)

const (
	UserDataSaved = "user_data.saved"
	WaterAdded    = "water.added"
	WaterChanged  = "water.changed"
	MealAdded     = "meal.added"
	SleepAdded    = "sleep.added"
	ExerciseAdded = "exercise.added"
	RecordDeleted = "record.deleted"
	ReminderDue   = "reminder.due"
	SummarySaved  = "summary.saved"
)

// All subscribes to every topic.
const All = ""

type Event struct {
	Topic   string    `json:"topic"`
	Payload any       `json:"payload,omitempty"`
	At      time.Time `json:"at"`
}

type subscriber struct {
	topic string
	ch    chan Event
}

// Bus fans events out to subscribers. A subscriber whose buffer is full is
// removed and its channel closed; Publish never blocks.
type Bus struct {
	mu     sync.Mutex
	subs   map[*subscriber]struct{}
	buffer int
	now    func() time.Time
}

func NewBus(buffer int) *Bus {
	if buffer <= 0 {
		buffer = 16
	}
	return &Bus{subs: map[*subscriber]struct{}{}, buffer: buffer, now: time.Now}
}

// Subscribe returns a channel of events for topic (or All) and a function
// that unsubscribes. Calling the function more than once is safe.
func (b *Bus) Subscribe(topic string) (<-chan Event, func()) {
	sub := &subscriber{topic: topic, ch: make(chan Event, b.buffer)}
	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() {
			b.mu.Lock()
			b.removeLocked(sub)
			b.mu.Unlock()
		})
	}
}

func (b *Bus) Publish(topic string, payload any) {
	if b == nil {
		return
	}
	ev := Event{Topic: topic, Payload: payload, At: b.now()}
	b.mu.Lock()
	defer b.mu.Unlock()
	for sub := range b.subs {
		if sub.topic != All && sub.topic != topic {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			b.removeLocked(sub)
		}
	}
}

// Subscribers reports the current subscriber count.
func (b *Bus) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

func (b *Bus) removeLocked(sub *subscriber) {
	if _, ok := b.subs[sub]; !ok {
		return
	}
	delete(b.subs, sub)
	close(sub.ch)
}
