// Package events is the in-process bus that fans bulk apply progress out to
// interested views (the terminal editor's status line).
package events

import (
	"sync"
	"sync/atomic"
	"time"
)

// EventType defines the types of events that can be emitted
type EventType string

const (
	EventProgress   EventType = "progress"
	EventItemFailed EventType = "item_failed"
	EventComplete   EventType = "complete"
	EventLog        EventType = "log"
)

// Buffer bounds
const (
	DefaultBuffer = 256
	MaxBuffer     = 4096
)

// LogLevel defines log severity levels
type LogLevel int

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

func (l LogLevel) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Event is the base interface for all events
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent provides common event fields
type BaseEvent struct {
	EventType EventType
	Time      time.Time
}

func (e BaseEvent) Type() EventType      { return e.EventType }
func (e BaseEvent) Timestamp() time.Time { return e.Time }

// ProgressEvent reports how many items of a bulk apply are done.
type ProgressEvent struct {
	BaseEvent
	Completed int
	Total     int
	Message   string
}

// ItemFailedEvent reports one failed record.
type ItemFailedEvent struct {
	BaseEvent
	ID    string
	Class string // failure class, see http.ErrorTypeName
	Error error
}

// CompleteEvent is published once a bulk apply finishes.
type CompleteEvent struct {
	BaseEvent
	Total    int
	Failed   int
	Duration time.Duration
	Message  string
}

// LogEvent carries a user-facing status message.
type LogEvent struct {
	BaseEvent
	Level   LogLevel
	Message string
}

// EventBus manages event subscriptions and publishing
type EventBus struct {
	subscribers   map[EventType][]chan Event
	all           []chan Event // Subscribers to all events
	mu            sync.RWMutex
	bufferSize    int
	closed        bool
	droppedEvents atomic.Int64 // Count of dropped events due to full buffers
}

// NewEventBus creates a new event bus with specified buffer size
func NewEventBus(bufferSize int) *EventBus {
	if bufferSize <= 0 {
		bufferSize = DefaultBuffer
	}
	if bufferSize > MaxBuffer {
		bufferSize = MaxBuffer
	}
	return &EventBus{
		subscribers: make(map[EventType][]chan Event),
		all:         make([]chan Event, 0),
		bufferSize:  bufferSize,
	}
}

// Subscribe creates a subscription to a specific event type
func (eb *EventBus) Subscribe(eventType EventType) <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, eb.bufferSize)
	eb.subscribers[eventType] = append(eb.subscribers[eventType], ch)
	return ch
}

// SubscribeAll creates a subscription to all events
func (eb *EventBus) SubscribeAll() <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, eb.bufferSize)
	eb.all = append(eb.all, ch)
	return ch
}

// Publish sends an event to all subscribers. It never blocks: an event for a
// full subscriber is dropped and counted.
func (eb *EventBus) Publish(event Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if eb.closed {
		return
	}

	for _, ch := range eb.subscribers[event.Type()] {
		select {
		case ch <- event:
		default:
			eb.droppedEvents.Add(1)
		}
	}

	for _, ch := range eb.all {
		select {
		case ch <- event:
		default:
			eb.droppedEvents.Add(1)
		}
	}
}

// Close shuts down the event bus and closes all channels
func (eb *EventBus) Close() {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}

	eb.closed = true

	for _, channels := range eb.subscribers {
		for _, ch := range channels {
			close(ch)
		}
	}
	for _, ch := range eb.all {
		close(ch)
	}
}

// PublishProgress is a convenience method for publishing progress events
func (eb *EventBus) PublishProgress(completed, total int, message string) {
	eb.Publish(&ProgressEvent{
		BaseEvent: BaseEvent{EventType: EventProgress, Time: time.Now()},
		Completed: completed,
		Total:     total,
		Message:   message,
	})
}

// PublishItemFailed is a convenience method for publishing item failures
func (eb *EventBus) PublishItemFailed(id, class string, err error) {
	eb.Publish(&ItemFailedEvent{
		BaseEvent: BaseEvent{EventType: EventItemFailed, Time: time.Now()},
		ID:        id,
		Class:     class,
		Error:     err,
	})
}

// PublishComplete is a convenience method for publishing completion
func (eb *EventBus) PublishComplete(total, failed int, duration time.Duration, message string) {
	eb.Publish(&CompleteEvent{
		BaseEvent: BaseEvent{EventType: EventComplete, Time: time.Now()},
		Total:     total,
		Failed:    failed,
		Duration:  duration,
		Message:   message,
	})
}

// PublishLog is a convenience method for publishing log events
func (eb *EventBus) PublishLog(level LogLevel, message string) {
	eb.Publish(&LogEvent{
		BaseEvent: BaseEvent{EventType: EventLog, Time: time.Now()},
		Level:     level,
		Message:   message,
	})
}

// Unsubscribe removes a subscription to eventType and closes its channel, so
// a reader ranging over it returns.
func (eb *EventBus) Unsubscribe(eventType EventType, ch <-chan Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}

	var removed chan Event
	eb.subscribers[eventType], removed = without(eb.subscribers[eventType], ch)
	if removed != nil {
		close(removed)
	}
}

// UnsubscribeAll removes ch wherever it is subscribed and closes it.
func (eb *EventBus) UnsubscribeAll(ch <-chan Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}

	var found chan Event
	for eventType, subscribers := range eb.subscribers {
		var removed chan Event
		eb.subscribers[eventType], removed = without(subscribers, ch)
		if removed != nil {
			found = removed
		}
	}
	var removed chan Event
	eb.all, removed = without(eb.all, ch)
	if removed != nil {
		found = removed
	}
	if found != nil {
		close(found)
	}
}

// without removes ch from list (order is not kept) and returns it.
func without(list []chan Event, ch <-chan Event) ([]chan Event, chan Event) {
	for i, c := range list {
		if c == ch {
			list[i] = list[len(list)-1]
			return list[:len(list)-1], c
		}
	}
	return list, nil
}

// GetDroppedEventCount returns the total number of events dropped due to full buffers
func (eb *EventBus) GetDroppedEventCount() int64 {
	return eb.droppedEvents.Load()
}
