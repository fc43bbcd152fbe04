package server

import (
	"context"
	"sync"
	"time"
)

// Event types pushed over the notice stream. Toasts mirror what the
// controller would surface in a client shell; heartbeats keep proxies from
// closing idle streams.
const (
	NoticeEventSuccess   = "toast-success"
	NoticeEventFailure   = "toast-failure"
	noticeEventHeartbeat = "heartbeat"
)

// Notice is one user-scoped event on the stream.
type Notice struct {
	UserID    string
	EventType string
	Message   string
	Timestamp time.Time
}

// NoticeDispatcher fans user-scoped notices out to every open stream for
// that user. Slow subscribers drop messages rather than block publishers.
type NoticeDispatcher struct {
	mu          sync.RWMutex
	subscribers map[string]map[int64]*noticeSubscriber
	nextID      int64
	bufferSize  int
}

type noticeSubscriber struct {
	id     int64
	stream chan Notice
}

func NewNoticeDispatcher() *NoticeDispatcher {
	return &NoticeDispatcher{
		subscribers: make(map[string]map[int64]*noticeSubscriber),
		bufferSize:  16,
	}
}

// Subscribe registers a stream for the user. The stream is torn down when
// the context ends or the returned cleanup runs.
func (d *NoticeDispatcher) Subscribe(ctx context.Context, userID string) (<-chan Notice, func()) {
	if userID == "" {
		ch := make(chan Notice)
		close(ch)
		return ch, func() {}
	}
	subscriber := &noticeSubscriber{
		id:     d.nextSequence(),
		stream: make(chan Notice, d.bufferSize),
	}
	d.registerSubscriber(userID, subscriber)
	cleanup := func() {
		d.unregisterSubscriber(userID, subscriber.id)
	}
	go func() {
		<-ctx.Done()
		cleanup()
	}()
	return subscriber.stream, cleanup
}

// Publish delivers the notice to every live stream of its user.
func (d *NoticeDispatcher) Publish(notice Notice) {
	if notice.UserID == "" || notice.EventType == "" {
		return
	}
	d.mu.RLock()
	subscribers := d.subscribers[notice.UserID]
	if len(subscribers) == 0 {
		d.mu.RUnlock()
		return
	}
	copies := make([]*noticeSubscriber, 0, len(subscribers))
	for _, subscriber := range subscribers {
		copies = append(copies, subscriber)
	}
	d.mu.RUnlock()
	for _, subscriber := range copies {
		select {
		case subscriber.stream <- notice:
		default:
		}
	}
}

func (d *NoticeDispatcher) nextSequence() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	return d.nextID
}

func (d *NoticeDispatcher) registerSubscriber(userID string, subscriber *noticeSubscriber) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.subscribers[userID]; !ok {
		d.subscribers[userID] = make(map[int64]*noticeSubscriber)
	}
	d.subscribers[userID][subscriber.id] = subscriber
}

func (d *NoticeDispatcher) unregisterSubscriber(userID string, subscriberID int64) {
	d.mu.Lock()
	subscribers := d.subscribers[userID]
	if subscribers != nil {
		delete(subscribers, subscriberID)
		if len(subscribers) == 0 {
			delete(d.subscribers, userID)
		}
	}
	d.mu.Unlock()
}

// noticeNotifier adapts the dispatcher to the controller's toast contract.
type noticeNotifier struct {
	dispatcher *NoticeDispatcher
	userID     string
	clock      func() time.Time
}

func (n *noticeNotifier) Success(message string) {
	n.publish(NoticeEventSuccess, message)
}

func (n *noticeNotifier) Failure(message string) {
	n.publish(NoticeEventFailure, message)
}

func (n *noticeNotifier) publish(eventType, message string) {
	n.dispatcher.Publish(Notice{
		UserID:    n.userID,
		EventType: eventType,
		Message:   message,
		Timestamp: n.clock(),
	})
}
