package server

import (
	"context"
	"testing"
	"time"
)

func TestNoticeDispatcherPublishesToSubscriber(t *testing.T) {
	dispatcher := NewNoticeDispatcher()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream, cleanup := dispatcher.Subscribe(ctx, "user-1")
	defer cleanup()

	dispatcher.Publish(Notice{
		UserID:    "user-1",
		EventType: NoticeEventSuccess,
		Message:   "Basil added to your garden.",
		Timestamp: time.Now().UTC(),
	})

	select {
	case received := <-stream:
		if received.EventType != NoticeEventSuccess {
			t.Fatalf("expected event type %s, got %s", NoticeEventSuccess, received.EventType)
		}
		if received.Message != "Basil added to your garden." {
			t.Fatalf("unexpected message %q", received.Message)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected notice within deadline")
	}
}

func TestNoticeDispatcherIsolatedByUser(t *testing.T) {
	dispatcher := NewNoticeDispatcher()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	otherCtx, otherCancel := context.WithCancel(context.Background())
	defer otherCancel()

	userStream, cleanup := dispatcher.Subscribe(ctx, "user-2")
	defer cleanup()

	otherStream, otherCleanup := dispatcher.Subscribe(otherCtx, "user-3")
	defer otherCleanup()

	dispatcher.Publish(Notice{
		UserID:    "user-3",
		EventType: NoticeEventFailure,
		Message:   "The plant could not be saved.",
		Timestamp: time.Now().UTC(),
	})

	select {
	case <-userStream:
		t.Fatal("did not expect a notice for an unrelated user")
	case <-time.After(200 * time.Millisecond):
	}

	select {
	case notice := <-otherStream:
		if notice.UserID != "user-3" {
			t.Fatalf("expected user-3, received %s", notice.UserID)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected a notice for the subscribed user")
	}
}

func TestNoticeNotifierMapsToastLevels(t *testing.T) {
	dispatcher := NewNoticeDispatcher()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream, cleanup := dispatcher.Subscribe(ctx, "user-4")
	defer cleanup()

	notifier := &noticeNotifier{dispatcher: dispatcher, userID: "user-4", clock: time.Now}
	notifier.Success("Log saved.")
	notifier.Failure("The like could not be saved.")

	expected := []struct {
		eventType string
		message   string
	}{
		{NoticeEventSuccess, "Log saved."},
		{NoticeEventFailure, "The like could not be saved."},
	}
	for _, want := range expected {
		select {
		case notice := <-stream:
			if notice.EventType != want.eventType || notice.Message != want.message {
				t.Fatalf("unexpected notice %+v, want %+v", notice, want)
			}
		case <-time.After(500 * time.Millisecond):
			t.Fatalf("expected %s notice within deadline", want.eventType)
		}
	}
}
