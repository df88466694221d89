package queue

import (
	"context"
	"testing"
	"time"
)

func TestInMemoryRoundTrip(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewInMemory(8)
	msgs, err := q.Consume(ctx)
	if err != nil {
		t.Fatalf("Consume failed: %v", err)
	}

	sent := Message{Type: "detection", Body: []byte(`{"userId":"CS101"}`)}
	if err := q.Publish(ctx, sent); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	select {
	case got := <-msgs:
		if got.Type != sent.Type || string(got.Body) != string(sent.Body) {
			t.Errorf("got %+v, want %+v", got, sent)
		}
	case <-time.After(time.Second):
		t.Fatal("message never arrived")
	}
}

func TestInMemoryPreservesOrder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewInMemory(16)
	bodies := []string{"a", "b", "c"}
	for _, b := range bodies {
		if err := q.Publish(ctx, Message{Type: "detection", Body: []byte(b)}); err != nil {
			t.Fatalf("Publish failed: %v", err)
		}
	}

	msgs, err := q.Consume(ctx)
	if err != nil {
		t.Fatalf("Consume failed: %v", err)
	}
	for _, want := range bodies {
		select {
		case got := <-msgs:
			if string(got.Body) != want {
				t.Errorf("got %q, want %q", got.Body, want)
			}
		case <-time.After(time.Second):
			t.Fatalf("message %q never arrived", want)
		}
	}
}

func TestInMemoryPublishHonorsContext(t *testing.T) {
	q := NewInMemory(1)
	ctx := context.Background()
	if err := q.Publish(ctx, Message{Type: "detection"}); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	// Queue is full; a cancelled context should unblock the publisher.
	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if err := q.Publish(cancelled, Message{Type: "detection"}); err == nil {
		t.Error("expected context error publishing to a full queue")
	}
}

func TestInMemoryConsumeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	q := NewInMemory(1)
	msgs, err := q.Consume(ctx)
	if err != nil {
		t.Fatalf("Consume failed: %v", err)
	}

	cancel()
	select {
	case _, open := <-msgs:
		if open {
			t.Error("expected closed channel after cancel")
		}
	case <-time.After(time.Second):
		t.Fatal("channel never closed")
	}
}
