package queue

import (
	"context"
	"testing"
	"time"
)

func TestInMemory_PublishConsume(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewInMemory(4)
	msgs, err := q.Consume(ctx)
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}

	want := Message{Type: "admission", Body: []byte(`{"class_code":"AB12CD3"}`)}
	if err := q.Publish(ctx, want); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case got := <-msgs:
		if got.Type != want.Type || string(got.Body) != string(want.Body) {
			t.Errorf("got %+v, want %+v", got, want)
		}
	case <-time.After(time.Second):
		t.Fatal("no message received")
	}
}

func TestInMemory_PublishHonorsCancel(t *testing.T) {
	q := NewInMemory(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := q.Publish(ctx, Message{Type: "admission"}); err == nil {
		t.Fatal("Publish on a cancelled context should fail")
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	msg := Message{Type: "admission", Body: []byte(`{"outcome":"admitted","note":"a|b"}`)}
	got := deserialize(serialize(msg))
	if got.Type != msg.Type {
		t.Errorf("Type = %q, want %q", got.Type, msg.Type)
	}
	if string(got.Body) != string(msg.Body) {
		t.Errorf("Body = %q, want %q", got.Body, msg.Body)
	}
}

func TestDeserialize_NoType(t *testing.T) {
	got := deserialize("just a body")
	if got.Type != "" || string(got.Body) != "just a body" {
		t.Errorf("got %+v", got)
	}
}
