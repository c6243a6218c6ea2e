package appkafka

import (
	"context"
	"testing"
)

func TestPublisher_WritesKeyedJSON(t *testing.T) {
	mock := &MockKafka{}
	pub := NewPublisher(mock)

	err := pub.Publish(context.Background(), Event{
		Type:      CommentAdded,
		PostID:    "post-1",
		CommentID: "comment-1",
		AccountID: "acc-1",
	})
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	if len(mock.WrittenMessages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(mock.WrittenMessages))
	}
	msg := mock.WrittenMessages[0]
	if string(msg.Key) != "post-1" {
		t.Fatalf("expected post id as key, got %q", msg.Key)
	}
	if len(msg.Headers) != 1 || string(msg.Headers[0].Value) != string(CommentAdded) {
		t.Fatalf("unexpected headers: %+v", msg.Headers)
	}

	events := mock.Events()
	if len(events) != 1 || events[0].CommentID != "comment-1" || events[0].OccurredAt.IsZero() {
		t.Fatalf("unexpected decoded events: %+v", events)
	}
}

func TestPublisher_ProfileEventKeyedByAccount(t *testing.T) {
	mock := &MockKafka{}
	_ = NewPublisher(mock).Publish(context.Background(), Event{Type: ProfileUpdated, AccountID: "acc-9"})

	if string(mock.WrittenMessages[0].Key) != "acc-9" {
		t.Fatalf("expected account id as key, got %q", mock.WrittenMessages[0].Key)
	}
}

func TestPublisher_WriteFailure(t *testing.T) {
	pub := NewPublisher(&MockKafkaFail{})
	if err := pub.Publish(context.Background(), Event{Type: PostCreated, PostID: "p"}); err == nil {
		t.Fatal("expected error from failing writer")
	}
}

func TestPublisher_CanceledContext(t *testing.T) {
	mock := &MockKafka{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := NewPublisher(mock).Publish(ctx, Event{Type: PostCreated, PostID: "p"}); err == nil {
		t.Fatal("expected context error")
	}
	if len(mock.WrittenMessages) != 0 {
		t.Fatal("nothing should be written after cancellation")
	}
}

func TestDecodeEvent(t *testing.T) {
	if _, err := DecodeEvent([]byte("{invalid-json}")); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
	if _, err := DecodeEvent([]byte(`{"post_id":"p"}`)); err == nil {
		t.Fatal("expected error for missing type")
	}
	if _, err := DecodeEvent([]byte(`{"type":"comment.added","post_id":"p"}`)); err == nil {
		t.Fatal("expected error for comment event without comment_id")
	}
	ev, err := DecodeEvent([]byte(`{"type":"post.liked","post_id":"p","account_id":"a"}`))
	if err != nil || ev.Type != PostLiked || ev.IsCommentEvent() {
		t.Fatalf("unexpected decode result: %+v, %v", ev, err)
	}
}
