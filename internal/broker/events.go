package appkafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

type EventType string

const (
	PostCreated    EventType = "post.created"
	PostLiked      EventType = "post.liked"
	PostUnliked    EventType = "post.unliked"
	CommentAdded   EventType = "comment.added"
	CommentEdited  EventType = "comment.edited"
	CommentRemoved EventType = "comment.removed"
	ProfileUpdated EventType = "profile.updated"
)

// Event is the activity record published after a successful mutation.
type Event struct {
	Type       EventType `json:"type"`
	PostID     string    `json:"post_id,omitempty"`
	CommentID  string    `json:"comment_id,omitempty"`
	AccountID  string    `json:"account_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Key groups events of one aggregate: the post when there is one, otherwise the account.
func (e Event) Key() string {
	if e.PostID != "" {
		return e.PostID
	}
	return e.AccountID
}

// IsCommentEvent reports whether the event concerns a post's comment list.
func (e Event) IsCommentEvent() bool {
	switch e.Type {
	case CommentAdded, CommentEdited, CommentRemoved:
		return true
	}
	return false
}

func DecodeEvent(data []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	if ev.Type == "" {
		return Event{}, errors.New("decode event: missing type")
	}
	if ev.IsCommentEvent() && (ev.PostID == "" || ev.CommentID == "") {
		return Event{}, fmt.Errorf("decode event: %s without post_id/comment_id", ev.Type)
	}
	return ev, nil
}

// Publisher emits activity events.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// KafkaPublisher encodes events as JSON Kafka messages.
type KafkaPublisher struct {
	writer KafkaWriter
}

func NewPublisher(w KafkaWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: w}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	return p.writer.WriteMessages(kafka.Message{
		Key:     []byte(ev.Key()),
		Value:   data,
		Headers: []kafka.Header{{Key: "event_type", Value: []byte(ev.Type)}},
	})
}

// NopPublisher drops events; used when Kafka is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
