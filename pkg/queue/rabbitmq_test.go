package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), PostCreated, map[string]string{"postId": "x"}))
}

func TestEventJSON(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	b, err := json.Marshal(Event{Type: UserFollowed, OccurredAt: at, Data: map[string]string{"target": "bob"}})
	require.NoError(t, err)

	assert.JSONEq(t, `{"type":"user.followed","occurredAt":"2024-05-01T12:00:00Z","data":{"target":"bob"}}`, string(b))
}

func TestPriorities(t *testing.T) {
	assert.Greater(t, priorities[UserMentioned], priorities[PostCreated])
	for _, key := range []string{PostCreated, CommentCreated, UserMentioned, UserFollowed} {
		assert.LessOrEqual(t, priorities[key], uint8(10))
	}
}

func TestDispatch(t *testing.T) {
	body, err := json.Marshal(Event{Type: CommentCreated, Data: map[string]string{"postId": "p1"}})
	require.NoError(t, err)

	var got Event
	outcome := Dispatch(context.Background(), body, func(_ context.Context, e Event) error {
		got = e
		return nil
	})
	assert.Equal(t, Ack, outcome)
	assert.Equal(t, CommentCreated, got.Type)
	assert.Equal(t, "p1", got.Data["postId"])
}

func TestDispatch_Failures(t *testing.T) {
	body, err := json.Marshal(Event{Type: UserFollowed})
	require.NoError(t, err)

	tests := []struct {
		name    string
		body    []byte
		err     error
		outcome Outcome
	}{
		{"handler error requeues", body, errors.New("store down"), Requeue},
		{"drop rejects", body, fmt.Errorf("missing recipient: %w", ErrDrop), Reject},
		{"bad json rejects", []byte("{"), nil, Reject},
		{"missing type rejects", []byte(`{"data":{}}`), nil, Reject},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome := Dispatch(context.Background(), tt.body, func(context.Context, Event) error { return tt.err })
			assert.Equal(t, tt.outcome, outcome)
		})
	}
}
