package queue

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type exportPayload struct {
	Reason string `json:"reason"`
}

func TestNewMessageAndParsePayload(t *testing.T) {
	now := time.Unix(1700000000, 0)
	msg, err := NewMessage("ops.export", exportPayload{Reason: "manual"}, now)
	require.NoError(t, err)
	assert.Equal(t, "ops.export", msg.Type)
	assert.Equal(t, "1700000000000000000", msg.ID)

	b, err := json.Marshal(msg)
	require.NoError(t, err)
	var back Message
	require.NoError(t, json.Unmarshal(b, &back))

	p, err := ParsePayload[exportPayload](back.Payload)
	require.NoError(t, err)
	assert.Equal(t, "manual", p.Reason)
}

func TestParsePayloadEmpty(t *testing.T) {
	msg, err := NewMessage("ops.reset", nil, time.Now())
	require.NoError(t, err)
	p, err := ParsePayload[exportPayload](msg.Payload)
	require.NoError(t, err)
	assert.Equal(t, "", p.Reason)

	_, err = ParsePayload[exportPayload](json.RawMessage(`{"reason":`))
	assert.Error(t, err)
}

func TestKeys(t *testing.T) {
	q := NewRedisQueue(nil, QueueConfig{}, nil, WithKeyPrefix("svc:ops"))
	assert.Equal(t, "svc:ops:messages", q.queueKey())
	assert.Equal(t, "svc:ops:retry", q.retryKey())
	assert.Equal(t, "svc:ops:dlq", q.deadLetterKey())
	assert.Equal(t, 1, q.config.Workers)
}
