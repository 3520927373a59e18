package kafka

import (
	"testing"
	"time"

	"github.com/couchcryptid/climate-index-engine/internal/job"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapMessageToRawJob(t *testing.T) {
	now := time.Now()
	msg := kafkago.Message{
		Key:       []byte("job-1"),
		Value:     []byte(`{"job_id":"job-1","index":"su"}`),
		Topic:     "climate-index-jobs",
		Partition: 2,
		Offset:    42,
		Time:      now,
		Headers: []kafkago.Header{
			{Key: "producer", Value: []byte("scheduler")},
		},
	}

	r := &Reader{}
	raw := r.mapMessageToRawJob(msg)

	assert.Equal(t, []byte("job-1"), raw.Key)
	assert.JSONEq(t, `{"job_id":"job-1","index":"su"}`, string(raw.Value))
	assert.Equal(t, "climate-index-jobs", raw.Topic)
	assert.Equal(t, 2, raw.Partition)
	assert.Equal(t, int64(42), raw.Offset)
	assert.Equal(t, now, raw.Timestamp)
	assert.Equal(t, "scheduler", raw.Headers["producer"])
	assert.NotNil(t, raw.Commit)
}

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC)

	t.Run("success result", func(t *testing.T) {
		result := job.Result{
			JobID:      "job-1",
			Index:      "su",
			Unit:       "days",
			ComputedAt: now,
		}

		msg, err := serializeToMessage(result)
		require.NoError(t, err)

		assert.Equal(t, []byte("job-1"), msg.Key)
		assert.Contains(t, string(msg.Value), `"index":"su"`)
		require.Len(t, msg.Headers, 3)
		assert.Equal(t, "index", msg.Headers[0].Key)
		assert.Equal(t, []byte("su"), msg.Headers[0].Value)
		assert.Equal(t, "status", msg.Headers[1].Key)
		assert.Equal(t, []byte("ok"), msg.Headers[1].Value)
		assert.Equal(t, "computed_at", msg.Headers[2].Key)
		assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[2].Value)
	})

	t.Run("error result", func(t *testing.T) {
		result := job.Result{
			JobID:      "job-2",
			Index:      "tx90p",
			Error:      "invalid index configuration",
			ComputedAt: now,
		}

		msg, err := serializeToMessage(result)
		require.NoError(t, err)

		assert.Equal(t, []byte("job-2"), msg.Key)
		assert.Equal(t, []byte("error"), msg.Headers[1].Value)
		assert.Contains(t, string(msg.Value), `"error":"invalid index configuration"`)
	})
}
