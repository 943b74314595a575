package kafka

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/weather-lake-etl/internal/domain"
	"github.com/couchcryptid/weather-lake-etl/internal/etl"
)

func TestSerializeSummary(t *testing.T) {
	started := time.Date(2024, 6, 1, 2, 0, 0, 0, time.UTC)
	finished := started.Add(90 * time.Second)
	summary := etl.RunSummary{
		Candidates: 7,
		Processed:  4,
		Skipped:    3,
		Failed:     1,
		Records:    96,
		Failures: []etl.PartitionFailure{
			{
				Key:    domain.PartitionKey{SourceDate: "2024-06-01", CityID: "london", Hour: 14},
				Reason: "write failed",
			},
		},
		StartedAt:  started,
		FinishedAt: finished,
	}

	msg, err := serializeSummary(summary)
	require.NoError(t, err)

	assert.Equal(t, []byte("2024-06-01T02:00:00Z"), msg.Key)
	assert.Contains(t, string(msg.Value), `"processed":4`)
	assert.Contains(t, string(msg.Value), `"city_id":"london"`)
	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "processed", msg.Headers[0].Key)
	assert.Equal(t, []byte("4"), msg.Headers[0].Value)
	assert.Equal(t, "failed", msg.Headers[1].Key)
	assert.Equal(t, []byte("1"), msg.Headers[1].Value)
	assert.Equal(t, "finished_at", msg.Headers[2].Key)
	assert.Equal(t, []byte(finished.Format(time.RFC3339)), msg.Headers[2].Value)
}

func TestSerializeSummary_EmptyFailures(t *testing.T) {
	summary := etl.RunSummary{
		Candidates: 2,
		Skipped:    2,
		StartedAt:  time.Date(2024, 6, 2, 2, 0, 0, 0, time.UTC),
		FinishedAt: time.Date(2024, 6, 2, 2, 0, 5, 0, time.UTC),
	}

	msg, err := serializeSummary(summary)
	require.NoError(t, err)
	assert.Contains(t, string(msg.Value), `"skipped":2`)
	assert.NotContains(t, string(msg.Value), `"failures":null`)
}
