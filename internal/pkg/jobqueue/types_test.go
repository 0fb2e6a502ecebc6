package jobqueue

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJobRetryLifecycle(t *testing.T) {
	job := &Job{MaxRetries: 2}

	assert.True(t, job.IsRetryable())

	job.MarkAsFailed("boom")
	assert.Equal(t, JobStatusFailed, job.Status)
	assert.Equal(t, 1, job.RetryCount)
	assert.True(t, job.IsRetryable())

	job.MarkAsFailed("boom again")
	assert.False(t, job.IsRetryable())
}

func TestJobMarkAsProcessingAndCompleted(t *testing.T) {
	job := &Job{}

	job.MarkAsProcessing()
	assert.Equal(t, JobStatusProcessing, job.Status)
	assert.NotNil(t, job.ProcessedAt)

	job.MarkAsCompleted()
	assert.Equal(t, JobStatusCompleted, job.Status)
	assert.NotNil(t, job.CompletedAt)
}

func TestDecodePayload(t *testing.T) {
	payload := map[string]interface{}{
		"provider_id": float64(12),
		"address":     "10115 Berlin",
	}

	var out GeocodeProviderPayload
	assert.NoError(t, decodePayload(payload, &out))
	assert.Equal(t, uint(12), out.ProviderID)
	assert.Equal(t, "10115 Berlin", out.Address)
}
