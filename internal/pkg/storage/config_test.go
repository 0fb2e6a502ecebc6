package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPhotoObjectKeys(t *testing.T) {
	cfg := &Config{BucketName: "carenest-photos", Region: "eu-central-1"}

	assert.Equal(t, "providers/42/abc.jpg", cfg.PhotoObjectKey(42, "abc"))
	assert.Equal(t, "providers/42/abc_thumb.jpg", cfg.ThumbObjectKey(42, "abc"))
}

func TestPublicURL(t *testing.T) {
	cfg := &Config{BucketName: "carenest-photos", Region: "eu-central-1"}
	assert.Equal(t,
		"https://carenest-photos.s3.eu-central-1.amazonaws.com/providers/1/x.jpg",
		cfg.PublicURL("providers/1/x.jpg"))

	cfg.EndpointURL = "https://minio.local:9000/"
	assert.Equal(t,
		"https://minio.local:9000/carenest-photos/providers/1/x.jpg",
		cfg.PublicURL("providers/1/x.jpg"))

	cfg.PublicBaseURL = "https://cdn.carenest.example"
	assert.Equal(t,
		"https://cdn.carenest.example/providers/1/x.jpg",
		cfg.PublicURL("providers/1/x.jpg"))
}
