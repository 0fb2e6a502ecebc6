package storage

import (
	"errors"
	"fmt"
	"strings"

	"github.com/carenest/CareNest/internal/pkg/env"
)

// Config holds S3 photo storage configuration
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	BucketName      string
	EndpointURL     string // Optional for S3-compatible services
	PublicBaseURL   string // Base URL photos are served from
	Enabled         bool
}

// LoadConfig loads S3 configuration from environment variables
func LoadConfig() (*Config, error) {
	config := &Config{
		AccessKeyID:     env.GetEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: env.GetEnv("S3_SECRET_ACCESS_KEY", ""),
		Region:          env.GetEnv("S3_REGION", "us-east-1"),
		BucketName:      env.GetEnv("S3_BUCKET_NAME", ""),
		EndpointURL:     env.GetEnv("S3_ENDPOINT_URL", ""),
		PublicBaseURL:   strings.TrimRight(env.GetEnv("S3_PUBLIC_BASE_URL", ""), "/"),
		Enabled:         env.GetEnv("S3_PHOTOS_ENABLED", "false") == "true",
	}

	if config.Enabled {
		if config.AccessKeyID == "" {
			return nil, errors.New("S3_ACCESS_KEY_ID is required when photo storage is enabled")
		}
		if config.SecretAccessKey == "" {
			return nil, errors.New("S3_SECRET_ACCESS_KEY is required when photo storage is enabled")
		}
		if config.BucketName == "" {
			return nil, errors.New("S3_BUCKET_NAME is required when photo storage is enabled")
		}
	}

	return config, nil
}

// IsEnabled returns true if photo storage is enabled
func (c *Config) IsEnabled() bool {
	return c.Enabled
}

// PhotoObjectKey generates a standardized S3 object key for a provider photo
func (c *Config) PhotoObjectKey(providerID uint, photoUUID string) string {
	return fmt.Sprintf("providers/%d/%s.jpg", providerID, photoUUID)
}

// ThumbObjectKey generates the object key for a photo thumbnail
func (c *Config) ThumbObjectKey(providerID uint, photoUUID string) string {
	return fmt.Sprintf("providers/%d/%s_thumb.jpg", providerID, photoUUID)
}

// PublicURL returns the URL an object is served from
func (c *Config) PublicURL(objectKey string) string {
	if c.PublicBaseURL != "" {
		return c.PublicBaseURL + "/" + objectKey
	}
	if c.EndpointURL != "" {
		return strings.TrimRight(c.EndpointURL, "/") + "/" + c.BucketName + "/" + objectKey
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", c.BucketName, c.Region, objectKey)
}

// GetAppEnv returns the current application environment
func GetAppEnv() string {
	return env.GetEnv("APP_ENV", "dev")
}
