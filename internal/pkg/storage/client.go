package storage

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/disintegration/imaging"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
)

const (
	photoMaxDim  = 1600
	thumbMaxDim  = 320
	jpegQuality  = 85
	maxPhotoSize = 10 << 20 // 10 MiB
)

// Client wraps the S3 client with provider photo functionality
type Client struct {
	s3Client *s3.Client
	config   *Config
}

// PhotoResult describes a stored provider photo
type PhotoResult struct {
	UUID      string
	ObjectKey string
	ThumbKey  string
	URL       string
	ThumbURL  string
	Size      int64
}

// NewClient creates a new S3 photo storage client
func NewClient(cfg *Config) (*Client, error) {
	if !cfg.IsEnabled() {
		return nil, fmt.Errorf("photo storage is disabled")
	}

	awsConfig, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
			// S3-compatible services need path-style URLs
			o.UsePathStyle = true
			o.UseAccelerate = false
		}
	})

	client := &Client{
		s3Client: s3Client,
		config:   cfg,
	}

	if err := client.testConnection(); err != nil {
		return nil, fmt.Errorf("failed to connect to S3: %w", err)
	}

	log.Infof("[Storage] Successfully initialized S3 client for bucket: %s", cfg.BucketName)
	return client, nil
}

// testConnection tests the S3 connection by checking if the bucket exists
func (c *Client) testConnection() error {
	ctx := context.Background()

	_, err := c.s3Client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(c.config.BucketName),
	})

	if err != nil {
		// If bucket doesn't exist, try to create it (for development)
		if GetAppEnv() != "prod" {
			log.Warnf("[Storage] Bucket %s not found, attempting to create it", c.config.BucketName)
			return c.createBucket(c.config.BucketName)
		}
		return fmt.Errorf("bucket %s not accessible: %w", c.config.BucketName, err)
	}

	return nil
}

// createBucket creates a new S3 bucket (dev/staging only)
func (c *Client) createBucket(bucketName string) error {
	ctx := context.Background()

	input := &s3.CreateBucketInput{
		Bucket: aws.String(bucketName),
	}

	// For AWS regions other than us-east-1 we need the location constraint.
	// S3-compatible services behind a custom endpoint do not want it.
	if c.config.EndpointURL == "" && c.config.Region != "us-east-1" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(c.config.Region),
		}
	}

	_, err := c.s3Client.CreateBucket(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", bucketName, err)
	}

	log.Infof("[Storage] Successfully created bucket: %s", bucketName)
	return nil
}

// StorePhoto normalizes an uploaded provider photo and stores it with a
// thumbnail. The source image is re-encoded as JPEG so stored objects
// never carry original metadata.
func (c *Client) StorePhoto(ctx context.Context, providerID uint, r io.Reader) (*PhotoResult, error) {
	src, err := decodePhoto(r)
	if err != nil {
		return nil, err
	}

	photoUUID := uuid.New().String()
	objectKey := c.config.PhotoObjectKey(providerID, photoUUID)
	thumbKey := c.config.ThumbObjectKey(providerID, photoUUID)

	full := imaging.Fit(src, photoMaxDim, photoMaxDim, imaging.Lanczos)
	thumb := imaging.Fit(src, thumbMaxDim, thumbMaxDim, imaging.Lanczos)

	fullBytes, err := encodeJPEG(full)
	if err != nil {
		return nil, err
	}
	thumbBytes, err := encodeJPEG(thumb)
	if err != nil {
		return nil, err
	}

	if err := c.putObject(ctx, objectKey, fullBytes); err != nil {
		return nil, err
	}
	if err := c.putObject(ctx, thumbKey, thumbBytes); err != nil {
		// Keep the bucket consistent if the thumbnail fails
		c.deleteObject(ctx, objectKey)
		return nil, err
	}

	log.Infof("[Storage] Stored provider photo: s3://%s/%s (%d bytes)",
		c.config.BucketName, objectKey, len(fullBytes))

	return &PhotoResult{
		UUID:      photoUUID,
		ObjectKey: objectKey,
		ThumbKey:  thumbKey,
		URL:       c.config.PublicURL(objectKey),
		ThumbURL:  c.config.PublicURL(thumbKey),
		Size:      int64(len(fullBytes)),
	}, nil
}

// DeletePhoto removes a photo and its thumbnail
func (c *Client) DeletePhoto(ctx context.Context, providerID uint, photoUUID string) error {
	if err := c.deleteObject(ctx, c.config.PhotoObjectKey(providerID, photoUUID)); err != nil {
		return err
	}
	return c.deleteObject(ctx, c.config.ThumbObjectKey(providerID, photoUUID))
}

func (c *Client) putObject(ctx context.Context, objectKey string, data []byte) error {
	_, err := c.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.config.BucketName),
		Key:           aws.String(objectKey),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String("image/jpeg"),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}
	return nil
}

func (c *Client) deleteObject(ctx context.Context, objectKey string) error {
	_, err := c.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.config.BucketName),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", objectKey, err)
	}
	return nil
}

func decodePhoto(r io.Reader) (image.Image, error) {
	src, err := imaging.Decode(io.LimitReader(r, maxPhotoSize), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode photo: %w", err)
	}
	return src, nil
}

func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode photo: %w", err)
	}
	return buf.Bytes(), nil
}
