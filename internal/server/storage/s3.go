// Package storage wraps the S3-compatible object store holding document
// content. Clients never stream bytes through the API server: uploads and
// downloads go straight to the bucket via presigned URLs.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/mpodriezov/boardpack/internal/server/config"
)

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
	deleteObject = func(c *s3.Client, ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
		return c.DeleteObject(ctx, in, optFns...)
	}
)

// S3Store issues presigned URLs against an S3-compatible bucket
// (MinIO in development via BaseEndpoint).
type S3Store struct {
	config *config.Config
}

// NewS3Store constructs a store using the server configuration.
func NewS3Store(cfg *config.Config) *S3Store {
	return &S3Store{config: cfg}
}

// RandomStorageKey returns a date-sharded object key for a new document.
func RandomStorageKey() string {
	d := time.Now()
	return fmt.Sprintf("apps/%d/%d/%d/%v", d.Year(), d.Month(), d.Day(), uuid.New())
}

func (s *S3Store) getClient() (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(context.Background(),
		awsconfig.WithRegion(s.config.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3AccessKey, // MINIO_ROOT_USER in dev
			s.config.S3SecretKey, // MINIO_ROOT_PASSWORD in dev
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
	})

	return client, nil
}

func (s *S3Store) getPresignClient() (*s3.PresignClient, error) {
	client, err := s.getClient()
	if err != nil {
		return nil, err
	}
	return newS3PresignClient(client), nil
}

// PresignedPutURL allocates a fresh storage key and returns a URL that
// accepts a PUT of the object bytes until the configured TTL elapses.
func (s *S3Store) PresignedPutURL(ctx context.Context) (string, string, time.Time, error) {

	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", "", time.Time{}, err
	}

	bucket := s.config.S3Bucket
	key := RandomStorageKey()
	expiresAt := time.Now().Add(s.config.PresignTTL)

	// Presigned PUT
	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(s.config.PresignTTL))

	if err != nil {
		return "", "", time.Time{}, err
	}

	return key, req.URL, expiresAt, nil
}

// PresignedGetURL returns a download URL for key plus its expiry instant.
func (s *S3Store) PresignedGetURL(ctx context.Context, key string) (string, time.Time, error) {

	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", time.Time{}, err
	}

	bucket := s.config.S3Bucket
	expiresAt := time.Now().Add(s.config.PresignTTL)

	// Presigned GET
	req, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(s.config.PresignTTL))
	if err != nil {
		return "", time.Time{}, err
	}

	return req.URL, expiresAt, nil
}

// DeleteObject removes the object at key from the bucket.
func (s *S3Store) DeleteObject(ctx context.Context, key string) error {
	client, err := s.getClient()
	if err != nil {
		return err
	}

	bucket := s.config.S3Bucket
	_, err = deleteObject(client, ctx, &s3.DeleteObjectInput{
		Bucket: &bucket,
		Key:    &key,
	})
	return err
}
