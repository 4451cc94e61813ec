package service

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"squeeze/config"
)

// ObjectStore moves files between the local disk and a bucket.
type ObjectStore interface {
	Download(ctx context.Context, key, dst string) error
	Upload(ctx context.Context, key, src, contentType string) error
}

type S3Store struct {
	bucket string

	s3 *s3.S3
}

func NewS3Store(c *config.Config) (*S3Store, error) {
	awsConfig := &aws.Config{
		Region:           aws.String(c.S3Region),
		Credentials:      credentials.NewStaticCredentials(c.S3AccessKey, c.S3SecretKey, ""),
		S3ForcePathStyle: aws.Bool(true),
	}
	if c.S3Endpoint != "" {
		awsConfig.Endpoint = aws.String(c.S3Endpoint)
	}

	awsSession, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create aws session: %w", err)
	}

	return &S3Store{bucket: c.S3Bucket, s3: s3.New(awsSession)}, nil
}

func (s *S3Store) Download(ctx context.Context, key, dst string) error {
	result, err := s.s3.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("get object %s: %w", key, err)
	}
	defer result.Body.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, result.Body); err != nil {
		return fmt.Errorf("read object %s: %w", key, err)
	}

	return out.Close()
}

func (s *S3Store) Upload(ctx context.Context, key, src, contentType string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	_, err = s.s3.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        in,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}

	return nil
}
