package archive

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Sink uploads exports to a bucket, retrying with exponential backoff.
type S3Sink struct {
	Bucket   string
	Retries  int
	Timeout  time.Duration
	client   s3API
	sleepFor func(time.Duration)
}

// NewS3Sink loads credentials from the default AWS chain.
func NewS3Sink(ctx context.Context, bucket, region string) (*S3Sink, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.RetryMaxAttempts = 1
	})
	return newS3Sink(bucket, client), nil
}

func newS3Sink(bucket string, client s3API) *S3Sink {
	return &S3Sink{
		Bucket:   bucket,
		Retries:  3,
		Timeout:  10 * time.Second,
		client:   client,
		sleepFor: time.Sleep,
	}
}

func (s *S3Sink) Put(ctx context.Context, key string, body []byte) error {
	var lastErr error
	backoff := 200 * time.Millisecond
	for attempt := 1; attempt <= s.Retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if lastErr = s.put(ctx, key, body); lastErr == nil {
			return nil
		}
		if attempt < s.Retries {
			s.sleepFor(backoff)
			backoff *= 2
		}
	}
	return fmt.Errorf("upload s3://%s/%s: %w", s.Bucket, key, lastErr)
}

func (s *S3Sink) put(ctx context.Context, key string, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:          aws.String(s.Bucket),
		Key:             aws.String(key),
		Body:            bytes.NewReader(body),
		ContentLength:   aws.Int64(int64(len(body))),
		ContentType:     aws.String("application/x-ndjson"),
		ContentEncoding: aws.String("gzip"),
	})
	return err
}
