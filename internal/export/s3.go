package export

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// S3Config locates the bucket artifacts are uploaded to.
type S3Config struct {
	Bucket   string
	Prefix   string
	Region   string
	Endpoint string // S3-compatible providers; empty for AWS

	// Static credentials. When empty the default AWS chain is used.
	AccessKey string
	SecretKey string
}

// objectPutter is the subset of *s3.Client the sink needs.
type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Sink uploads artifacts to S3-compatible storage.
type S3Sink struct {
	bucket string
	prefix string
	client objectPutter
	logger *zap.Logger
}

// NewS3Sink creates a sink backed by a real S3 client.
func NewS3Sink(ctx context.Context, cfg S3Config, logger *zap.Logger) (*S3Sink, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 sink: bucket is required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKey != "" {
		creds := credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")
		opts = append(opts, config.WithCredentialsProvider(creds))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return newS3Sink(cfg.Bucket, cfg.Prefix, client, logger), nil
}

func newS3Sink(bucket, prefix string, client objectPutter, logger *zap.Logger) *S3Sink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &S3Sink{bucket: bucket, prefix: prefix, client: client, logger: logger}
}

func (s *S3Sink) Name() string { return "s3" }

// Key returns the object key name is stored under.
func (s *S3Sink) Key(name string) string {
	if s.prefix == "" {
		return name
	}
	return path.Join(strings.TrimSuffix(s.prefix, "/"), name)
}

func (s *S3Sink) Put(ctx context.Context, name string, data io.Reader) error {
	key := s.Key(name)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        data,
		ContentType: aws.String(contentType(name)),
	})
	if err != nil {
		return fmt.Errorf("put object %s/%s: %w", s.bucket, key, err)
	}

	s.logger.Info("uploaded artifact",
		zap.String("bucket", s.bucket),
		zap.String("key", key))
	return nil
}

func contentType(name string) string {
	switch {
	case strings.HasSuffix(name, ".gz"):
		return "application/gzip"
	case strings.HasSuffix(name, ".zst"):
		return "application/zstd"
	case strings.HasSuffix(name, ".csv"):
		return "text/csv"
	case strings.HasSuffix(name, ".json"):
		return "application/json"
	default:
		return "application/octet-stream"
	}
}
