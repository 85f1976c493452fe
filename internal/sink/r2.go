package sink

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"crypto-digest-bot/internal/logger"
	"crypto-digest-bot/internal/store"
)

// presignTTL is how long the returned digest URL stays valid.
const presignTTL = 7 * 24 * time.Hour

// R2Archiver stores digests in a Cloudflare R2 bucket through the
// S3-compatible API.
type R2Archiver struct {
	bucket  string
	client  *s3.Client
	presign *s3.PresignClient
}

// NewR2Archiver builds an archiver from a complete R2 config.
func NewR2Archiver(ctx context.Context, cfg store.R2Config) (*R2Archiver, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true
	})

	return &R2Archiver{
		bucket:  cfg.Bucket,
		client:  client,
		presign: s3.NewPresignClient(client),
	}, nil
}

// Archive uploads the body as UTF-8 text and returns a presigned GET URL.
// A failed presign after a successful upload is not an error; the URL is
// simply empty.
func (a *R2Archiver) Archive(ctx context.Context, key, body string) (string, error) {
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        strings.NewReader(body),
		ContentType: aws.String("text/plain; charset=utf-8"),
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	logger.Info(ctx, "Uploaded digest", "bucket", a.bucket, "key", key)

	presigned, err := a.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(presignTTL))
	if err != nil {
		logger.Warn(ctx, "Presign failed, no retrievable URL", "key", key, "error", err)
		return "", nil
	}
	return presigned.URL, nil
}
