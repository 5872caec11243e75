package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"discounter/internal/model"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// PutObjectAPI is the subset of the S3 client used by the S3 notifier.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// s3Notifier drops each voucher as a JSON object into a bucket.
type s3Notifier struct {
	client PutObjectAPI
	bucket string
	prefix string
	logger zerolog.Logger
}

// NewS3Notifier creates an S3 notifier using the default AWS credential chain.
func NewS3Notifier(ctx context.Context, bucket, region, prefix string, logger zerolog.Logger) (Notifier, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		logger.Error().Err(err).Msg("failed to load AWS configuration")
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	logger.Info().
		Str("bucket", bucket).
		Str("region", region).
		Str("prefix", prefix).
		Msg("S3 notifier initialised")

	return NewS3NotifierWithClient(s3.NewFromConfig(cfg), bucket, prefix, logger), nil
}

// NewS3NotifierWithClient creates an S3 notifier around an existing client.
func NewS3NotifierWithClient(client PutObjectAPI, bucket, prefix string, logger zerolog.Logger) Notifier {
	return &s3Notifier{
		client: client,
		bucket: bucket,
		prefix: prefix,
		logger: logger.With().Str("component", "s3-notifier").Logger(),
	}
}

// ObjectKey returns where a voucher is stored: <prefix><brand>/<code>.json.
func ObjectKey(prefix string, voucher model.Voucher) string {
	return fmt.Sprintf("%s%s/%s.json", prefix, voucher.Brand, voucher.Code)
}

func (n *s3Notifier) Notify(ctx context.Context, voucher model.Voucher) error {
	body, err := json.Marshal(voucher)
	if err != nil {
		return fmt.Errorf("failed to encode voucher: %w", err)
	}

	key := ObjectKey(n.prefix, voucher)

	_, err = n.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(n.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		n.logger.Error().
			Err(err).
			Str("bucket", n.bucket).
			Str("key", key).
			Msg("failed to put voucher object")
		return fmt.Errorf("failed to put voucher object (bucket=%s, key=%s): %w", n.bucket, key, err)
	}

	n.logger.Debug().Str("bucket", n.bucket).Str("key", key).Msg("voucher object stored")
	return nil
}
