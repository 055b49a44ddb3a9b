package delivery

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// ObjectGetter is the part of the S3 client the loader uses.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type s3Loader struct {
	client ObjectGetter
	bucket string
	logger zerolog.Logger
}

// NewS3Loader creates a loader reading pincode lists from bucket, using the default AWS
// credential chain.
func NewS3Loader(ctx context.Context, bucket, region string, logger zerolog.Logger) (Loader, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}
	return NewS3LoaderWithClient(s3.NewFromConfig(cfg), bucket, logger), nil
}

// NewS3LoaderWithClient creates an S3 loader on top of an existing client.
func NewS3LoaderWithClient(client ObjectGetter, bucket string, logger zerolog.Logger) Loader {
	return &s3Loader{
		client: client,
		bucket: bucket,
		logger: logger.With().Str("component", "s3-pincode-loader").Str("bucket", bucket).Logger(),
	}
}

// Load reads the object at key.
func (l *s3Loader) Load(ctx context.Context, key string) (Set, error) {
	out, err := l.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(l.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get object from S3 (bucket=%s, key=%s): %w", l.bucket, key, err)
	}
	defer out.Body.Close()

	set, err := readSet(ctx, out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read S3 object %s: %w", key, err)
	}

	l.logger.Info().Str("key", key).Int("pincodes_loaded", set.Size()).Msg("pincode file loaded from S3")
	return set, nil
}

type fallbackLoader struct {
	primary  Loader
	local    Loader
	s3Prefix string
	logger   zerolog.Logger
}

// NewFallbackLoader tries primary with s3Prefix prepended to the path, then local with the
// path unchanged. primary may be nil.
func NewFallbackLoader(primary, local Loader, s3Prefix string, logger zerolog.Logger) Loader {
	return &fallbackLoader{
		primary:  primary,
		local:    local,
		s3Prefix: s3Prefix,
		logger:   logger.With().Str("component", "fallback-pincode-loader").Logger(),
	}
}

func (l *fallbackLoader) Load(ctx context.Context, path string) (Set, error) {
	if l.primary != nil {
		key := l.s3Prefix + path
		set, err := l.primary.Load(ctx, key)
		if err == nil {
			return set, nil
		}
		l.logger.Warn().Err(err).Str("s3_key", key).Msg("failed to load from S3, falling back to local file system")
	}
	return l.local.Load(ctx, path)
}
