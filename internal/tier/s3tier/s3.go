// Package s3tier implements an AWS S3 durable tier, for caches shared
// across hosts.
package s3tier

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/pantrylabs/pantry/internal/codec"
	"github.com/pantrylabs/pantry/internal/tier"
)

// Namespace mirrors the disk tier's on-disk format version.
const Namespace = "v1"

// Compile-time check that Tier implements tier.Tier.
var _ tier.Tier = (*Tier)(nil)

// Tier is an AWS S3 durable tier.
type Tier struct {
	client *s3.Client
	bucket string
	prefix string
	codec  codec.Codec
}

// New creates a new S3 tier. The bucket must already exist.
// The codec handles compression/decompression of payloads.
func New(ctx context.Context, bucketName string, c codec.Codec, opts ...Option) (*Tier, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	t := &Tier{
		client: s3.NewFromConfig(cfg),
		bucket: bucketName,
		codec:  c,
	}

	for _, opt := range opts {
		if err := opt(t); err != nil {
			return nil, err
		}
	}

	return t, nil
}

// Option configures a Tier.
type Option func(*Tier) error

// WithPrefix sets a key prefix for all operations.
func WithPrefix(prefix string) Option {
	return func(t *Tier) error {
		t.prefix = strings.TrimSuffix(prefix, "/")
		if t.prefix != "" {
			t.prefix += "/"
		}
		return nil
	}
}

// WithRegion sets the AWS region.
func WithRegion(region string) Option {
	return func(t *Tier) error {
		cfg, err := config.LoadDefaultConfig(context.Background(), config.WithRegion(region))
		if err != nil {
			return fmt.Errorf("loading AWS config with region: %w", err)
		}
		t.client = s3.NewFromConfig(cfg)
		return nil
	}
}

// WithEndpoint sets a custom endpoint (for S3-compatible services like MinIO).
func WithEndpoint(endpoint string) Option {
	return func(t *Tier) error {
		cfg, err := config.LoadDefaultConfig(context.Background())
		if err != nil {
			return fmt.Errorf("loading AWS config for endpoint: %w", err)
		}
		t.client = s3.NewFromConfig(cfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		})
		return nil
	}
}

// Get reads and decodes the payload stored under key.
func (t *Tier) Get(ctx context.Context, key string) ([]byte, error) {
	result, err := t.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(t.bucket),
		Key:    aws.String(t.objectKey(key)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, tier.ErrNotFound
		}
		return nil, fmt.Errorf("reading entry: %w", err)
	}
	defer result.Body.Close()

	decompressor, err := t.codec.Reader(result.Body)
	if err != nil {
		return nil, fmt.Errorf("creating decompressor: %w", err)
	}
	defer decompressor.Close()

	data, err := io.ReadAll(decompressor)
	if err != nil {
		return nil, fmt.Errorf("decompressing entry: %w", err)
	}

	return data, nil
}

// Set encodes and stores the payload under key.
func (t *Tier) Set(ctx context.Context, key string, data []byte) error {
	var buf bytes.Buffer
	writer, err := t.codec.Writer(&buf)
	if err != nil {
		return fmt.Errorf("creating compressor: %w", err)
	}
	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return fmt.Errorf("compressing entry: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("compressing entry: %w", err)
	}

	_, err = t.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(t.bucket),
		Key:    aws.String(t.objectKey(key)),
		Body:   bytes.NewReader(buf.Bytes()),
	})
	if err != nil {
		return fmt.Errorf("writing entry: %w", err)
	}

	return nil
}

// Delete removes the entry stored under key.
// S3 delete is idempotent; deleting an absent object succeeds.
func (t *Tier) Delete(ctx context.Context, key string) error {
	_, err := t.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(t.bucket),
		Key:    aws.String(t.objectKey(key)),
	})
	if err != nil {
		return fmt.Errorf("removing entry: %w", err)
	}
	return nil
}

// Clear removes every entry under the tier's namespace prefix.
func (t *Tier) Clear(ctx context.Context) error {
	prefix := t.prefix + Namespace + "/objects/"
	paginator := s3.NewListObjectsV2Paginator(t.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(t.bucket),
		Prefix: aws.String(prefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("listing entries: %w", err)
		}
		if len(page.Contents) == 0 {
			continue
		}

		objects := make([]types.ObjectIdentifier, 0, len(page.Contents))
		for _, obj := range page.Contents {
			objects = append(objects, types.ObjectIdentifier{Key: obj.Key})
		}
		_, err = t.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(t.bucket),
			Delete: &types.Delete{Objects: objects},
		})
		if err != nil {
			return fmt.Errorf("deleting entries: %w", err)
		}
	}

	return nil
}

// Close releases resources.
func (t *Tier) Close() error {
	// The S3 client doesn't need explicit closing.
	return nil
}

// objectKey returns the full object key for a cache key.
func (t *Tier) objectKey(key string) string {
	return t.prefix + Namespace + "/objects/" + t.objectName(key)
}

// objectName returns the object filename for a cache key.
func (t *Tier) objectName(key string) string {
	name := tier.EncodeKey(key)
	if ext := t.codec.Extension(); ext != "" {
		name += "." + ext
	}
	return name
}
