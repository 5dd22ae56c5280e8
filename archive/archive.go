// Package archive mirrors submitted PV evidence to S3-compatible storage.
//
// The backend owns the authoritative PV files; this mirror is a local
// audit trail kept by the submitting organization. Archival is best
// effort and runs after a successful submission. An archive failure
// never fails the submission itself.
package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Config configures the PV archiver.
type Config struct {
	// Bucket is the S3 bucket name (required).
	Bucket string
	// Prefix is the key prefix within the bucket (optional).
	Prefix string
	// Region is the AWS region (optional, uses default chain if empty).
	Region string
	// Endpoint is a custom S3 endpoint URL for S3-compatible providers
	// (e.g. MinIO, Cloudflare R2). Empty uses the default AWS endpoint.
	Endpoint string
	// UsePathStyle forces path-style addressing (bucket in path, not
	// subdomain). Required by most S3-compatible providers.
	UsePathStyle bool
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.Bucket == "" {
		return errors.New("archive bucket is required")
	}
	return nil
}

// Archiver uploads PV files to the configured bucket.
type Archiver struct {
	client *s3.Client
	bucket string
	prefix string
}

// New creates an archiver using the AWS SDK default credential chain
// (env vars, shared config, IAM role).
func New(ctx context.Context, cfg Config) (*Archiver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		endpoint := cfg.Endpoint
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = &endpoint
		})
	}
	if cfg.UsePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	return &Archiver{
		client: s3.NewFromConfig(awsCfg, s3Opts...),
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
	}, nil
}

// KeyFor builds the archive key for one PV file. The layout keys on
// election, constituency, and station so an audit can walk the tree.
func (a *Archiver) KeyFor(electionID, constituencyID, stationID int64, filename string) string {
	return path.Join(
		a.prefix,
		fmt.Sprintf("election=%d", electionID),
		fmt.Sprintf("cir=%d", constituencyID),
		fmt.Sprintf("bv=%d", stationID),
		filename,
	)
}

// Store uploads one PV file under the given key.
func (a *Archiver) Store(ctx context.Context, key, contentType string, data []byte) error {
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &a.bucket,
		Key:         &key,
		Body:        bytes.NewReader(data),
		ContentType: &contentType,
	})
	if err != nil {
		return fmt.Errorf("archive PV %s: %w", key, err)
	}
	return nil
}
