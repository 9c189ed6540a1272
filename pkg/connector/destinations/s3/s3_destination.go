// Package s3 mirrors result files written by the pipeline to an S3 bucket.
package s3

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/ajitpratap0/canopy/pkg/compression"
	"github.com/ajitpratap0/canopy/pkg/config"
	"github.com/ajitpratap0/canopy/pkg/errors"
	"github.com/ajitpratap0/canopy/pkg/logger"
)

// Uploader is the subset of manager.Uploader the mirror uses
type Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3Destination uploads local result files to s3://bucket/prefix/<run id>/<file>.
type S3Destination struct {
	bucket   string
	prefix   string
	uploader Uploader
	logger   *zap.Logger
}

// NewS3Destination builds an uploader from the default AWS credential chain.
func NewS3Destination(ctx context.Context, cfg config.S3Config, log *zap.Logger) (*S3Destination, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "cannot load AWS configuration").
			WithDetail("key", "output.s3")
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})
	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = 8 * 1024 * 1024
		u.Concurrency = 2
	})
	return NewS3DestinationWithUploader(cfg, uploader, log), nil
}

// NewS3DestinationWithUploader uses uploader instead of an AWS client.
func NewS3DestinationWithUploader(cfg config.S3Config, uploader Uploader, log *zap.Logger) *S3Destination {
	if log == nil {
		log = logger.Get()
	}
	return &S3Destination{
		bucket:   cfg.Bucket,
		prefix:   strings.Trim(cfg.Prefix, "/"),
		uploader: uploader,
		logger:   log.With(zap.String("connector", "s3"), zap.String("bucket", cfg.Bucket)),
	}
}

// Key returns the object key of localPath for a run.
func (d *S3Destination) Key(runID, localPath string) string {
	return path.Join(d.prefix, runID, filepath.Base(localPath))
}

// Upload copies the file at localPath and returns its s3:// URI. Failures
// are sink write errors.
func (d *S3Destination) Upload(ctx context.Context, runID, localPath string, rows int) (string, error) {
	start := time.Now()
	key := d.Key(runID, localPath)

	file, err := os.Open(localPath) //nolint:gosec // G304: path is a result file written by this run
	if err != nil {
		return "", uploadError(err, "cannot open result file", localPath, key)
	}
	defer file.Close()

	input := &s3.PutObjectInput{
		Bucket:      aws.String(d.bucket),
		Key:         aws.String(key),
		Body:        file,
		ContentType: aws.String("text/csv"),
		Metadata: map[string]string{
			"rows":    strconv.Itoa(rows),
			"run-id":  runID,
			"created": time.Now().UTC().Format(time.RFC3339),
		},
	}
	if algo := compression.DetectFromPath(localPath); algo != compression.None {
		input.Metadata["compression"] = string(algo)
	}

	if _, err := d.uploader.Upload(ctx, input); err != nil {
		return "", uploadError(err, "failed to upload to S3", localPath, key)
	}

	uri := "s3://" + d.bucket + "/" + key
	d.logger.Info("result uploaded to S3",
		zap.String("location", uri),
		zap.Int("rows", rows),
		zap.Duration("duration", time.Since(start)))
	return uri, nil
}

func uploadError(err error, msg, localPath, key string) error {
	return errors.Wrap(err, errors.ErrorTypeSinkWrite, msg).
		WithDetail("path", localPath).
		WithDetail("key", key)
}
