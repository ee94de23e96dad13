// Package upload copies run artifacts to object storage.
package upload

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// PutObjectAPI is the part of *s3.Client the uploader needs.
type PutObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Options configures NewS3Client.
type Options struct {
	Region   string
	Endpoint string // for S3-compatible stores; implies path-style addressing
}

// NewS3Client builds a client from the default AWS credential chain.
func NewS3Client(ctx context.Context, opts Options) (*s3.Client, error) {
	var loadOpts []func(*config.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(opts.Region))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if opts.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		})
	}
	return s3.NewFromConfig(awsCfg, s3Opts...), nil
}

// S3Uploader puts artifacts under <prefix>/<YYYY-MM-DD>/<run id>/<file name>.
type S3Uploader struct {
	client PutObjectAPI
	bucket string
	prefix string
	logger *slog.Logger
}

// NewS3Uploader creates an uploader for bucket.
func NewS3Uploader(client PutObjectAPI, bucket, prefix string, logger *slog.Logger) *S3Uploader {
	return &S3Uploader{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		logger: logger,
	}
}

// Key returns the object key for file in the given run.
func (u *S3Uploader) Key(runID string, runDate time.Time, file string) string {
	return path.Join(u.prefix, runDate.Format("2006-01-02"), runID, filepath.Base(file))
}

// Upload copies each file. Missing files are skipped; the first failed put
// stops the upload.
func (u *S3Uploader) Upload(ctx context.Context, runID string, runDate time.Time, files []string) error {
	uploaded := 0
	for _, f := range files {
		if err := u.put(ctx, u.Key(runID, runDate, f), f); err != nil {
			if os.IsNotExist(err) {
				u.logger.Debug("artifact missing, not uploaded", "file", f)
				continue
			}
			return err
		}
		uploaded++
	}
	u.logger.Info("artifacts uploaded", "bucket", u.bucket, "run_id", runID, "files", uploaded)
	return nil
}

func (u *S3Uploader) put(ctx context.Context, key, file string) error {
	fh, err := os.Open(file)
	if err != nil {
		return err
	}
	defer fh.Close()

	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        fh,
		ContentType: aws.String(contentType(file)),
	})
	if err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", u.bucket, key, err)
	}
	return nil
}

func contentType(file string) string {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".csv":
		return "text/csv; charset=utf-8"
	case ".json":
		return "application/json"
	default:
		return "text/plain; charset=utf-8"
	}
}
