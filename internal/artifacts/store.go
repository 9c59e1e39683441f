// Package artifacts stores screenshots and documents under test in an
// S3-compatible bucket. Tests use gofakes3 via TestStore.
package artifacts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	suiteconfig "github.com/kuitang/site-e2e/internal/config"
	"github.com/kuitang/site-e2e/internal/errs"
	"github.com/kuitang/site-e2e/internal/obs"
)

// ErrObjectNotFound is returned when a requested artifact does not exist.
var ErrObjectNotFound = errs.New(errs.NotFound, "artifacts: object not found")

// Store uploads and downloads artifacts under a key prefix in one bucket.
type Store struct {
	s3Client   *s3.Client
	bucketName string
	prefix     string
	logger     *slog.Logger
}

// Config holds the configuration for creating a Store.
type Config struct {
	// Endpoint is the S3 endpoint URL. Leave empty to use AWS S3.
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	// Prefix is prepended to every key, e.g. "runs/2024-01-15".
	Prefix string
	// UsePathStyle is required for gofakes3 and most self-hosted stores.
	UsePathStyle bool
}

// New creates a Store with the given configuration.
func New(ctx context.Context, cfg Config) (*Store, error) {
	var opts []func(*config.LoadOptions) error

	opts = append(opts, config.WithRegion(cfg.Region))

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	sdkConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(sdkConfig, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return NewFromS3Client(s3Client, cfg.BucketName, cfg.Prefix), nil
}

// FromSuiteConfig builds a Store from the suite configuration. It returns
// nil when no artifacts bucket is configured.
func FromSuiteConfig(ctx context.Context, cfg *suiteconfig.Config) (*Store, error) {
	if !cfg.ArtifactsEnabled() {
		return nil, nil
	}
	return New(ctx, Config{
		Endpoint:        cfg.AWSEndpointS3,
		Region:          cfg.AWSRegion,
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretAccessKey,
		BucketName:      cfg.ArtifactsBucket,
		Prefix:          cfg.ArtifactsPrefix,
		UsePathStyle:    cfg.AWSEndpointS3 != "",
	})
}

// NewFromS3Client creates a Store from an existing S3 client.
func NewFromS3Client(s3Client *s3.Client, bucketName, prefix string) *Store {
	return &Store{
		s3Client:   s3Client,
		bucketName: bucketName,
		prefix:     strings.Trim(prefix, "/"),
		logger:     obs.Pkg("artifacts"),
	}
}

// Key returns the full object key for name under the store prefix.
func (s *Store) Key(name string) string {
	name = strings.TrimPrefix(filepath.ToSlash(name), "/")
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}

// Put stores content under name with the given content type and returns the
// full key.
func (s *Store) Put(ctx context.Context, name string, content []byte, contentType string) (string, error) {
	key := s.Key(name)
	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(content),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("artifacts: failed to put object %q: %w", key, err)
	}
	obs.From(ctx).Debug("artifact stored", "pkg", "artifacts", "bucket", s.bucketName, "key", key, "bytes", len(content))
	return key, nil
}

// UploadFile reads a local file and stores it under name. The content type
// is guessed from the extension.
func (s *Store) UploadFile(ctx context.Context, localPath, name string) (string, error) {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return "", fmt.Errorf("artifacts: failed to read %q: %w", localPath, err)
	}
	return s.Put(ctx, name, data, ContentTypeFor(localPath))
}

// Get retrieves the content stored under name.
// Returns ErrObjectNotFound if the key does not exist.
func (s *Store) Get(ctx context.Context, name string) ([]byte, error) {
	key := s.Key(name)
	result, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, ErrObjectNotFound
		}
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("artifacts: failed to get object %q: %w", key, err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("artifacts: failed to read object body %q: %w", key, err)
	}
	return data, nil
}

// DownloadFile fetches name into localPath, creating parent directories.
// Documents under test are pulled this way before PDF assertions run.
func (s *Store) DownloadFile(ctx context.Context, name, localPath string) error {
	data, err := s.Get(ctx, name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return fmt.Errorf("artifacts: failed to create %q: %w", filepath.Dir(localPath), err)
	}
	if err := os.WriteFile(localPath, data, 0o644); err != nil {
		return fmt.Errorf("artifacts: failed to write %q: %w", localPath, err)
	}
	s.logger.Debug("artifact downloaded", "bucket", s.bucketName, "key", s.Key(name), "path", localPath)
	return nil
}

// List returns the names (relative to the store prefix) of every object
// whose name starts with namePrefix.
func (s *Store) List(ctx context.Context, namePrefix string) ([]string, error) {
	full := s.Key(namePrefix)
	paginator := s3.NewListObjectsV2Paginator(s.s3Client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucketName),
		Prefix: aws.String(full),
	})
	var names []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("artifacts: failed to list %q: %w", full, err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if s.prefix != "" {
				key = strings.TrimPrefix(key, s.prefix+"/")
			}
			names = append(names, key)
		}
	}
	return names, nil
}

// Delete removes the object stored under name.
// Returns nil if the object was deleted or did not exist.
func (s *Store) Delete(ctx context.Context, name string) error {
	key := s.Key(name)
	_, err := s.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("artifacts: failed to delete object %q: %w", key, err)
	}
	s.logger.Debug("artifact deleted", "bucket", s.bucketName, "key", key)
	return nil
}

// BucketName returns the configured bucket name.
func (s *Store) BucketName() string {
	return s.bucketName
}

// ContentTypeFor guesses a MIME type from a file extension.
func ContentTypeFor(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png":
		return "image/png"
	case ".pdf":
		return "application/pdf"
	case ".json":
		return "application/json"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
		return t
	}
	return "application/octet-stream"
}
