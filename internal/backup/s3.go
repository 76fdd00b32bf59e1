// Package backup exports collection snapshots to S3-compatible object storage.
package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/cardkeeper/internal/common"
	"github.com/dmitrijs2005/cardkeeper/internal/logging"
	"github.com/dmitrijs2005/cardkeeper/internal/models"
	"github.com/google/uuid"
)

// Seams for tests.
var (
	loadDefaultAWSConfig  = config.LoadDefaultConfig
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}
	newKeyID = func() string { return uuid.NewString() }
)

const keyPrefix = "backups"

// Config locates the bucket. Endpoint is optional and, when set, switches the
// client to path-style addressing (MinIO and friends).
type Config struct {
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
}

// Enabled reports whether a bucket is configured.
func (c Config) Enabled() bool {
	return c.Bucket != ""
}

// Source yields every card to export.
type Source interface {
	FindAll(ctx context.Context) ([]models.Card, error)
}

// Snapshot is the document written for each backup.
type Snapshot struct {
	ExportedAt time.Time     `json:"exported_at"`
	Backend    string        `json:"backend"`
	Cards      []models.Card `json:"cards"`
}

type S3Store struct {
	cfg    Config
	logger logging.Logger
	now    func() time.Time
}

func NewS3Store(cfg Config, logger logging.Logger) *S3Store {
	return &S3Store{
		cfg:    cfg,
		logger: logger.With("module", "backup"),
		now:    time.Now,
	}
}

// Key builds the object key for a snapshot taken at t.
func Key(t time.Time, id string) string {
	t = t.UTC()
	return path.Join(keyPrefix,
		fmt.Sprintf("%04d", t.Year()),
		fmt.Sprintf("%02d", int(t.Month())),
		fmt.Sprintf("%02d", t.Day()),
		id+".json")
}

func (s *S3Store) client(ctx context.Context) (*s3.Client, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(s.cfg.Region)}
	if s.cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s.cfg.AccessKey, s.cfg.SecretKey, ""),
		))
	}

	cfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if s.cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(s.cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// Export writes a snapshot of every card in src and returns the object key.
func (s *S3Store) Export(ctx context.Context, src Source, backend string) (string, error) {
	if !s.cfg.Enabled() {
		return "", &common.ConfigError{Key: "S3_BUCKET", Message: "backup bucket is not configured"}
	}

	all, err := src.FindAll(ctx)
	if err != nil {
		return "", fmt.Errorf("backup: %w", err)
	}
	if all == nil {
		all = []models.Card{}
	}

	snap := Snapshot{ExportedAt: s.now().UTC(), Backend: backend, Cards: all}
	data, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("backup: encode snapshot: %w", err)
	}

	c, err := s.client(ctx)
	if err != nil {
		return "", fmt.Errorf("backup: %w", err)
	}

	key := Key(snap.ExportedAt, newKeyID())
	_, err = putObject(c, ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.cfg.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String("application/json"),
	})
	if err != nil {
		s.logger.Error(ctx, "backup upload failed", "bucket", s.cfg.Bucket, "key", key, "error", err)
		return "", fmt.Errorf("backup: put object: %w: %w", common.ErrStorageUnavailable, err)
	}

	s.logger.Info(ctx, "backup written", "bucket", s.cfg.Bucket, "key", key, "cards", len(all))
	return key, nil
}
