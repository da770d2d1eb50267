package storage

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"batch-transcriber/internal/config"
	"batch-transcriber/internal/domain/ports/adapter"
)

var _ adapter.ObjectLister = (*MinioLister)(nil)

// MinioLister enumerates objects for s3://bucket/prefix style sources.
type MinioLister struct {
	cli *minio.Client
}

func NewMinioLister(cfg config.StorageConfig) (*MinioLister, error) {
	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	return &MinioLister{cli: cli}, nil
}

func (l *MinioLister) List(ctx context.Context, source, pattern string) ([]string, error) {
	u, err := url.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("parse source %q: %w", source, err)
	}
	bucket := u.Host
	prefix := strings.TrimPrefix(u.Path, "/")
	if bucket == "" {
		return nil, fmt.Errorf("source %q has no bucket", source)
	}

	match := pattern
	if match == "" {
		match = "**/*"
	} else if !strings.Contains(match, "/") {
		match = "**/" + match
	}

	var keys []string
	opts := minio.ListObjectsOptions{Prefix: prefix, Recursive: true}
	for obj := range l.cli.ListObjects(ctx, bucket, opts) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		rel := strings.TrimPrefix(strings.TrimPrefix(obj.Key, prefix), "/")
		ok, err := doublestar.Match(match, rel)
		if err != nil || !ok {
			continue
		}
		keys = append(keys, u.Scheme+"://"+path.Join(bucket, obj.Key))
	}
	return keys, nil
}
