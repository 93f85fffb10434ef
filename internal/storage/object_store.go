package storage

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"

	"gallery/internal/config"
)

type ObjectStore struct {
	client *minio.Client
	cfg    config.StorageConfig
}

func NewObjectStore(cfg config.StorageConfig) (*ObjectStore, error) {
	endpoint := cfg.Endpoint
	useSSL := cfg.UseSSL

	if strings.HasPrefix(endpoint, "http") {
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, errors.Wrap(err, "parse endpoint")
		}
		endpoint = u.Host
		useSSL = u.Scheme == "https"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errors.Wrap(err, "init minio")
	}

	return &ObjectStore{
		client: client,
		cfg:    cfg,
	}, nil
}

func (s *ObjectStore) EnsureBuckets(ctx context.Context) error {
	bucket := s.cfg.BucketOriginals
	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return errors.Wrapf(err, "bucket exists %s", bucket)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: s.cfg.Region}); err != nil {
			return errors.Wrapf(err, "create bucket %s", bucket)
		}
	}
	return nil
}

// PresignUpload returns a URL the client can PUT the object body to
// directly. The signature is computed locally.
func (s *ObjectStore) PresignUpload(ctx context.Context, objectKey string, ttl time.Duration) (*url.URL, error) {
	u, err := s.client.PresignedPutObject(ctx, s.cfg.BucketOriginals, objectKey, ttl)
	if err != nil {
		return nil, errors.Wrapf(err, "presign put %s", objectKey)
	}
	return u, nil
}
