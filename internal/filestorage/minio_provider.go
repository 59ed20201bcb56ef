package filestorage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/roomcraft/roomcraft/internal/config"
)

func NewMinIOStorage(cfg config.Config) (*MinIOStorage, error) {
	m, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioSecure,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &MinIOStorage{
		client:     m,
		bucket:     cfg.MinioBucket,
		publicPath: cfg.MinioPublicPath,
	}, nil
}

// MinIOStorage stores exported manifests under publicPath in one bucket.
type MinIOStorage struct {
	client     *minio.Client
	bucket     string
	publicPath string
}

func (f *MinIOStorage) GetPublicURL(_ context.Context) (string, error) {
	return fmt.Sprintf("%s/%s/%s", f.client.EndpointURL(), f.bucket, f.publicPath), nil
}

func (f *MinIOStorage) UploadFile(ctx context.Context, name string, data []byte) error {
	_, err := f.client.PutObject(ctx, f.bucket, f.key(name),
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType(name)})
	if err != nil {
		return fmt.Errorf("put object %s: %w", name, err)
	}
	return nil
}

func (f *MinIOStorage) GetPresignedURL(ctx context.Context, name string) (string, error) {
	u, err := f.client.PresignedGetObject(ctx, f.bucket, f.key(name), time.Minute*config.PRESIGN_URL_EXPIRE_MINUTES, nil)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

func (f *MinIOStorage) key(name string) string {
	return path.Join(f.publicPath, name)
}

func contentType(name string) string {
	switch path.Ext(name) {
	case ".csv":
		return "text/csv"
	case ".json":
		return "application/json"
	}
	return "application/octet-stream"
}
