package uploader

import (
	"context"
	"fmt"
	"io"
	"strings"

	"postboard/internal/pkg/config"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
)

type AliyunOSSUploader struct {
	client  *oss.Client
	bucket  *oss.Bucket
	baseURL string
}

func NewAliyunOSSUploader(storage config.StorageConfig, cfg config.OSSConfig) (*AliyunOSSUploader, error) {
	client, err := oss.New(cfg.Endpoint, cfg.AccessKeyID, cfg.AccessKeySecret)
	if err != nil {
		return nil, err
	}

	bucket, err := client.Bucket(storage.Bucket)
	if err != nil {
		return nil, err
	}

	baseURL := storage.PublicBaseURL
	if baseURL == "" {
		// 假设 bucket 为公共读或走 CDN
		host := strings.TrimPrefix(strings.TrimPrefix(cfg.Endpoint, "https://"), "http://")
		baseURL = fmt.Sprintf("https://%s.%s", storage.Bucket, host)
	}

	return &AliyunOSSUploader{
		client:  client,
		bucket:  bucket,
		baseURL: baseURL,
	}, nil
}

func (u *AliyunOSSUploader) Upload(ctx context.Context, kind Kind, filename string, body io.Reader, contentType string) (Object, error) {
	key := ObjectKey(kind, filename)
	if err := u.bucket.PutObject(key, body, oss.ContentType(contentType), oss.WithContext(ctx)); err != nil {
		return Object{}, fmt.Errorf("oss put %s: %w", key, err)
	}
	return Object{Key: key, URL: PublicURL(u.baseURL, key)}, nil
}

func (u *AliyunOSSUploader) Delete(ctx context.Context, key string) error {
	if err := u.bucket.DeleteObject(key, oss.WithContext(ctx)); err != nil {
		return fmt.Errorf("oss delete %s: %w", key, err)
	}
	return nil
}
