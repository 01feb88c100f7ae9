package uploader

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"postboard/internal/pkg/config"

	"github.com/google/uuid"
)

// Kind 附件类型，决定存储目录
type Kind string

const (
	KindImage    Kind = "image"
	KindDocument Kind = "document"
)

// Folder images/ 或 documents/
func (k Kind) Folder() string {
	return string(k) + "s"
}

// Object 已上传的对象
type Object struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// Uploader 对象存储接口
type Uploader interface {
	Upload(ctx context.Context, kind Kind, filename string, body io.Reader, contentType string) (Object, error)
	Delete(ctx context.Context, key string) error
}

// ObjectKey 生成 <kind>s/<uuid><ext>，文件名随机，冲突概率可忽略
func ObjectKey(kind Kind, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return fmt.Sprintf("%s/%s%s", kind.Folder(), uuid.New().String(), ext)
}

// PublicURL 拼接公开访问地址
func PublicURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}

// NewUploader 根据配置选择存储驱动
func NewUploader(ctx context.Context) (Uploader, error) {
	switch config.GlobalConfig.Storage.Driver {
	case "s3":
		return NewS3Uploader(ctx, config.GlobalConfig.Storage, config.GlobalConfig.S3)
	case "oss", "":
		return NewAliyunOSSUploader(config.GlobalConfig.Storage, config.GlobalConfig.OSS)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", config.GlobalConfig.Storage.Driver)
	}
}
