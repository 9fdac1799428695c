// storage.go
package s3

import (
	"context"
	"io"

	"famdrive/internal/domain"
)

// S3Object определяет интерфейс для объектов S3
type S3Object interface {
	io.ReadCloser
	ContentLength() int64
	ContentType() string
}

// s3Object реализует интерфейс S3Object
type s3Object struct {
	io.ReadCloser
	contentLength int64
	contentType   string
}

func (o *s3Object) ContentLength() int64 {
	return o.contentLength
}

func (o *s3Object) ContentType() string {
	return o.contentType
}

// Storage определяет интерфейс для работы с S3-совместимым хранилищем
type Storage interface {
	List(ctx context.Context, prefix string) ([]domain.BlobObject, error)
	ListAll(ctx context.Context, prefix string) ([]domain.BlobObject, error)
	UploadBytes(key string, data []byte) error
	Download(ctx context.Context, key string) ([]byte, error)
	GetObject(ctx context.Context, key string) (S3Object, error)
	DeleteObjects(ctx context.Context, keys []string) error
	Copy(ctx context.Context, srcKey, dstKey string) error
	PublicURL(key string) string
}
