package minio

import (
	"Crosspost/internal/api/config"
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
)

// UploadFile 上传文件到主存储桶
func UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (string, error) {
	if Client == nil {
		return "", fmt.Errorf("minio client is not initialized")
	}

	uploadInfo, err := Client.PutObject(ctx, MainBucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}

	return uploadInfo.Key, nil
}

// DownloadFile 读取主存储桶中的对象内容
func DownloadFile(ctx context.Context, objectName string) ([]byte, error) {
	if Client == nil {
		return nil, fmt.Errorf("minio client is not initialized")
	}

	obj, err := Client.GetObject(ctx, MainBucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	defer func() { _ = obj.Close() }()

	var buf bytes.Buffer
	if _, err = io.Copy(&buf, obj); err != nil {
		return nil, fmt.Errorf("failed to read object: %w", err)
	}
	return buf.Bytes(), nil
}

// DeleteFile 删除主存储桶中的对象
func DeleteFile(ctx context.Context, objectName string) error {
	if Client == nil {
		return fmt.Errorf("minio client is not initialized")
	}

	err := Client.RemoveObject(ctx, MainBucket, objectName, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	return nil
}

// GetPublicURL 获取文件的公共访问URL
func GetPublicURL(objectName string) string {
	cfg := config.Cfg.MinIO

	protocol := "http"
	if cfg.UsePublicLink || cfg.InternalEndpoint == "" {
		protocol = "https"
	}

	endpoint := cfg.ExternalEndpoint
	if endpoint == "" {
		endpoint = cfg.InternalEndpoint
	}

	return fmt.Sprintf("%s://%s/%s/%s", protocol, endpoint, MainBucket, objectName)
}

// ObjectStorage 以实例形式暴露对象存储能力，供服务层按接口注入
type ObjectStorage struct{}

func NewObjectStorage() *ObjectStorage {
	return &ObjectStorage{}
}

func (s *ObjectStorage) Download(ctx context.Context, objectName string) ([]byte, error) {
	return DownloadFile(ctx, objectName)
}

func (s *ObjectStorage) Delete(ctx context.Context, objectName string) error {
	return DeleteFile(ctx, objectName)
}
