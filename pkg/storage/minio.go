// Package storage 提供了与对象存储服务（如 MinIO）交互的功能。
package storage

import (
	"bytes"
	"context"
	"fmt"
	"pai-assistant-go/internal/config"
	"pai-assistant-go/pkg/log"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// SnapshotStore 将入库网页的文本快照保存到 MinIO。
type SnapshotStore struct {
	client *minio.Client
	bucket string
}

// InitMinIO 初始化 MinIO 客户端并确保指定的存储桶存在。
func InitMinIO(ctx context.Context, cfg config.MinIOConfig) (*SnapshotStore, error) {
	// 1. 初始化 MinIO 客户端
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("初始化 MinIO 客户端失败: %w", err)
	}
	log.Info("MinIO 客户端初始化成功")

	// 2. 检查存储桶 (Bucket) 是否存在，如果不存在则创建
	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("检查 MinIO 存储桶失败: %w", err)
	}
	if !exists {
		log.Infof("存储桶 '%s' 不存在，正在创建...", cfg.BucketName)
		if err := client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("创建 MinIO 存储桶失败: %w", err)
		}
		log.Infof("存储桶 '%s' 创建成功", cfg.BucketName)
	} else {
		log.Infof("存储桶 '%s' 已存在", cfg.BucketName)
	}

	return &SnapshotStore{client: client, bucket: cfg.BucketName}, nil
}

// ObjectName 返回快照的对象路径：pages/<host>/<jobID>.md
func ObjectName(host, jobID string) string {
	return fmt.Sprintf("pages/%s/%s.md", host, jobID)
}

// PutSnapshot 上传一份文本快照，返回对象路径。
func (s *SnapshotStore) PutSnapshot(ctx context.Context, host, jobID, sourceURL string, content []byte) (string, error) {
	objectName := ObjectName(host, jobID)
	_, err := s.client.PutObject(ctx, s.bucket, objectName, bytes.NewReader(content), int64(len(content)), minio.PutObjectOptions{
		ContentType:  "text/markdown; charset=utf-8",
		UserMetadata: map[string]string{"source-url": sourceURL},
	})
	if err != nil {
		return "", fmt.Errorf("上传快照到 MinIO 失败: %w", err)
	}
	return objectName, nil
}

// GetPresignedURL 为快照生成一个临时下载链接。
func (s *SnapshotStore) GetPresignedURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	presignedURL, err := s.client.PresignedGetObject(ctx, s.bucket, objectName, expiry, nil)
	if err != nil {
		log.Errorf("Error generating presigned URL: %s", err)
		return "", err
	}
	return presignedURL.String(), nil
}
