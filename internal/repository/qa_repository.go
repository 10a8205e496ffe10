// Package repository 提供了数据访问层的实现。
package repository

import (
	"context"
	"pai-assistant-go/internal/model"

	"gorm.io/gorm"
)

// QARepository 定义了问答审计记录的持久化操作。该表只追加，不被业务读取。
type QARepository interface {
	Insert(ctx context.Context, entry *model.QAEntry) error
}

type qaRepository struct {
	db *gorm.DB
}

// NewQARepository 创建一个新的 QARepository 实例。
func NewQARepository(db *gorm.DB) QARepository {
	return &qaRepository{db: db}
}

// Insert 写入一条问答记录。
func (r *qaRepository) Insert(ctx context.Context, entry *model.QAEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}
