package repository

import (
	"context"
	"pai-assistant-go/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// KnowledgeFileRepository 定义了 knowledge_files 入库台账的数据操作接口。
type KnowledgeFileRepository interface {
	Upsert(ctx context.Context, record *model.KnowledgeFile) error
	Update(ctx context.Context, jobID string, fields map[string]interface{}) error
	FindByJobID(ctx context.Context, jobID string) (*model.KnowledgeFile, error)
	ListRecent(ctx context.Context, limit int) ([]model.KnowledgeFile, error)
}

type knowledgeFileRepository struct {
	db *gorm.DB
}

// NewKnowledgeFileRepository 创建一个新的 KnowledgeFileRepository 实例。
func NewKnowledgeFileRepository(db *gorm.DB) KnowledgeFileRepository {
	return &knowledgeFileRepository{db: db}
}

// Upsert 创建一条入库记录；同一 jobID 重试时重置状态和错误信息。
func (r *knowledgeFileRepository) Upsert(ctx context.Context, record *model.KnowledgeFile) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "job_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"source_url", "file_name", "size", "status", "error", "updated_at"}),
	}).Create(record).Error
}

// Update 按 jobID 更新记录的部分字段。
func (r *knowledgeFileRepository) Update(ctx context.Context, jobID string, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.KnowledgeFile{}).Where("job_id = ?", jobID).Updates(fields).Error
}

// FindByJobID 根据 jobID 查询记录，不存在时返回 gorm.ErrRecordNotFound。
func (r *knowledgeFileRepository) FindByJobID(ctx context.Context, jobID string) (*model.KnowledgeFile, error) {
	var record model.KnowledgeFile
	if err := r.db.WithContext(ctx).Where("job_id = ?", jobID).First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// ListRecent 按创建时间倒序返回最近的记录。
func (r *knowledgeFileRepository) ListRecent(ctx context.Context, limit int) ([]model.KnowledgeFile, error) {
	var records []model.KnowledgeFile
	err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&records).Error
	return records, err
}
