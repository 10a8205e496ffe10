package model

import "time"

// BatchStatus 是向量索引 batch 的状态。
type BatchStatus string

const (
	BatchStatusInProgress BatchStatus = "in_progress"
	BatchStatusCompleted  BatchStatus = "completed"
	BatchStatusFailed     BatchStatus = "failed"
	BatchStatusCancelled  BatchStatus = "cancelled"
)

// Terminal 报告 batch 是否已结束。
func (s BatchStatus) Terminal() bool {
	return s != BatchStatusInProgress
}

// BatchHandle 定位一次已创建的索引 batch。
type BatchHandle struct {
	VectorStoreID string
	BatchID       string
}

// KnowledgeFile 状态，记录在 knowledge_files 表中。
const (
	KnowledgeStatusQueued    = "queued"
	KnowledgeStatusUploading = "uploading"
	KnowledgeStatusIndexing  = "indexing"
	KnowledgeStatusCompleted = "completed"
	KnowledgeStatusFailed    = "failed"
)

// KnowledgeFile 记录每一次入库请求的过程，便于排查未回滚的上传文件。
type KnowledgeFile struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	JobID     string    `gorm:"type:varchar(36);uniqueIndex;not null" json:"jobId"`
	SourceURL string    `gorm:"type:varchar(2048)" json:"sourceUrl"`
	FileName  string    `gorm:"type:varchar(255);not null" json:"fileName"`
	Size      int       `gorm:"not null" json:"size"`
	FileID    string    `gorm:"type:varchar(64)" json:"fileId"`
	BatchID   string    `gorm:"type:varchar(64)" json:"batchId"`
	Status    string    `gorm:"type:varchar(16);not null;index" json:"status"`
	Error     string    `gorm:"type:text" json:"error"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (KnowledgeFile) TableName() string {
	return "knowledge_files"
}

// KnowledgePage 是存储在 Elasticsearch 中的已入库网页目录条目。
type KnowledgePage struct {
	JobID      string    `json:"job_id"`
	SourceURL  string    `json:"source_url"`
	Host       string    `json:"host"`
	FileName   string    `json:"file_name"`
	FileID     string    `json:"file_id"`
	Content    string    `json:"content"`
	SnapshotAt time.Time `json:"snapshot_at"`
}

// PageHit 是目录检索返回给前端的结果。
type PageHit struct {
	JobID     string  `json:"jobId"`
	SourceURL string  `json:"sourceUrl"`
	FileName  string  `json:"fileName"`
	Snippet   string  `json:"snippet"`
	Score     float64 `json:"score"`
}

// IngestResult 是入库流程对调用方的返回。
type IngestResult struct {
	Content string `json:"content"`
}
