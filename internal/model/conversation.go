package model

import "time"

// ChatMessage 代表存储在 Redis 中的单条对话消息。
type ChatMessage struct {
	Role      string    `json:"role"` // "user" 或 "assistant"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// QAEntry 是一次成功问答的审计记录，只写不读。
type QAEntry struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ConversationID string    `gorm:"column:thread_id;type:varchar(64);index;not null" json:"threadId"`
	Question       string    `gorm:"type:text;not null" json:"question"`
	Answer         string    `gorm:"type:text;not null" json:"answer"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (QAEntry) TableName() string {
	return "q_and_a"
}
