// Package model 包含了应用的数据模型定义。
package model

// RunStatus 是 run（生成下一条助手回复的外部任务）的状态。
type RunStatus string

const (
	RunStatusQueued         RunStatus = "queued"
	RunStatusInProgress     RunStatus = "in_progress"
	RunStatusCompleted      RunStatus = "completed"
	RunStatusFailed         RunStatus = "failed"
	RunStatusExpired        RunStatus = "expired"
	RunStatusCancelling     RunStatus = "cancelling"
	RunStatusCancelled      RunStatus = "cancelled"
	RunStatusIncomplete     RunStatus = "incomplete"
	RunStatusRequiresAction RunStatus = "requires_action"
)

// Terminal 报告 run 是否不会再发生状态迁移。
// requires_action 需要调用方提交工具输出，本服务不处理，视为终态。
func (s RunStatus) Terminal() bool {
	switch s {
	case RunStatusQueued, RunStatusInProgress, RunStatusCancelling:
		return false
	}
	return true
}

// RunHandle 定位一次已提交的 run。
type RunHandle struct {
	ConversationID string
	RunID          string
}

// Message 角色
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message 是对话中的一条消息，Content 按服务商返回的顺序保存文本片段。
type Message struct {
	ID             string
	ConversationID string
	Role           string
	RunID          string
	CreatedAt      int64
	Content        []TextSegment
}

// TextSegment 是消息中的一个文本片段。Citations 为可选的文件引用。
type TextSegment struct {
	Value     string
	Citations []Citation
}

// Citation 记录回答文本中引用的知识文件。
type Citation struct {
	Text   string
	FileID string
	Start  int
	End    int
}

// FirstText 返回消息的第一个文本片段。
func (m Message) FirstText() (string, bool) {
	if len(m.Content) == 0 {
		return "", false
	}
	return m.Content[0].Value, true
}

// Answer 是问答流程对调用方的统一返回。
type Answer struct {
	ConversationID string `json:"thread_id"`
	Text           string `json:"message"`
	Degraded       bool   `json:"degraded"`
}
