package openai

import (
	"fmt"
	"pai-assistant-go/internal/model"
)

type messageRequest struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type threadRequest struct {
	Messages []messageRequest `json:"messages"`
}

type runRequest struct {
	AssistantID string `json:"assistant_id"`
}

type fileBatchRequest struct {
	FileIDs []string `json:"file_ids"`
}

type errorEnvelope struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

type thread struct {
	ID string `json:"id"`
}

type run struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	LastError *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"last_error"`
}

type file struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Bytes    int64  `json:"bytes"`
}

type fileBatch struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	FileCounts struct {
		InProgress int `json:"in_progress"`
		Completed  int `json:"completed"`
		Failed     int `json:"failed"`
		Cancelled  int `json:"cancelled"`
		Total      int `json:"total"`
	} `json:"file_counts"`
}

type messageList struct {
	Object  string        `json:"object"`
	Data    []wireMessage `json:"data"`
	FirstID string        `json:"first_id"`
	LastID  string        `json:"last_id"`
	HasMore bool          `json:"has_more"`
}

type wireMessage struct {
	ID          string            `json:"id"`
	ThreadID    string            `json:"thread_id"`
	Role        string            `json:"role"`
	CreatedAt   int64             `json:"created_at"`
	AssistantID *string           `json:"assistant_id"`
	RunID       *string           `json:"run_id"`
	Content     []wireContent     `json:"content"`
	Metadata    map[string]string `json:"metadata"`
}

type wireContent struct {
	Type string    `json:"type"`
	Text *wireText `json:"text"`
}

type wireText struct {
	Value       *string          `json:"value"`
	Annotations []wireAnnotation `json:"annotations"`
}

type wireAnnotation struct {
	Type         string `json:"type"`
	Text         string `json:"text"`
	StartIndex   int    `json:"start_index"`
	EndIndex     int    `json:"end_index"`
	FileCitation *struct {
		FileID string `json:"file_id"`
	} `json:"file_citation"`
}

// toModel validates required fields and keeps only text content.
func (w wireMessage) toModel() (model.Message, error) {
	if w.ID == "" {
		return model.Message{}, fmt.Errorf("%w: message.id", ErrSchema)
	}
	if w.Role == "" {
		return model.Message{}, fmt.Errorf("%w: message.role (id=%s)", ErrSchema, w.ID)
	}
	m := model.Message{
		ID:             w.ID,
		ConversationID: w.ThreadID,
		Role:           w.Role,
		CreatedAt:      w.CreatedAt,
	}
	if w.RunID != nil {
		m.RunID = *w.RunID
	}
	for _, c := range w.Content {
		if c.Type != "text" {
			continue
		}
		if c.Text == nil || c.Text.Value == nil {
			return model.Message{}, fmt.Errorf("%w: message.content.text.value (id=%s)", ErrSchema, w.ID)
		}
		seg := model.TextSegment{Value: *c.Text.Value}
		for _, a := range c.Text.Annotations {
			if a.FileCitation == nil {
				continue
			}
			seg.Citations = append(seg.Citations, model.Citation{
				Text:   a.Text,
				FileID: a.FileCitation.FileID,
				Start:  a.StartIndex,
				End:    a.EndIndex,
			})
		}
		m.Content = append(m.Content, seg)
	}
	return m, nil
}
