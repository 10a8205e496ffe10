package service

import (
	"context"
	"errors"
	"pai-assistant-go/internal/model"
	"pai-assistant-go/pkg/crawler"
	"sync"

	"gorm.io/gorm"
)

var errBoom = errors.New("boom")

type fakeProvider struct {
	mu sync.Mutex

	createdID  string
	createErr  error
	appendErr  error
	submitErr  error
	statuses   []model.RunStatus
	pollErr    error
	pollBlocks bool
	messages   []model.Message
	listErr    error

	createCalls []string
	appendCalls []string
	submitCalls []string
	pollCalls   int
}

func (f *fakeProvider) CreateConversation(ctx context.Context, firstMessage string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls = append(f.createCalls, firstMessage)
	return f.createdID, f.createErr
}

func (f *fakeProvider) AppendMessage(ctx context.Context, conversationID, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appendCalls = append(f.appendCalls, conversationID+":"+content)
	return f.appendErr
}

func (f *fakeProvider) SubmitRun(ctx context.Context, conversationID, assistantID string) (model.RunHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitCalls = append(f.submitCalls, conversationID+":"+assistantID)
	return model.RunHandle{ConversationID: conversationID, RunID: "run_1"}, f.submitErr
}

func (f *fakeProvider) PollRun(ctx context.Context, h model.RunHandle) (model.RunStatus, error) {
	f.mu.Lock()
	f.pollCalls++
	n := f.pollCalls
	blocks := f.pollBlocks
	f.mu.Unlock()

	if blocks {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if f.pollErr != nil {
		return "", f.pollErr
	}
	if len(f.statuses) == 0 {
		return model.RunStatusInProgress, nil
	}
	if n > len(f.statuses) {
		return f.statuses[len(f.statuses)-1], nil
	}
	return f.statuses[n-1], nil
}

func (f *fakeProvider) ListMessages(ctx context.Context, conversationID string) ([]model.Message, error) {
	return f.messages, f.listErr
}

type recordedQA struct {
	conversationID, question, answer string
}

type fakeRecorder struct {
	mu      sync.Mutex
	records []recordedQA
}

func (r *fakeRecorder) Record(conversationID, question, answer string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, recordedQA{conversationID, question, answer})
}

func (r *fakeRecorder) all() []recordedQA {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recordedQA(nil), r.records...)
}

type fakeStore struct {
	uploadErr error
	batchErr  error
	statuses  []model.BatchStatus
	pollErr   error

	uploads      []string
	uploadedBody []byte
	batches      [][]string
	pollCalls    int
}

func (s *fakeStore) UploadFile(ctx context.Context, name string, content []byte) (string, error) {
	s.uploads = append(s.uploads, name)
	s.uploadedBody = content
	if s.uploadErr != nil {
		return "", s.uploadErr
	}
	return "file_1", nil
}

func (s *fakeStore) CreateIndexBatch(ctx context.Context, vectorStoreID string, fileIDs []string) (model.BatchHandle, error) {
	s.batches = append(s.batches, append([]string{vectorStoreID}, fileIDs...))
	if s.batchErr != nil {
		return model.BatchHandle{}, s.batchErr
	}
	return model.BatchHandle{VectorStoreID: vectorStoreID, BatchID: "vsfb_1"}, nil
}

func (s *fakeStore) PollBatch(ctx context.Context, h model.BatchHandle) (model.BatchStatus, error) {
	s.pollCalls++
	if s.pollErr != nil {
		return "", s.pollErr
	}
	if len(s.statuses) == 0 {
		return model.BatchStatusInProgress, nil
	}
	if s.pollCalls > len(s.statuses) {
		return s.statuses[len(s.statuses)-1], nil
	}
	return s.statuses[s.pollCalls-1], nil
}

type fakeLedger struct {
	mu      sync.Mutex
	rows    map[string]*model.KnowledgeFile
	failAll bool
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{rows: map[string]*model.KnowledgeFile{}}
}

func (l *fakeLedger) Upsert(ctx context.Context, record *model.KnowledgeFile) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failAll {
		return errBoom
	}
	cp := *record
	l.rows[record.JobID] = &cp
	return nil
}

func (l *fakeLedger) Update(ctx context.Context, jobID string, fields map[string]interface{}) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failAll {
		return errBoom
	}
	row, ok := l.rows[jobID]
	if !ok {
		return nil
	}
	for k, v := range fields {
		switch k {
		case "status":
			row.Status = v.(string)
		case "error":
			row.Error = v.(string)
		case "file_id":
			row.FileID = v.(string)
		case "batch_id":
			row.BatchID = v.(string)
		}
	}
	return nil
}

func (l *fakeLedger) FindByJobID(ctx context.Context, jobID string) (*model.KnowledgeFile, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	row, ok := l.rows[jobID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *row
	return &cp, nil
}

func (l *fakeLedger) ListRecent(ctx context.Context, limit int) ([]model.KnowledgeFile, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]model.KnowledgeFile, 0, len(l.rows))
	for _, row := range l.rows {
		out = append(out, *row)
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (l *fakeLedger) get(jobID string) *model.KnowledgeFile {
	l.mu.Lock()
	defer l.mu.Unlock()
	row, ok := l.rows[jobID]
	if !ok {
		return nil
	}
	cp := *row
	return &cp
}

type fakeFetcher struct {
	result crawler.Result
	err    error
	calls  []string
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (crawler.Result, error) {
	f.calls = append(f.calls, url)
	return f.result, f.err
}

func assistantMessage(id, text string) model.Message {
	return model.Message{ID: id, Role: model.RoleAssistant, Content: []model.TextSegment{{Value: text}}}
}

func userMessage(id, text string) model.Message {
	return model.Message{ID: id, Role: model.RoleUser, Content: []model.TextSegment{{Value: text}}}
}
