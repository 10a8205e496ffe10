package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"pai-assistant-go/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type fakeQARepo struct {
	mu      sync.Mutex
	entries []model.QAEntry
	err     error
	block   chan struct{}
	panics  bool
}

func (r *fakeQARepo) Insert(ctx context.Context, entry *model.QAEntry) error {
	if r.block != nil {
		<-r.block
	}
	if r.panics {
		panic("driver exploded")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	entry.ID = uint(len(r.entries) + 1)
	r.entries = append(r.entries, *entry)
	return nil
}

type fakeHistoryRepo struct {
	mu        sync.Mutex
	exchanges []recordedQA
}

func (r *fakeHistoryRepo) AppendExchange(ctx context.Context, conversationID, question, answer string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exchanges = append(r.exchanges, recordedQA{conversationID, question, answer})
	return nil
}

func (r *fakeHistoryRepo) GetConversationHistory(ctx context.Context, conversationID string) ([]model.ChatMessage, error) {
	return nil, nil
}

func TestRecorderPersistsEntry(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	qa := &fakeQARepo{}
	history := &fakeHistoryRepo{}
	r := NewQARecorder(qa, history, time.Second)

	r.Record("T1", "q", "a")
	r.Wait()

	require.Len(t, qa.entries, 1)
	assert.Equal(t, "T1", qa.entries[0].ConversationID)
	assert.Equal(t, "q", qa.entries[0].Question)
	assert.Equal(t, "a", qa.entries[0].Answer)
	assert.Equal(t, []recordedQA{{"T1", "q", "a"}}, history.exchanges)
}

func TestRecorderDoesNotBlockCaller(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	qa := &fakeQARepo{block: make(chan struct{})}
	r := NewQARecorder(qa, nil, time.Second)

	done := make(chan struct{})
	go func() {
		r.Record("T1", "q", "a")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Record blocked on the store")
	}

	close(qa.block)
	r.Wait()
	assert.Len(t, qa.entries, 1)
}

func TestRecorderSwallowsFailures(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	r := NewQARecorder(&fakeQARepo{err: errors.New("db down")}, &fakeHistoryRepo{}, time.Second)
	r.Record("T1", "q", "a")

	p := NewQARecorder(&fakeQARepo{panics: true}, nil, time.Second)
	p.Record("T1", "q", "a")

	r.Wait()
	p.Wait()
}

func TestRecorderFailureDoesNotAlterAnswer(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	provider := &fakeProvider{
		createdID: "T1",
		statuses:  []model.RunStatus{model.RunStatusCompleted},
		messages:  []model.Message{assistantMessage("m1", "Shelter A is open.")},
	}
	recorder := NewQARecorder(&fakeQARepo{err: errors.New("db down")}, nil, time.Second)
	svc := NewAssistantService(provider, recorder, testAssistantConfig())

	answer, err := svc.Answer(context.Background(), "q", "")
	recorder.Wait()
	require.NoError(t, err)
	assert.Equal(t, "Shelter A is open.", answer.Text)
	assert.False(t, answer.Degraded)
}
