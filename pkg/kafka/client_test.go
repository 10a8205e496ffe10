package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"pai-assistant-go/internal/config"
	"pai-assistant-go/pkg/tasks"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type fakeReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	committed []int64
	closed    bool
	drained   chan struct{}
}

func newFakeReader(msgs ...kafka.Message) *fakeReader {
	return &fakeReader{queue: msgs, drained: make(chan struct{})}
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.queue) > 0 {
		m := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()
		return m, nil
	}
	r.mu.Unlock()
	select {
	case <-r.drained:
	default:
		close(r.drained)
	}
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

type fakeProcessor struct {
	mu    sync.Mutex
	calls map[string]int
	fails map[string]int
}

func (p *fakeProcessor) Process(ctx context.Context, task tasks.IngestTask) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls[task.JobID]++
	if p.calls[task.JobID] <= p.fails[task.JobID] {
		return errors.New("fetch error")
	}
	return nil
}

type memAttempts struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
}

func (a *memAttempts) Incr(ctx context.Context, jobID string) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return 0, a.err
	}
	a.counts[jobID]++
	return a.counts[jobID], nil
}

func (a *memAttempts) Reset(ctx context.Context, jobID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.counts, jobID)
	return nil
}

func taskMessage(t *testing.T, offset int64, jobID string) kafka.Message {
	t.Helper()
	b, err := json.Marshal(tasks.IngestTask{JobID: jobID, URL: "https://news.example/" + jobID})
	require.NoError(t, err)
	return kafka.Message{Offset: offset, Value: b}
}

func runConsumer(t *testing.T, r *fakeReader, p TaskProcessor, a AttemptCounter) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		StartConsumer(ctx, r, p, a)
		close(done)
	}()
	select {
	case <-r.drained:
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not drain the queue")
	}
	cancel()
	<-done
}

func TestStartConsumer(t *testing.T) {
	defer goleak.VerifyNone(t)
	retryDelay = time.Millisecond

	reader := newFakeReader(
		taskMessage(t, 1, "ok"),
		kafka.Message{Offset: 2, Value: []byte("not json")},
		taskMessage(t, 3, "flaky"),
		taskMessage(t, 4, "broken"),
	)
	processor := &fakeProcessor{
		calls: map[string]int{},
		fails: map[string]int{"flaky": 1, "broken": 10},
	}
	attempts := &memAttempts{counts: map[string]int64{}}

	runConsumer(t, reader, processor, attempts)

	assert.Equal(t, []int64{1, 2, 3, 4}, reader.committed)
	assert.True(t, reader.closed)
	assert.Equal(t, 1, processor.calls["ok"])
	assert.Equal(t, 2, processor.calls["flaky"])
	assert.Equal(t, maxAttempts, processor.calls["broken"])
	assert.Empty(t, attempts.counts)
}

func TestStartConsumerCountsLocallyWhenRedisFails(t *testing.T) {
	defer goleak.VerifyNone(t)
	retryDelay = time.Millisecond

	reader := newFakeReader(taskMessage(t, 7, "broken"))
	processor := &fakeProcessor{calls: map[string]int{}, fails: map[string]int{"broken": 10}}

	runConsumer(t, reader, processor, &memAttempts{counts: map[string]int64{}, err: errors.New("redis down")})

	assert.Equal(t, []int64{7}, reader.committed)
	assert.Equal(t, maxAttempts, processor.calls["broken"])
}

func TestBrokers(t *testing.T) {
	assert.Equal(t, []string{"a:9092", "b:9092"}, brokers(config.KafkaConfig{Brokers: " a:9092, ,b:9092"}))
	assert.Empty(t, brokers(config.KafkaConfig{}))
}
