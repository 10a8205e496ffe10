package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// AttemptRepository 统计异步任务的失败次数，用于决定何时放弃重试。
type AttemptRepository interface {
	Incr(ctx context.Context, jobID string) (int64, error)
	Reset(ctx context.Context, jobID string) error
}

type redisAttemptRepository struct {
	redisClient *redis.Client
}

// NewAttemptRepository 创建一个新的 AttemptRepository 实例。
func NewAttemptRepository(redisClient *redis.Client) AttemptRepository {
	return &redisAttemptRepository{redisClient: redisClient}
}

func attemptsKey(jobID string) string {
	return fmt.Sprintf("kafka:attempts:%s", jobID)
}

// Incr 增加失败计数，计数保留 24 小时。
func (r *redisAttemptRepository) Incr(ctx context.Context, jobID string) (int64, error) {
	key := attemptsKey(jobID)
	n, err := r.redisClient.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	_ = r.redisClient.Expire(ctx, key, 24*time.Hour).Err()
	return n, nil
}

// Reset 清除失败计数。
func (r *redisAttemptRepository) Reset(ctx context.Context, jobID string) error {
	return r.redisClient.Del(ctx, attemptsKey(jobID)).Err()
}
