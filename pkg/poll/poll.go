// Package poll 实现对外部长任务的有界轮询。
package poll

import (
	"context"
	"errors"
	"time"
)

// ErrDeadline 表示在 MaxWait 内任务没有进入终态。
var ErrDeadline = errors.New("poll: deadline exceeded")

// Options 控制轮询节奏。MaxWait <= 0 时只受调用方 ctx 约束。
type Options struct {
	Interval time.Duration
	MaxWait  time.Duration
}

// CheckFunc 查询一次任务状态，done 为 true 时停止轮询。
type CheckFunc[T any] func(ctx context.Context) (value T, done bool, err error)

// Until 以固定间隔调用 check，直到其报告 done、返回错误或超时。
// 自身的 MaxWait 到期返回 ErrDeadline；调用方 ctx 取消则返回 ctx.Err()。
// 两种情况都会停止轮询，但不会撤销已经提交到外部的任务。
func Until[T any](ctx context.Context, opts Options, check CheckFunc[T]) (T, error) {
	var zero T
	interval := opts.Interval
	if interval <= 0 {
		interval = time.Second
	}

	pollCtx := ctx
	if opts.MaxWait > 0 {
		var cancel context.CancelFunc
		pollCtx, cancel = context.WithTimeout(ctx, opts.MaxWait)
		defer cancel()
	}

	timer := time.NewTimer(0)
	defer timer.Stop()
	<-timer.C

	for {
		value, done, err := check(pollCtx)
		if err != nil {
			if deadlineHit(ctx, pollCtx) {
				return zero, ErrDeadline
			}
			return zero, err
		}
		if done {
			return value, nil
		}

		timer.Reset(interval)
		select {
		case <-pollCtx.Done():
			if deadlineHit(ctx, pollCtx) {
				return zero, ErrDeadline
			}
			return zero, ctx.Err()
		case <-timer.C:
		}
	}
}

// deadlineHit 区分轮询自身的超时与调用方的取消。
func deadlineHit(parent, pollCtx context.Context) bool {
	return parent.Err() == nil && errors.Is(pollCtx.Err(), context.DeadlineExceeded)
}
