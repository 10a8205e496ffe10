package service

import (
	"context"
	"pai-assistant-go/internal/model"
	"pai-assistant-go/pkg/log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// SnapshotWriter 保存网页文本快照。
type SnapshotWriter interface {
	PutSnapshot(ctx context.Context, host, jobID, sourceURL string, content []byte) (string, error)
}

// PageIndexer 把已入库网页写入检索目录。
type PageIndexer interface {
	IndexPage(ctx context.Context, page model.KnowledgePage) error
}

// PageArchiver 在入库完成后归档网页。归档只是附加功能，失败不影响入库结果。
type PageArchiver interface {
	// Archive 立即返回，归档在后台完成。
	Archive(ctx context.Context, page model.KnowledgePage)
	// Wait 阻塞直到所有进行中的归档结束。
	Wait()
}

type pageArchiver struct {
	snapshots SnapshotWriter
	indexer   PageIndexer
	timeout   time.Duration
	wg        sync.WaitGroup
}

// NewPageArchiver 创建一个新的 PageArchiver。snapshots 和 indexer 都可以为 nil。
func NewPageArchiver(snapshots SnapshotWriter, indexer PageIndexer, timeout time.Duration) PageArchiver {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &pageArchiver{snapshots: snapshots, indexer: indexer, timeout: timeout}
}

// Archive 在后台并行写入 MinIO 快照和 Elasticsearch 目录，不阻塞入库请求。
func (a *pageArchiver) Archive(ctx context.Context, page model.KnowledgePage) {
	if page.SnapshotAt.IsZero() {
		page.SnapshotAt = time.Now()
	}
	ctx = context.WithoutCancel(ctx)

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer func() {
			if p := recover(); p != nil {
				log.Errorw("[PageArchiver] panic while archiving", "jobId", page.JobID, "panic", p)
			}
		}()
		a.archive(ctx, page)
	}()
}

// Wait 用于优雅停机和测试。
func (a *pageArchiver) Wait() {
	a.wg.Wait()
}

func (a *pageArchiver) archive(ctx context.Context, page model.KnowledgePage) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	var g errgroup.Group
	if a.snapshots != nil {
		g.Go(func() error {
			objectName, err := a.snapshots.PutSnapshot(ctx, page.Host, page.JobID, page.SourceURL, []byte(page.Content))
			if err != nil {
				log.Warnw("[PageArchiver] 保存快照失败", "jobId", page.JobID, "error", err)
				return err
			}
			log.Infow("[PageArchiver] 快照已保存", "jobId", page.JobID, "object", objectName)
			return nil
		})
	}
	if a.indexer != nil {
		g.Go(func() error {
			if err := a.indexer.IndexPage(ctx, page); err != nil {
				log.Warnw("[PageArchiver] 写入检索目录失败", "jobId", page.JobID, "error", err)
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Warnw("[PageArchiver] 归档未全部完成", "jobId", page.JobID, "error", err)
	}
}
