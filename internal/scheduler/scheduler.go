package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fachebot/scan-digest/internal/config"
	"github.com/fachebot/scan-digest/internal/logger"
	"github.com/fachebot/scan-digest/internal/processor"
	"github.com/robfig/cron/v3"
)

// dirProcessor 扫描并处理目录（便于测试注入 mock）
type dirProcessor interface {
	ProcessDir(ctx context.Context, dir string) ([]*processor.Outcome, error)
}

type Scheduler struct {
	cron      *cron.Cron
	processor dirProcessor
	config    *config.Watch
	ctx       context.Context
	cancel    context.CancelFunc
	mu        sync.Mutex
	running   atomic.Bool
	wg        sync.WaitGroup
}

// locUTC UTC 标准时间（UTC）
var locUTC = time.UTC

func NewScheduler(p *processor.Processor, cfg *config.Watch) *Scheduler {
	return newScheduler(p, cfg)
}

func newScheduler(p dirProcessor, cfg *config.Watch) *Scheduler {
	return &Scheduler{
		cron:      cron.New(cron.WithLocation(locUTC)),
		processor: p,
		config:    cfg,
	}
}

// Start 启动调度器，并立即扫描一次
func (s *Scheduler) Start() error {
	s.mu.Lock()
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.mu.Unlock()

	// 注册目录扫描任务
	_, err := s.cron.AddFunc(s.config.Cron, s.scan)
	if err != nil {
		return fmt.Errorf("注册目录扫描任务失败: %w", err)
	}

	s.cron.Start()
	logger.Infof("[Scheduler] 调度器已启动，目录扫描任务: %s, dir: %s", s.config.Cron, s.config.InputDir)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.scan()
	}()

	return nil
}

// Stop 停止调度器，等待进行中的扫描结束
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	ctx := s.cron.Stop()
	<-ctx.Done()
	s.wg.Wait()
	logger.Infof("[Scheduler] 调度器已停止")
}

// scan 处理输入目录，上一次扫描未结束时跳过
func (s *Scheduler) scan() {
	if !s.running.CompareAndSwap(false, true) {
		logger.Warnf("[Scheduler] 上一次扫描尚未结束，跳过本次")
		return
	}
	defer s.running.Store(false)

	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()

	start := time.Now()
	outcomes, err := s.processor.ProcessDir(ctx, s.config.InputDir)
	if err != nil {
		logger.Errorf("[Scheduler] 目录扫描出错, dir: %s, %v", s.config.InputDir, err)
	}
	if len(outcomes) > 0 || err != nil {
		logger.Infof("[Scheduler] 目录扫描完成, processed: %d, elapsed: %s", len(outcomes), time.Since(start))
	}
}
