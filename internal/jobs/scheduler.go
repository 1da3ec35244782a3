package jobs

import (
	"context"
	"fmt"
	"time"

	"newsboard/internal/logger"

	"github.com/robfig/cron/v3"
)

// Recomputer 全量热度重算，RankingEngine 实现
type Recomputer interface {
	RecomputeAll(ctx context.Context, now time.Time) (int, error)
}

// Scheduler 进程内的定时任务
type Scheduler struct {
	cron *cron.Cron
}

func NewScheduler() *Scheduler {
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.Recover(cronLogger{}), cron.SkipIfStillRunning(cronLogger{})),
		),
	}
}

// AddHotnessRecompute 按 cron 表达式定期重算热度，afterRun 用于清理响应缓存
func (s *Scheduler) AddHotnessRecompute(schedule string, r Recomputer, timeout time.Duration, afterRun func()) error {
	_, err := s.cron.AddFunc(schedule, func() {
		RunHotnessRecompute(r, timeout)
		if afterRun != nil {
			afterRun()
		}
	})
	if err != nil {
		return fmt.Errorf("注册热度重算任务失败: %w", err)
	}
	logger.Log.WithField("schedule", schedule).Info("热度重算任务已注册")
	return nil
}

// RunHotnessRecompute 执行一次重算并记录耗时
func RunHotnessRecompute(r Recomputer, timeout time.Duration) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	start := time.Now()
	count, err := r.RecomputeAll(ctx, start)
	entry := logger.Log.WithField("articles", count).WithField("elapsed", time.Since(start).String())
	if err != nil {
		entry.WithError(err).Error("热度重算失败")
		return count, err
	}
	entry.Debug("定时热度重算结束")
	return count, nil
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop 等待正在执行的任务结束
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		logger.Log.Warn("等待定时任务结束超时")
	}
}

// cronLogger 把 cron 内部日志转给 logrus
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Log.WithField("system", "cron").WithField("kv", keysAndValues).Debug(msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Log.WithField("system", "cron").WithField("kv", keysAndValues).WithError(err).Error(msg)
}
