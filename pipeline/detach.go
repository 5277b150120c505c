package pipeline

import (
	"context"
	"log/slog"
	"sync"
)

// Detacher 把函数作为脱离主链路的任务派发：不在关键路径上 join，
// 错误与 panic 在内部捕获并记日志，绝不回传给调用方。
//
// 把“fire-and-forget”做成显式 API（而不是单纯不 await），
// 让并发契约在类型签名上可见；Wait 仅供测试与优雅退出使用。
type Detacher struct {
	wg     sync.WaitGroup
	logger *slog.Logger
}

// NewDetacher 创建一个 Detacher；logger 为 nil 时使用 slog.Default()。
func NewDetacher(logger *slog.Logger) *Detacher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Detacher{logger: logger}
}

// Dispatch 在新 goroutine 中执行 fn。传入的 ctx 会剥离取消信号：
// 调用方返回响应后任务继续执行。
func (d *Detacher) Dispatch(ctx context.Context, name string, fn func(ctx context.Context) error) {
	detachedCtx := context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error("detached task panicked", "task", name, "panic", r)
			}
		}()
		if err := fn(detachedCtx); err != nil {
			d.logger.Error("detached task failed", "task", name, "err", err)
		}
	}()
}

// Wait 阻塞直到所有已派发的任务结束。
func (d *Detacher) Wait() {
	d.wg.Wait()
}
