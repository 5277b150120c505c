// Package metrics 实现指标汇：结构化日志汇与 Prometheus 汇。
package metrics

import (
	"context"
	"log/slog"

	"github.com/rushteam/feedkit/core"
)

// SlogSink 把观测记录按阶段展开写进结构化日志。
// 没接 Prometheus 的部署用它兜底。
type SlogSink struct {
	Logger *slog.Logger
}

func NewSlogSink(logger *slog.Logger) *SlogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogSink{Logger: logger}
}

func (s *SlogSink) Emit(_ context.Context, rec *core.MetricsRecord) error {
	attrs := []any{
		"request_id", rec.RequestID,
		"user_id", rec.UserID,
		"total_ms", rec.Total.Milliseconds(),
	}
	for _, st := range rec.Stages {
		if st.Skipped {
			continue
		}
		attrs = append(attrs, st.Stage, slog.GroupValue(
			slog.Int64("ms", st.Duration.Milliseconds()),
			slog.Int("in", st.In),
			slog.Int("out", st.Out),
		))
	}
	s.Logger.Info("feed pipeline metrics", attrs...)
	return nil
}

var _ core.MetricsSink = (*SlogSink)(nil)
