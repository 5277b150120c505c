package sideeffect

import (
	"context"

	"github.com/rushteam/feedkit/core"
	"github.com/rushteam/feedkit/pipeline"
)

// MetricsEmitter 把本次执行的阶段耗时与进出计数上报给指标汇。
// 上报发生在响应路径之外，汇的故障不影响调用方。
type MetricsEmitter struct {
	Sink core.MetricsSink
}

func (s *MetricsEmitter) Name() string               { return "sideeffect.metrics" }
func (s *MetricsEmitter) Enabled(_ *core.Query) bool { return s.Sink != nil }

func (s *MetricsEmitter) Run(ctx context.Context, q *core.Query, res *core.PipelineResult) error {
	return s.Sink.Emit(ctx, &core.MetricsRecord{
		RequestID: q.RequestID,
		UserID:    q.UserID,
		Stages:    res.Metrics.Stages,
		Total:     res.Metrics.Total,
	})
}

var _ pipeline.SideEffect = (*MetricsEmitter)(nil)
