package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rushteam/feedkit/core"
)

// PrometheusSink 把阶段耗时与候选进出量导出为 Prometheus 指标。
// 指标维度是阶段名与分组，不带用户维度（基数不可控）。
type PrometheusSink struct {
	stageDuration *prometheus.HistogramVec
	stageIn       *prometheus.CounterVec
	stageOut      *prometheus.CounterVec
	totalDuration prometheus.Histogram
}

// NewPrometheusSink 构造并注册指标。registerer 为 nil 时
// 注册到默认 registry。
func NewPrometheusSink(registerer prometheus.Registerer) *PrometheusSink {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	s := &PrometheusSink{
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "feedkit",
			Name:      "stage_duration_seconds",
			Help:      "Per-stage execution time.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage", "group"}),
		stageIn: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "feedkit",
			Name:      "stage_candidates_in_total",
			Help:      "Candidates entering each stage.",
		}, []string{"stage", "group"}),
		stageOut: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "feedkit",
			Name:      "stage_candidates_out_total",
			Help:      "Candidates surviving each stage.",
		}, []string{"stage", "group"}),
		totalDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "feedkit",
			Name:      "pipeline_duration_seconds",
			Help:      "End-to-end pipeline execution time.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	registerer.MustRegister(s.stageDuration, s.stageIn, s.stageOut, s.totalDuration)
	return s
}

func (s *PrometheusSink) Emit(_ context.Context, rec *core.MetricsRecord) error {
	for _, st := range rec.Stages {
		if st.Skipped {
			continue
		}
		s.stageDuration.WithLabelValues(st.Stage, st.Group).Observe(st.Duration.Seconds())
		s.stageIn.WithLabelValues(st.Stage, st.Group).Add(float64(st.In))
		s.stageOut.WithLabelValues(st.Stage, st.Group).Add(float64(st.Out))
	}
	s.totalDuration.Observe(rec.Total.Seconds())
	return nil
}

var _ core.MetricsSink = (*PrometheusSink)(nil)
