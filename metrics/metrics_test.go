package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rushteam/feedkit/core"
)

func record() *core.MetricsRecord {
	return &core.MetricsRecord{
		RequestID: "r1",
		UserID:    "wallet-a",
		Total:     120 * time.Millisecond,
		Stages: []core.StageMetric{
			{Stage: "source.in_network", Group: "source", Duration: 30 * time.Millisecond, Out: 40},
			{Stage: "filter.dedup", Group: "filter", Duration: time.Millisecond, In: 40, Out: 36},
			{Stage: "source.trending", Group: "source", Skipped: true},
		},
	}
}

func TestSlogSink(t *testing.T) {
	if err := NewSlogSink(nil).Emit(context.Background(), record()); err != nil {
		t.Fatalf("日志汇上报失败: %v", err)
	}
}

// TestPrometheusSink 测试指标导出：Skipped 阶段不打点。
func TestPrometheusSink(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink := NewPrometheusSink(reg)

	if err := sink.Emit(context.Background(), record()); err != nil {
		t.Fatalf("指标上报失败: %v", err)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("采集失败: %v", err)
	}
	byName := make(map[string]int)
	for _, mf := range families {
		byName[mf.GetName()] = len(mf.GetMetric())
	}
	// 两个未跳过的阶段，各一条时序
	if byName["feedkit_stage_duration_seconds"] != 2 {
		t.Errorf("阶段耗时时序数错误: %d", byName["feedkit_stage_duration_seconds"])
	}
	if byName["feedkit_pipeline_duration_seconds"] != 1 {
		t.Errorf("整体耗时未导出: %d", byName["feedkit_pipeline_duration_seconds"])
	}
}
