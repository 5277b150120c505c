package feed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rushteam/feedkit/core"
	"github.com/rushteam/feedkit/pipeline"
	"github.com/rushteam/feedkit/pkg/dsl"
)

// applyGates 用配置里的 CEL 表达式覆盖各阶段的 enable 门。
// 表达式按阶段名匹配；编译失败让装配失败（FatalPipelineError），
// 不带病上线。未匹配到任何阶段的表达式同样视为配置错误。
func applyGates(pipe *pipeline.Pipeline, exprs map[string]string, log *slog.Logger) error {
	if len(exprs) == 0 {
		return nil
	}

	gates := make(map[string]*dsl.Gate, len(exprs))
	for name, expr := range exprs {
		gate, err := dsl.NewGate(expr)
		if err != nil {
			return &pipeline.FatalPipelineError{Op: "assemble gate " + name, Cause: err}
		}
		gates[name] = gate
	}

	matched := make(map[string]bool, len(gates))
	takeGate := func(name string) *dsl.Gate {
		gate, ok := gates[name]
		if ok {
			matched[name] = true
		}
		return gate
	}

	for i, h := range pipe.QueryHydrators {
		if gate := takeGate(h.Name()); gate != nil {
			pipe.QueryHydrators[i] = &gatedQueryHydrator{QueryHydrator: h, gate: gate, log: log}
		}
	}
	for i, s := range pipe.Sources {
		if gate := takeGate(s.Name()); gate != nil {
			pipe.Sources[i] = &gatedSource{Source: s, gate: gate, log: log}
		}
	}
	for i, h := range pipe.Hydrators {
		if gate := takeGate(h.Name()); gate != nil {
			pipe.Hydrators[i] = &gatedHydrator{Hydrator: h, gate: gate, log: log}
		}
	}
	for i, f := range pipe.Filters {
		if gate := takeGate(f.Name()); gate != nil {
			pipe.Filters[i] = &gatedFilter{inner: f, gate: gate, log: log}
		}
	}
	for i, s := range pipe.Scorers {
		if gate := takeGate(s.Name()); gate != nil {
			pipe.Scorers[i] = &gatedScorer{Scorer: s, gate: gate, log: log}
		}
	}
	if pipe.Selector != nil {
		if gate := takeGate(pipe.Selector.Name()); gate != nil {
			pipe.Selector = &gatedSelector{Selector: pipe.Selector, gate: gate, log: log}
		}
	}
	for i, f := range pipe.PostFilters {
		if gate := takeGate(f.Name()); gate != nil {
			pipe.PostFilters[i] = &gatedFilter{inner: f, gate: gate, log: log}
		}
	}
	for i, se := range pipe.SideEffects {
		if gate := takeGate(se.Name()); gate != nil {
			pipe.SideEffects[i] = &gatedSideEffect{SideEffect: se, gate: gate, log: log}
		}
	}

	for name := range gates {
		if !matched[name] {
			return &pipeline.FatalPipelineError{
				Op:    "assemble gates",
				Cause: fmt.Errorf("gate for unknown stage %q", name),
			}
		}
	}
	return nil
}

// allow 求值门表达式并与阶段自身的 enable 门取与：配置只能
// 收紧启用条件，不能强开一个缺少依赖的阶段。求值失败按关闭
// 处理并记日志。
func allow(gate *dsl.Gate, stageEnabled bool, q *core.Query, name string, log *slog.Logger) bool {
	if !stageEnabled {
		return false
	}
	ok, err := gate.Allow(q)
	if err != nil {
		log.Warn("gate evaluation degraded, stage disabled", "stage", name, "err", err)
		return false
	}
	return ok
}

type gatedQueryHydrator struct {
	pipeline.QueryHydrator
	gate *dsl.Gate
	log  *slog.Logger
}

func (g *gatedQueryHydrator) Enabled(q *core.Query) bool {
	return allow(g.gate, g.QueryHydrator.Enabled(q), q, g.Name(), g.log)
}

type gatedSource struct {
	pipeline.Source
	gate *dsl.Gate
	log  *slog.Logger
}

func (g *gatedSource) Enabled(q *core.Query) bool {
	return allow(g.gate, g.Source.Enabled(q), q, g.Name(), g.log)
}

type gatedHydrator struct {
	pipeline.Hydrator
	gate *dsl.Gate
	log  *slog.Logger
}

func (g *gatedHydrator) Enabled(q *core.Query) bool {
	return allow(g.gate, g.Hydrator.Enabled(q), q, g.Name(), g.log)
}

type gatedFilter struct {
	inner pipeline.Filter
	gate  *dsl.Gate
	log   *slog.Logger
}

func (g *gatedFilter) Name() string { return g.inner.Name() }

func (g *gatedFilter) Filter(ctx context.Context, q *core.Query, cands []core.Candidate) (kept, removed []core.Candidate, err error) {
	return g.inner.Filter(ctx, q, cands)
}

func (g *gatedFilter) Enabled(q *core.Query) bool {
	return allow(g.gate, g.inner.Enabled(q), q, g.Name(), g.log)
}

type gatedScorer struct {
	pipeline.Scorer
	gate *dsl.Gate
	log  *slog.Logger
}

func (g *gatedScorer) Enabled(q *core.Query) bool {
	return allow(g.gate, g.Scorer.Enabled(q), q, g.Name(), g.log)
}

type gatedSelector struct {
	pipeline.Selector
	gate *dsl.Gate
	log  *slog.Logger
}

func (g *gatedSelector) Enabled(q *core.Query) bool {
	return allow(g.gate, g.Selector.Enabled(q), q, g.Name(), g.log)
}

type gatedSideEffect struct {
	pipeline.SideEffect
	gate *dsl.Gate
	log  *slog.Logger
}

func (g *gatedSideEffect) Enabled(q *core.Query) bool {
	return allow(g.gate, g.SideEffect.Enabled(q), q, g.Name(), g.log)
}
