package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/feedkit/core"
)

// Pipeline 是 feedkit 的核心抽象：把 Feed 排序逻辑拆成六组
// 可组合的阶段，按固定状态机推进：
//
//	Hydrating → Sourcing → PostHydrating → Filtering → Scoring
//	→ Selecting → PostFiltering → SideEffecting → Done
//
// 转移严格向前，单次执行内没有重试。协作方失败在阶段边界
// 就地降级（空值/兜底值），绝不中断整次执行 —— 唯一允许逃逸的
// 失败是编排逻辑自身的 bug（FatalPipelineError），由调用方捕获
// 并回退到更简单的时间线 Feed。
type Pipeline struct {
	QueryHydrators []QueryHydrator
	Sources        []Source
	Hydrators      []Hydrator
	Filters        []Filter
	Scorers        []Scorer
	Selector       Selector
	PostFilters    []Filter
	SideEffects    []SideEffect

	// SourceTimeout 是每个召回源的超时时间，0 表示不限制
	SourceTimeout time.Duration

	// Logger 为 nil 时使用 slog.Default()
	Logger *slog.Logger

	detachOnce sync.Once
	detach     *Detacher
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

// Detacher 返回旁路任务派发器（懒初始化）。
func (p *Pipeline) Detacher() *Detacher {
	p.detachOnce.Do(func() {
		p.detach = NewDetacher(p.logger())
	})
	return p.detach
}

// Wait 阻塞直到所有旁路效果结束。仅供测试与优雅退出使用。
func (p *Pipeline) Wait() {
	p.Detacher().Wait()
}

// Run 执行一次完整的 Feed 排序。Query 被本次执行独占；
// 候选是值语义，召回 fan-out 间不共享可变对象，无需加锁。
func (p *Pipeline) Run(ctx context.Context, q *core.Query) (*core.PipelineResult, error) {
	log := p.logger().With("request_id", q.RequestID, "user_id", q.UserID)
	start := time.Now()

	res := &core.PipelineResult{
		Query: q,
		Metrics: core.MetricsRecord{
			RequestID: q.RequestID,
			UserID:    q.UserID,
		},
	}
	record := func(m core.StageMetric) {
		res.Metrics.Stages = append(res.Metrics.Stages, m)
	}

	// Hydrating：并发补水，部分更新按字段合并；失败降级为空集合
	p.runQueryHydrators(ctx, q, log, record)

	// Sourcing：并发召回，故障隔离，结果按声明顺序拼接
	cands := p.runSources(ctx, q, log, record)
	res.Fetched = cands

	// PostHydrating：回填核心字段，长度与顺序不变
	for _, h := range p.Hydrators {
		cands = p.runLengthPreserving(ctx, q, cands, GroupEnrich, h.Name(), h.Enabled,
			func(c context.Context) ([]core.Candidate, error) { return h.Hydrate(c, q, cands) },
			log, record)
	}

	// Filtering：严格串行，后继只看到前驱的保留集
	cands = p.runFilters(ctx, q, cands, p.Filters, GroupFilter, log, record)

	// Scoring：严格串行，只调整分数
	for _, s := range p.Scorers {
		cands = p.runLengthPreserving(ctx, q, cands, GroupScore, s.Name(), s.Enabled,
			func(c context.Context) ([]core.Candidate, error) { return s.Score(c, q, cands) },
			log, record)
	}
	res.Filtered = cands

	// Selecting：同步排序截断
	selected := cands
	if p.Selector != nil {
		st := time.Now()
		if p.Selector.Enabled(q) {
			selected = p.Selector.Select(q, cands)
			record(core.StageMetric{Stage: p.Selector.Name(), Group: string(GroupSelect),
				Duration: time.Since(st), In: len(cands), Out: len(selected)})
		} else {
			record(core.StageMetric{Stage: p.Selector.Name(), Group: string(GroupSelect), Skipped: true})
		}
	}

	// PostFiltering：选后多样性约束
	selected = p.runFilters(ctx, q, selected, p.PostFilters, GroupPostFilter, log, record)
	res.Selected = selected
	res.Metrics.Total = time.Since(start)

	// SideEffecting：脱离主链路派发，完成与否与响应无关。
	// 指标先记完再派发，派发后 res 对主链路只读。
	var effects []SideEffect
	for _, se := range p.SideEffects {
		if !se.Enabled(q) {
			record(core.StageMetric{Stage: se.Name(), Group: string(GroupSideEffect), Skipped: true})
			continue
		}
		effects = append(effects, se)
	}
	for _, se := range effects {
		effect := se
		p.Detacher().Dispatch(ctx, effect.Name(), func(c context.Context) error {
			return effect.Run(c, q, res)
		})
	}

	log.Debug("pipeline done",
		"fetched", len(res.Fetched), "filtered", len(res.Filtered),
		"selected", len(res.Selected), "total", res.Metrics.Total)
	return res, nil
}

func (p *Pipeline) runQueryHydrators(ctx context.Context, q *core.Query, log *slog.Logger, record func(core.StageMetric)) {
	if len(p.QueryHydrators) == 0 {
		return
	}

	type hydration struct {
		metric core.StageMetric
		update *core.QueryUpdate
		ran    bool
	}

	// 每个 goroutine 只写自己的槽位，join 后按声明顺序合并：
	// 首写优先的字段（口味向量）由装配顺序决定归属，与调度无关
	done := make([]hydration, len(p.QueryHydrators))
	eg, _ := errgroup.WithContext(ctx)
	for i, h := range p.QueryHydrators {
		i, hydrator := i, h
		if !hydrator.Enabled(q) {
			record(core.StageMetric{Stage: hydrator.Name(), Group: string(GroupHydrate), Skipped: true})
			continue
		}
		eg.Go(func() error {
			st := time.Now()
			update, err := hydrator.Hydrate(ctx, q)
			if err != nil {
				// 补水失败降级为冷启动：空集合继续执行
				log.Warn("query hydrator degraded", "stage", hydrator.Name(), "err", err)
				update = nil
			}
			done[i] = hydration{
				metric: core.StageMetric{Stage: hydrator.Name(), Group: string(GroupHydrate), Duration: time.Since(st)},
				update: update,
				ran:    true,
			}
			return nil
		})
	}
	_ = eg.Wait()

	// 合并在 join 之后串行进行，Query 在召回 join 前只读
	for _, h := range done {
		if !h.ran {
			continue
		}
		q.Apply(h.update)
		record(h.metric)
	}
}

func (p *Pipeline) runSources(ctx context.Context, q *core.Query, log *slog.Logger, record func(core.StageMetric)) []core.Candidate {
	if len(p.Sources) == 0 {
		return nil
	}

	type fetched struct {
		metric core.StageMetric
		cands  []core.Candidate
		update *core.QueryUpdate
		ran    bool
	}

	// 每个 goroutine 只写自己的槽位，join 后按声明顺序拼接：
	// 关注流 → 兴趣流 → 热门流 的优先级由装配顺序决定
	done := make([]fetched, len(p.Sources))
	eg, _ := errgroup.WithContext(ctx)
	for i, s := range p.Sources {
		i, src := i, s
		if !src.Enabled(q) {
			record(core.StageMetric{Stage: src.Name(), Group: string(GroupSource), Skipped: true})
			continue
		}
		eg.Go(func() error {
			fetchCtx := ctx
			if p.SourceTimeout > 0 {
				var cancel context.CancelFunc
				fetchCtx, cancel = context.WithTimeout(ctx, p.SourceTimeout)
				defer cancel()
			}

			st := time.Now()
			cands, update, err := src.Fetch(fetchCtx, q)
			if err != nil {
				// 失败的源返回空结果，不中断其他源
				log.Warn("source degraded", "stage", src.Name(), "err", err)
				cands, update = nil, nil
			}
			done[i] = fetched{
				metric: core.StageMetric{Stage: src.Name(), Group: string(GroupSource),
					Duration: time.Since(st), Out: len(cands)},
				cands:  cands,
				update: update,
				ran:    true,
			}
			return nil
		})
	}
	_ = eg.Wait()

	var all []core.Candidate
	for _, f := range done {
		if !f.ran {
			continue
		}
		all = append(all, f.cands...)
		// 召回响应携带的查询级信号（检索侧口味画像）在此并入
		q.Apply(f.update)
		record(f.metric)
	}
	return all
}

// runLengthPreserving 执行一个“长度与顺序必须不变”的阶段
// （Hydrator / Scorer）。契约被违反或阶段报错时保留输入继续。
func (p *Pipeline) runLengthPreserving(
	ctx context.Context,
	q *core.Query,
	in []core.Candidate,
	group Group,
	name string,
	enabled func(*core.Query) bool,
	fn func(context.Context) ([]core.Candidate, error),
	log *slog.Logger,
	record func(core.StageMetric),
) []core.Candidate {
	if !enabled(q) {
		record(core.StageMetric{Stage: name, Group: string(group), Skipped: true})
		return in
	}
	st := time.Now()
	out, err := fn(ctx)
	if err != nil {
		log.Warn("stage degraded", "stage", name, "err", err)
		out = in
	} else if len(out) != len(in) {
		log.Error("stage violated length contract", "stage", name, "in", len(in), "out", len(out))
		out = in
	}
	record(core.StageMetric{Stage: name, Group: string(group),
		Duration: time.Since(st), In: len(in), Out: len(out)})
	return out
}

func (p *Pipeline) runFilters(
	ctx context.Context,
	q *core.Query,
	in []core.Candidate,
	filters []Filter,
	group Group,
	log *slog.Logger,
	record func(core.StageMetric),
) []core.Candidate {
	cur := in
	for _, f := range filters {
		if !f.Enabled(q) {
			record(core.StageMetric{Stage: f.Name(), Group: string(group), Skipped: true})
			continue
		}
		st := time.Now()
		kept, _, err := f.Filter(ctx, q, cur)
		if err != nil {
			log.Warn("filter degraded", "stage", f.Name(), "err", err)
			kept = cur
		}
		record(core.StageMetric{Stage: f.Name(), Group: string(group),
			Duration: time.Since(st), In: len(cur), Out: len(kept)})
		cur = kept
	}
	return cur
}
