package pipeline

import (
	"context"

	"github.com/rushteam/feedkit/core"
)

// Group 用于标记阶段分组，方便观测/治理（按阶段打点）。
type Group string

const (
	GroupHydrate    Group = "hydrate"    // 查询补水：填充用户上下文
	GroupSource     Group = "source"     // 召回阶段：并发生成候选集
	GroupEnrich     Group = "enrich"     // 候选补水：回填核心字段，不增不减
	GroupFilter     Group = "filter"     // 过滤阶段：剔除不符合约束的候选
	GroupScore      Group = "score"      // 打分阶段：只调整分数，不增不减
	GroupSelect     Group = "select"     // 选择阶段：排序并截断
	GroupPostFilter Group = "postfilter" // 选后过滤：多样性约束
	GroupSideEffect Group = "sideeffect" // 旁路效果：缓存/打点，不阻塞响应
)

// Stage 是所有阶段角色的公共契约：稳定的名字（日志/打点用）
// 和一个 enable 门。门是 Query 的纯函数，每次执行都重新求值，
// 不跨请求缓存；返回 false 时该阶段被整体跳过（输出等于输入）。
type Stage interface {
	Name() string
	Enabled(q *core.Query) bool
}

// QueryHydrator 在召回前补全 Query。多个 hydrator 并发执行，
// 各自返回部分更新，由编排器按字段做加法合并 —— 不得清除
// 其他 hydrator 写入的数据。
type QueryHydrator interface {
	Stage
	Hydrate(ctx context.Context, q *core.Query) (*core.QueryUpdate, error)
}

// Source 是召回源。多个源并发执行，结果按声明顺序拼接（不做
// 隐式去重，去重是 Filter 的职责）。召回响应可携带查询级部分
// 更新（例如检索侧回传的口味画像），join 之后由编排器按声明
// 顺序合并进 Query。失败的源必须返回空列表并记日志，绝不中断
// 整次执行。
type Source interface {
	Stage
	Fetch(ctx context.Context, q *core.Query) ([]core.Candidate, *core.QueryUpdate, error)
}

// Hydrator 是召回后的候选补水阶段。契约：输出的长度与顺序
// 必须与输入完全一致 —— 补水只增不减，丢弃属于 Filter。
type Hydrator interface {
	Stage
	Hydrate(ctx context.Context, q *core.Query, cands []core.Candidate) ([]core.Candidate, error)
}

// Filter 把候选切分为保留集与移除集。过滤器严格串行执行，
// 后继只看到前驱的保留集；顺序是有意义的，后面的过滤器
// 依赖前面建立的不变量（例如去重必须先于作者多样性计数）。
type Filter interface {
	Stage
	Filter(ctx context.Context, q *core.Query, cands []core.Candidate) (kept, removed []core.Candidate, err error)
}

// Scorer 与 Hydrator 一样保持长度与顺序：只调整 FinalScore
// （并可附带分数向量），不丢弃候选。打分器串行执行，
// 后面的打分器读取前面写入的字段。
type Scorer interface {
	Stage
	Score(ctx context.Context, q *core.Query, cands []core.Candidate) ([]core.Candidate, error)
}

// Selector 同步排序并截断到 query.Limit，无 I/O。
type Selector interface {
	Stage
	Select(q *core.Query, cands []core.Candidate) []core.Candidate
}

// SideEffect 在选择之后执行，不得阻塞调用方的响应，
// 且必须吞掉自己的错误（尽力而为）。编排器通过 Detacher
// 以独立 goroutine 派发。
type SideEffect interface {
	Stage
	Run(ctx context.Context, q *core.Query, res *core.PipelineResult) error
}
