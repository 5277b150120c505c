package core

import "time"

// StageMetric 是单个阶段的观测记录：进出时间与候选数量。
type StageMetric struct {
	Stage    string        `json:"stage"`
	Group    string        `json:"group"` // hydrate / source / filter / score / select / sideeffect
	Duration time.Duration `json:"duration"`
	In       int           `json:"in"`
	Out      int           `json:"out"`
	Skipped  bool          `json:"skipped,omitempty"` // enable 门未通过
}

// MetricsRecord 是一次执行的完整观测记录。
type MetricsRecord struct {
	RequestID string        `json:"request_id"`
	UserID    string        `json:"user_id"`
	Stages    []StageMetric `json:"stages"`
	Total     time.Duration `json:"total"`
}

// PipelineResult 是链路的终态产物。
//
// 不变量：len(Selected) <= Query.Limit，且 Selected 中的每个
// PostID 都出现在 Filtered 中。
type PipelineResult struct {
	Query *Query `json:"-"`

	// Fetched 是召回合并后的全量候选（过滤前）
	Fetched []Candidate `json:"-"`

	// Filtered 是过滤+打分后的候选
	Filtered []Candidate `json:"-"`

	// Selected 是最终入选的候选（截断+多样性之后）
	Selected []Candidate `json:"selected"`

	Metrics MetricsRecord `json:"metrics"`

	// FromCache 表示本结果来自首页缓存而非一次真实执行
	FromCache bool `json:"from_cache,omitempty"`
}

// Empty 返回本次执行是否没有任何可用候选。
// 这不是错误：调用方据此回退到更简单的时间线 Feed。
func (r *PipelineResult) Empty() bool {
	return r == nil || len(r.Selected) == 0
}
