// Package rerank 实现选择与重排：按综合分稳定排序取前 N，
// 再做作者多样性约束。
package rerank

import (
	"sort"

	"github.com/rushteam/feedkit/core"
	"github.com/rushteam/feedkit/pipeline"
)

// TopN 按综合分降序稳定排序并截断到请求的条数。
// 稳定排序保证同分候选维持召回顺序（关注流优先）。
type TopN struct{}

func (s *TopN) Name() string               { return "rerank.topn" }
func (s *TopN) Enabled(_ *core.Query) bool { return true }

func (s *TopN) Select(q *core.Query, cands []core.Candidate) []core.Candidate {
	out := make([]core.Candidate, len(cands))
	copy(out, cands)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].FinalScore > out[j].FinalScore
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

var _ pipeline.Selector = (*TopN)(nil)
