// Package filter 实现候选过滤链。过滤器串行执行，每个过滤器把
// 候选切成保留集与剔除集；被剔除的候选打上 "filtered" 原因标签，
// 便于指标侧按原因聚合。
package filter

import (
	"context"

	"github.com/rushteam/feedkit/core"
	"github.com/rushteam/feedkit/pipeline"
	"github.com/rushteam/feedkit/pkg/utils"
)

// reason 给被剔除的候选打上过滤原因标签
func reason(c core.Candidate, name string) core.Candidate {
	return c.WithLabel("filtered", utils.Label{Value: name, Source: name})
}

// Dedup 按帖子 ID 去重，保留首次出现的候选。召回按
// 关注流 → 兴趣流 → 热门流 的顺序拼接，因此重复时留下的是
// 优先级更高的来源标记。
type Dedup struct{}

func (f *Dedup) Name() string               { return "filter.dedup" }
func (f *Dedup) Enabled(_ *core.Query) bool { return true }

func (f *Dedup) Filter(_ context.Context, _ *core.Query, cands []core.Candidate) ([]core.Candidate, []core.Candidate, error) {
	seen := make(map[string]bool, len(cands))
	kept := make([]core.Candidate, 0, len(cands))
	var removed []core.Candidate
	for _, c := range cands {
		if seen[c.PostID] {
			removed = append(removed, reason(c, f.Name()))
			continue
		}
		seen[c.PostID] = true
		kept = append(kept, c)
	}
	return kept, removed, nil
}

var _ pipeline.Filter = (*Dedup)(nil)
