package filter

import (
	"context"

	"github.com/rushteam/feedkit/core"
	"github.com/rushteam/feedkit/pipeline"
)

// Blocked 剔除被拉黑/静音作者的帖子。拉黑集合来自用户上下文，
// 覆盖拉黑、静音与举报过的创作者。
type Blocked struct{}

func (f *Blocked) Name() string               { return "filter.blocked" }
func (f *Blocked) Enabled(q *core.Query) bool { return len(q.Blocked) > 0 }

func (f *Blocked) Filter(_ context.Context, q *core.Query, cands []core.Candidate) ([]core.Candidate, []core.Candidate, error) {
	kept := make([]core.Candidate, 0, len(cands))
	var removed []core.Candidate
	for _, c := range cands {
		if q.IsBlocked(c.Creator) {
			removed = append(removed, reason(c, f.Name()))
			continue
		}
		kept = append(kept, c)
	}
	return kept, removed, nil
}

var _ pipeline.Filter = (*Blocked)(nil)
