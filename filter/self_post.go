package filter

import (
	"context"

	"github.com/rushteam/feedkit/core"
	"github.com/rushteam/feedkit/pipeline"
)

// SelfPost 剔除用户自己发布的帖子
type SelfPost struct{}

func (f *SelfPost) Name() string               { return "filter.self_post" }
func (f *SelfPost) Enabled(q *core.Query) bool { return q.UserID != "" }

func (f *SelfPost) Filter(_ context.Context, q *core.Query, cands []core.Candidate) ([]core.Candidate, []core.Candidate, error) {
	kept := make([]core.Candidate, 0, len(cands))
	var removed []core.Candidate
	for _, c := range cands {
		if c.Creator == q.UserID {
			removed = append(removed, reason(c, f.Name()))
			continue
		}
		kept = append(kept, c)
	}
	return kept, removed, nil
}

var _ pipeline.Filter = (*SelfPost)(nil)
