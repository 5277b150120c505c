package filter

import (
	"context"

	"github.com/rushteam/feedkit/core"
	"github.com/rushteam/feedkit/pipeline"
)

// Seen 剔除近期已曝光的帖子。检索侧已经带了 exclude 列表，
// 这里是对关注流/热门流以及检索侧漏网候选的兜底。
type Seen struct{}

func (f *Seen) Name() string               { return "filter.seen" }
func (f *Seen) Enabled(q *core.Query) bool { return len(q.SeenPostIDs) > 0 }

func (f *Seen) Filter(_ context.Context, q *core.Query, cands []core.Candidate) ([]core.Candidate, []core.Candidate, error) {
	kept := make([]core.Candidate, 0, len(cands))
	var removed []core.Candidate
	for _, c := range cands {
		if q.HasSeen(c.PostID) {
			removed = append(removed, reason(c, f.Name()))
			continue
		}
		kept = append(kept, c)
	}
	return kept, removed, nil
}

var _ pipeline.Filter = (*Seen)(nil)
