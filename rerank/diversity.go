package rerank

import (
	"context"

	"github.com/rushteam/feedkit/core"
	"github.com/rushteam/feedkit/pipeline"
)

// AuthorDiversity 限制单页中同一作者的帖子数量，保持相对顺序。
// 超出上限的候选被剔除，不做回补：宁可返回少于 limit 条，
// 也不让一页被单个作者刷屏。
type AuthorDiversity struct {
	// Cap 为 0 时默认 2
	Cap int
}

func (f *AuthorDiversity) Name() string               { return "rerank.author_diversity" }
func (f *AuthorDiversity) Enabled(_ *core.Query) bool { return true }

func (f *AuthorDiversity) Filter(_ context.Context, _ *core.Query, cands []core.Candidate) ([]core.Candidate, []core.Candidate, error) {
	maxPerAuthor := f.Cap
	if maxPerAuthor <= 0 {
		maxPerAuthor = 2
	}

	counts := make(map[string]int)
	kept := make([]core.Candidate, 0, len(cands))
	var removed []core.Candidate
	for _, c := range cands {
		if counts[c.Creator] >= maxPerAuthor {
			removed = append(removed, c)
			continue
		}
		counts[c.Creator]++
		kept = append(kept, c)
	}
	return kept, removed, nil
}

var _ pipeline.Filter = (*AuthorDiversity)(nil)
