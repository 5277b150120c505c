// Package source 包含三条召回路径：关注流、兴趣流（外部 ML 检索）
// 与热门流。各源由编排器并发执行并做故障隔离：失败的源降级为
// 空结果，绝不中断兄弟源。
package source

import (
	"context"
	"fmt"

	"github.com/rushteam/feedkit/core"
	"github.com/rushteam/feedkit/pipeline"
)

// InNetwork 是关注流召回源：取关注作者的最近 limit × Multiplier
// 条帖子，按创建时间降序；带游标时从游标处向前翻页。
// 仅在关注集合非空时启用。
type InNetwork struct {
	Store core.ContentStore

	// Multiplier 为 0 时默认 3
	Multiplier int
}

func (s *InNetwork) Name() string { return "source.in_network" }

func (s *InNetwork) Enabled(q *core.Query) bool {
	return s.Store != nil && len(q.Following) > 0
}

func (s *InNetwork) Fetch(ctx context.Context, q *core.Query) ([]core.Candidate, *core.QueryUpdate, error) {
	multiplier := s.Multiplier
	if multiplier <= 0 {
		multiplier = 3
	}

	posts, err := s.Store.PostsByAuthors(ctx, q.FollowingList(), q.Cursor, q.Limit*multiplier)
	if err != nil {
		return nil, nil, fmt.Errorf("posts by authors: %w", err)
	}

	out := make([]core.Candidate, 0, len(posts))
	for _, p := range posts {
		out = append(out, core.CandidateFromPost(p, core.SourceInNetwork))
	}
	return out, nil, nil
}

var _ pipeline.Source = (*InNetwork)(nil)
