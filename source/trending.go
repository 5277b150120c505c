package source

import (
	"context"
	"fmt"
	"time"

	"github.com/rushteam/feedkit/core"
	"github.com/rushteam/feedkit/pipeline"
)

// Trending 是热门流召回源：取最近 WindowHours 内按点赞数排序的
// 帖子，作为冷启动兜底。
//
// 启用条件是点赞数低于 LikedThreshold —— 这是近似的冷启动判断，
// 不是严格的“新用户”状态：低互动的老用户每次请求同样命中。
type Trending struct {
	Store core.ContentStore

	// LikedThreshold 为 0 时默认 5
	LikedThreshold int

	// WindowHours 为 0 时默认 48
	WindowHours int

	// Now 便于测试注入时钟，为 nil 时用 time.Now
	Now func() time.Time
}

func (s *Trending) Name() string { return "source.trending" }

func (s *Trending) Enabled(q *core.Query) bool {
	if s.Store == nil {
		return false
	}
	threshold := s.LikedThreshold
	if threshold <= 0 {
		threshold = 5
	}
	return len(q.LikedPostIDs) < threshold
}

func (s *Trending) Fetch(ctx context.Context, q *core.Query) ([]core.Candidate, *core.QueryUpdate, error) {
	window := s.WindowHours
	if window <= 0 {
		window = 48
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	since := now().Add(-time.Duration(window) * time.Hour)

	posts, err := s.Store.Trending(ctx, since, q.Limit)
	if err != nil {
		return nil, nil, fmt.Errorf("trending: %w", err)
	}

	out := make([]core.Candidate, 0, len(posts))
	for _, p := range posts {
		out = append(out, core.CandidateFromPost(p, core.SourceTrending))
	}
	return out, nil, nil
}

var _ pipeline.Source = (*Trending)(nil)
