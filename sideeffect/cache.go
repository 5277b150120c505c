// Package sideeffect 实现旁路效果：首页缓存与指标上报。
// 旁路效果由编排器脱离请求生命周期派发，错误只记日志，
// 绝不影响已经算好的响应。
package sideeffect

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rushteam/feedkit/core"
	"github.com/rushteam/feedkit/pipeline"
)

// CacheKey 返回用户首页 Feed 的缓存 key
func CacheKey(userID string) string {
	return "cache:feed:" + userID
}

// CachedFeed 是缓存里的首页快照：只存最终选出的候选，
// 不存中间态。
type CachedFeed struct {
	RequestID string           `json:"request_id"`
	Selected  []core.Candidate `json:"selected"`
}

// ResultCache 把首页结果写进缓存，短 TTL。仅首页（cursor 为 0）
// 启用：翻页结果个性化程度低且命中率差，不值得缓存。
type ResultCache struct {
	Store core.Store

	// TTLSeconds 为 0 时默认 60
	TTLSeconds int
}

func (s *ResultCache) Name() string               { return "sideeffect.cache" }
func (s *ResultCache) Enabled(q *core.Query) bool { return s.Store != nil && q.FirstPage() }

func (s *ResultCache) Run(ctx context.Context, q *core.Query, res *core.PipelineResult) error {
	if len(res.Selected) == 0 {
		return nil
	}
	ttl := s.TTLSeconds
	if ttl <= 0 {
		ttl = 60
	}

	data, err := json.Marshal(&CachedFeed{
		RequestID: q.RequestID,
		Selected:  res.Selected,
	})
	if err != nil {
		return fmt.Errorf("marshal cached feed: %w", err)
	}
	if err := s.Store.Set(ctx, CacheKey(q.UserID), data, ttl); err != nil {
		return fmt.Errorf("write feed cache: %w", err)
	}
	return nil
}

var _ pipeline.SideEffect = (*ResultCache)(nil)
