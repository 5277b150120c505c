package store

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rushteam/feedkit/core"
)

// 索引布局：
//
//	post:{id}            帖子记录（JSON）
//	feed:author:{wallet} 作者时间线 zset，score = 创建时间（unix 秒）
//	feed:trending        热门榜 zset，score = 点赞数
const (
	postKeyPrefix   = "post:"
	authorKeyPrefix = "feed:author:"
	trendingKey     = "feed:trending"
)

// ContentAdapter 把 core.ContentStore 的查询映射到 KV + zset 索引。
// 任何实现 core.KeyValueStore 的后端（Redis/内存）都可以直接用。
type ContentAdapter struct {
	kv core.KeyValueStore
}

func NewContentAdapter(kv core.KeyValueStore) *ContentAdapter {
	return &ContentAdapter{kv: kv}
}

// IndexPost 写入帖子记录并更新作者时间线与热门榜索引。
// 由内容摄入侧调用；点赞数变化时重复调用即可刷新榜单 score。
func (a *ContentAdapter) IndexPost(ctx context.Context, p core.Post) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal post %s: %w", p.ID, err)
	}
	if err := a.kv.Set(ctx, postKeyPrefix+p.ID, data); err != nil {
		return fmt.Errorf("store post %s: %w", p.ID, err)
	}
	if err := a.kv.ZAdd(ctx, authorKeyPrefix+p.Creator, float64(p.CreatedAt.Unix()), p.ID); err != nil {
		return fmt.Errorf("index author timeline: %w", err)
	}
	if err := a.kv.ZAdd(ctx, trendingKey, float64(p.Likes), p.ID); err != nil {
		return fmt.Errorf("index trending: %w", err)
	}
	return nil
}

// PostsByAuthors 合并各作者时间线，按创建时间降序返回 limit 条。
// cursor 是 unix 秒时间戳，0 表示首页；翻页时只取严格早于
// cursor 的帖子。
func (a *ContentAdapter) PostsByAuthors(ctx context.Context, authors []string, cursor int64, limit int) ([]core.Post, error) {
	if len(authors) == 0 || limit <= 0 {
		return nil, nil
	}
	maxScore := math.MaxFloat64
	if cursor > 0 {
		maxScore = float64(cursor - 1)
	}

	var ids []string
	for _, author := range authors {
		members, err := a.kv.ZRangeByScore(ctx, authorKeyPrefix+author, 0, maxScore, limit)
		if err != nil {
			return nil, fmt.Errorf("author timeline %s: %w", author, err)
		}
		ids = append(ids, members...)
	}

	posts, err := a.postsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	if len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

func (a *ContentAdapter) PostsByIDs(ctx context.Context, ids []string) ([]core.Post, error) {
	return a.postsByIDs(ctx, ids)
}

// Trending 返回 since 之后、按点赞数降序的帖子。
// 热门榜 score 是点赞数，窗口约束靠超取后按创建时间过滤。
func (a *ContentAdapter) Trending(ctx context.Context, since time.Time, limit int) ([]core.Post, error) {
	if limit <= 0 {
		return nil, nil
	}
	// 超取 4 倍再按窗口过滤，避免旧爆款把整页挤满
	ids, err := a.kv.ZRange(ctx, trendingKey, 0, int64(limit*4-1))
	if err != nil {
		return nil, fmt.Errorf("trending index: %w", err)
	}

	posts, err := a.postsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	fresh := make([]core.Post, 0, limit)
	for _, p := range posts {
		if p.CreatedAt.Before(since) {
			continue
		}
		fresh = append(fresh, p)
		if len(fresh) >= limit {
			break
		}
	}
	return fresh, nil
}

// postsByIDs 批量读取帖子记录，保持 ids 顺序；缺失与损坏的记录跳过。
func (a *ContentAdapter) postsByIDs(ctx context.Context, ids []string) ([]core.Post, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = postKeyPrefix + id
	}
	raw, err := a.kv.BatchGet(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("batch get posts: %w", err)
	}

	posts := make([]core.Post, 0, len(ids))
	for i := range ids {
		data, ok := raw[keys[i]]
		if !ok {
			continue
		}
		var p core.Post
		if err := json.Unmarshal(data, &p); err != nil {
			continue
		}
		posts = append(posts, p)
	}
	return posts, nil
}

var _ core.ContentStore = (*ContentAdapter)(nil)
