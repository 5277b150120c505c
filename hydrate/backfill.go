package hydrate

import (
	"context"
	"fmt"

	"github.com/rushteam/feedkit/core"
	"github.com/rushteam/feedkit/pipeline"
)

// ContentBackfill 为核心字段为空的候选（外部检索返回的桩）
// 批量回填内容存储中的完整记录。
//
// 契约：输出的长度与顺序与输入完全一致。已补齐的候选
// （关注流/热门流）原样透传；存储中找不到的候选也原样保留，
// 由后续的年龄过滤等阶段自然处理。
type ContentBackfill struct {
	Store core.ContentStore
}

func (h *ContentBackfill) Name() string               { return "hydrate.backfill" }
func (h *ContentBackfill) Enabled(_ *core.Query) bool { return h.Store != nil }

func (h *ContentBackfill) Hydrate(ctx context.Context, _ *core.Query, cands []core.Candidate) ([]core.Candidate, error) {
	var missing []string
	for _, c := range cands {
		if !c.Hydrated() {
			missing = append(missing, c.PostID)
		}
	}
	if len(missing) == 0 {
		return cands, nil
	}

	posts, err := h.Store.PostsByIDs(ctx, missing)
	if err != nil {
		return nil, fmt.Errorf("backfill posts: %w", err)
	}
	byID := make(map[string]core.Post, len(posts))
	for _, p := range posts {
		byID[p.ID] = p
	}

	out := make([]core.Candidate, len(cands))
	for i, c := range cands {
		if c.Hydrated() {
			out[i] = c
			continue
		}
		p, ok := byID[c.PostID]
		if !ok {
			out[i] = c
			continue
		}
		out[i] = merge(c, p)
	}
	return out, nil
}

// merge 把帖子记录填进候选：只补空字段，检索阶段已给出的
// 派生属性与分数保持不变。
func merge(c core.Candidate, p core.Post) core.Candidate {
	c.CreatedAt = p.CreatedAt
	c.Content = p.Content
	c.Caption = p.Caption
	c.Likes = p.Likes
	c.Comments = p.Comments
	c.Tips = p.Tips
	c.TokenGated = p.TokenGated
	c.TokenMint = p.TokenMint
	if c.Creator == "" {
		c.Creator = p.Creator
	}
	if c.Description == "" {
		c.Description = p.Description
	}
	if len(c.Tags) == 0 {
		c.Tags = p.Tags
	}
	if c.SceneType == "" {
		c.SceneType = p.SceneType
	}
	if c.Mood == "" {
		c.Mood = p.Mood
	}
	return c
}

var _ pipeline.Hydrator = (*ContentBackfill)(nil)
