// Package hydrate 包含查询补水与候选补水两类阶段：
// 前者在召回前填充用户上下文，后者在召回后回填候选的核心字段。
package hydrate

import (
	"context"
	"fmt"

	"github.com/rushteam/feedkit/core"
	"github.com/rushteam/feedkit/pipeline"
)

// UserContextHydrator 从用户上下文存储填充 Query 的关注、点赞、
// 曝光、拉黑、屏蔽词集合与口味向量。始终启用。
//
// 存储失败时由编排器降级：Query 带着空集合继续执行
// （冷启动行为），而不是让整次请求失败。
type UserContextHydrator struct {
	Store core.UserContextStore
}

func (h *UserContextHydrator) Name() string               { return "hydrate.user_context" }
func (h *UserContextHydrator) Enabled(_ *core.Query) bool { return true }

func (h *UserContextHydrator) Hydrate(ctx context.Context, q *core.Query) (*core.QueryUpdate, error) {
	if h.Store == nil {
		return nil, nil
	}

	uc, err := h.Store.FetchUserContext(ctx, q.UserID)
	if err != nil {
		return nil, fmt.Errorf("fetch user context: %w", err)
	}
	if uc == nil {
		return nil, nil
	}

	return &core.QueryUpdate{
		Following:      uc.Following,
		LikedPostIDs:   uc.LikedPostIDs,
		SeenPostIDs:    uc.SeenPostIDs,
		Blocked:        uc.Blocked,
		MutedKeywords:  uc.MutedKeywords,
		TasteEmbedding: uc.TasteEmbedding,
	}, nil
}

var _ pipeline.QueryHydrator = (*UserContextHydrator)(nil)
