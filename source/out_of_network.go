package source

import (
	"context"
	"fmt"

	"github.com/rushteam/feedkit/core"
	"github.com/rushteam/feedkit/pipeline"
	"github.com/rushteam/feedkit/pkg/utils"
)

// OutOfNetwork 是兴趣流召回源：委托外部 ML 检索服务做双塔检索。
// 始终启用（冷启动时检索服务自己降级为热门/最近内容）。
//
// 返回的候选是“桩”：带派生属性与预打分（检索侧可能已打分），
// 但核心字段（时间/内容/计数）为空，由补水阶段回填。
// 已曝光的帖子通过 exclude 列表在检索侧剔除。检索响应携带的
// 口味画像通过部分更新回传，由编排器在召回 join 后并入 Query。
type OutOfNetwork struct {
	Service core.RetrievalService

	// Multiplier 为 0 时默认 3
	Multiplier int
}

func (s *OutOfNetwork) Name() string { return "source.out_of_network" }

func (s *OutOfNetwork) Enabled(_ *core.Query) bool { return s.Service != nil }

func (s *OutOfNetwork) Fetch(ctx context.Context, q *core.Query) ([]core.Candidate, *core.QueryUpdate, error) {
	multiplier := s.Multiplier
	if multiplier <= 0 {
		multiplier = 3
	}

	resp, err := s.Service.Retrieve(ctx, &core.RetrieveRequest{
		UserID:       q.UserID,
		LikedPostIDs: q.LikedList(),
		Following:    q.FollowingList(),
		ExcludeIDs:   q.SeenList(),
		Limit:        q.Limit * multiplier,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("retrieve: %w", err)
	}

	out := make([]core.Candidate, 0, len(resp.Candidates))
	for _, rc := range resp.Candidates {
		c := core.Candidate{
			PostID:      rc.PostID,
			Creator:     rc.Creator,
			Description: rc.Description,
			Tags:        rc.Tags,
			SceneType:   rc.SceneType,
			Mood:        rc.Mood,
			Source:      core.SourceOutOfNetwork,
			Scores:      rc.Scores,
			FinalScore:  rc.FinalScore,
		}
		c = c.WithLabel("source", utils.Label{Value: string(core.SourceOutOfNetwork), Source: "source"})
		out = append(out, c)
	}

	var update *core.QueryUpdate
	if resp.TasteProfile != "" {
		update = &core.QueryUpdate{TasteProfile: resp.TasteProfile}
	}
	return out, update, nil
}

var _ pipeline.Source = (*OutOfNetwork)(nil)
