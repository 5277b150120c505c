// Package score 实现打分链。打分器串行执行，每个打分器保持
// 候选切片的长度与顺序不变，只改写分数字段。
package score

import (
	"context"
	"log/slog"
	"time"

	"github.com/rushteam/feedkit/core"
	"github.com/rushteam/feedkit/pipeline"
)

// Engagement 调用外部 ML 打分服务预测各互动行为的概率。
// 只对尚无预打分的候选发起批量请求（检索侧已打分的直接沿用）；
// 服务失败时降级为启发式兜底分，不中断流水线。
type Engagement struct {
	Service core.ScoringService
	Weights map[core.Action]float64
	Logger  *slog.Logger

	// Now 便于测试注入时钟，为 nil 时用 time.Now
	Now func() time.Time
}

func (s *Engagement) Name() string               { return "score.engagement" }
func (s *Engagement) Enabled(_ *core.Query) bool { return true }

func (s *Engagement) Score(ctx context.Context, q *core.Query, cands []core.Candidate) ([]core.Candidate, error) {
	if len(cands) == 0 {
		return cands, nil
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}

	// 检索侧已打分的候选沿用分数，只为未打分的发起请求
	var pending []int
	for i, c := range cands {
		if len(c.Scores) == 0 && c.FinalScore == 0 {
			pending = append(pending, i)
		}
	}
	if len(pending) == 0 {
		return cands, nil
	}
	// 没接打分服务的部署直接走启发式
	if s.Service == nil {
		return s.fallback(cands, pending), nil
	}

	features := make([]core.CandidateFeatures, 0, len(pending))
	for _, i := range pending {
		c := cands[i]
		features = append(features, core.CandidateFeatures{
			PostID:            c.PostID,
			Creator:           c.Creator,
			Description:       c.Description,
			Tags:              c.Tags,
			SceneType:         c.SceneType,
			Mood:              c.Mood,
			Likes:             c.Likes,
			Comments:          c.Comments,
			Tips:              c.Tips,
			AgeHours:          c.AgeHours(now()),
			IsFollowingAuthor: q.IsFollowing(c.Creator),
			Source:            string(c.Source),
		})
	}

	resp, err := s.Service.Score(ctx, &core.ScoreRequest{
		UserID:       q.UserID,
		LikedPostIDs: q.LikedList(),
		Following:    q.FollowingList(),
		Candidates:   features,
		Weights:      s.Weights,
	})
	if err != nil {
		if s.Logger != nil {
			s.Logger.Warn("scoring service degraded, falling back to heuristic",
				"scorer", s.Name(), "error", err)
		}
		return s.fallback(cands, pending), nil
	}

	byID := make(map[string]core.Prediction, len(resp.Predictions))
	for _, p := range resp.Predictions {
		byID[p.PostID] = p
	}

	out := make([]core.Candidate, len(cands))
	copy(out, cands)
	for _, i := range pending {
		p, ok := byID[out[i].PostID]
		if !ok {
			continue
		}
		out[i] = out[i].WithScores(p.Scores, p.FinalScore)
	}
	return out, nil
}

// fallback 给未打分的候选写启发式兜底分：likes×0.5 + comments×0.3。
// 已有分数的候选不动。
func (s *Engagement) fallback(cands []core.Candidate, pending []int) []core.Candidate {
	out := make([]core.Candidate, len(cands))
	copy(out, cands)
	for _, i := range pending {
		c := out[i]
		out[i] = c.WithScore(float64(c.Likes)*0.5 + float64(c.Comments)*0.3)
	}
	return out
}

var _ pipeline.Scorer = (*Engagement)(nil)
