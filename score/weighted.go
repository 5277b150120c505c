package score

import (
	"context"

	"github.com/rushteam/feedkit/core"
	"github.com/rushteam/feedkit/pipeline"
)

// Weighted 把各行为的预测概率按行为权重加权求和，得到综合分。
// 没有概率明细的候选（启发式兜底分或检索侧只给了总分）跳过，
// 保留已有的综合分。
type Weighted struct {
	// Weights 为 nil 时使用默认行为权重
	Weights map[core.Action]float64
}

func (s *Weighted) Name() string               { return "score.weighted" }
func (s *Weighted) Enabled(_ *core.Query) bool { return true }

func (s *Weighted) Score(_ context.Context, _ *core.Query, cands []core.Candidate) ([]core.Candidate, error) {
	weights := s.Weights
	if weights == nil {
		weights = core.DefaultWeights
	}

	out := make([]core.Candidate, len(cands))
	for i, c := range cands {
		if len(c.Scores) == 0 {
			out[i] = c
			continue
		}
		var sum float64
		for action, w := range weights {
			sum += w * c.Scores[action]
		}
		out[i] = c.WithScore(sum)
	}
	return out, nil
}

var _ pipeline.Scorer = (*Weighted)(nil)
