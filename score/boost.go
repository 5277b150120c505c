package score

import (
	"context"

	"github.com/rushteam/feedkit/core"
	"github.com/rushteam/feedkit/pipeline"
)

// InNetworkBoost 给关注流候选的综合分乘加成系数。
// 仅放大正分：零分与负分不加成（负分乘系数反而会更差，
// 零分乘出来还是零，加成无意义）。
type InNetworkBoost struct {
	// Factor 为 0 时默认 1.2
	Factor float64
}

func (s *InNetworkBoost) Name() string               { return "score.in_network_boost" }
func (s *InNetworkBoost) Enabled(q *core.Query) bool { return len(q.Following) > 0 }

func (s *InNetworkBoost) Score(_ context.Context, _ *core.Query, cands []core.Candidate) ([]core.Candidate, error) {
	factor := s.Factor
	if factor <= 0 {
		factor = 1.2
	}

	out := make([]core.Candidate, len(cands))
	for i, c := range cands {
		if c.Source == core.SourceInNetwork && c.FinalScore > 0 {
			out[i] = c.WithScore(c.FinalScore * factor)
			continue
		}
		out[i] = c
	}
	return out, nil
}

var _ pipeline.Scorer = (*InNetworkBoost)(nil)
