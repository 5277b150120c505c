package score

import (
	"context"
	"math"
	"time"

	"github.com/rushteam/feedkit/core"
	"github.com/rushteam/feedkit/pipeline"
)

// 半衰期衰减常数 ln(2)
const ln2 = 0.693

// Freshness 按帖子年龄做指数半衰期衰减，并与原分做 80/20 混合：
//
//	decay    = exp(-ln2 × ageHours / halfLife)
//	adjusted = final×0.8 + final×decay×0.2
//
// 混合保证旧帖分数最多损失 20%，不会因年龄直接清零。
// 未补齐创建时间的候选跳过。
type Freshness struct {
	// HalfLifeHours 为 0 时默认 48
	HalfLifeHours float64

	// Now 便于测试注入时钟，为 nil 时用 time.Now
	Now func() time.Time
}

func (s *Freshness) Name() string               { return "score.freshness" }
func (s *Freshness) Enabled(_ *core.Query) bool { return true }

func (s *Freshness) Score(_ context.Context, _ *core.Query, cands []core.Candidate) ([]core.Candidate, error) {
	halfLife := s.HalfLifeHours
	if halfLife <= 0 {
		halfLife = 48
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	ts := now()

	out := make([]core.Candidate, len(cands))
	for i, c := range cands {
		if c.CreatedAt.IsZero() {
			out[i] = c
			continue
		}
		age := c.AgeHours(ts)
		if age < 0 {
			age = 0
		}
		decay := math.Exp(-ln2 * age / halfLife)
		out[i] = c.WithScore(c.FinalScore*0.8 + c.FinalScore*decay*0.2)
	}
	return out, nil
}

var _ pipeline.Scorer = (*Freshness)(nil)
