package filter

import (
	"context"
	"time"

	"github.com/rushteam/feedkit/core"
	"github.com/rushteam/feedkit/pipeline"
)

// MaxAge 剔除超过 MaxAgeDays 天的旧帖。未补齐创建时间的候选
// （存储中找不到的桩）同样剔除：无法判断新鲜度的内容不进流。
type MaxAge struct {
	// MaxAgeDays 为 0 时默认 7
	MaxAgeDays int

	// Now 便于测试注入时钟，为 nil 时用 time.Now
	Now func() time.Time
}

func (f *MaxAge) Name() string               { return "filter.age" }
func (f *MaxAge) Enabled(_ *core.Query) bool { return true }

func (f *MaxAge) Filter(_ context.Context, _ *core.Query, cands []core.Candidate) ([]core.Candidate, []core.Candidate, error) {
	days := f.MaxAgeDays
	if days <= 0 {
		days = 7
	}
	now := time.Now
	if f.Now != nil {
		now = f.Now
	}
	cutoff := now().Add(-time.Duration(days) * 24 * time.Hour)

	kept := make([]core.Candidate, 0, len(cands))
	var removed []core.Candidate
	for _, c := range cands {
		if c.CreatedAt.IsZero() || c.CreatedAt.Before(cutoff) {
			removed = append(removed, reason(c, f.Name()))
			continue
		}
		kept = append(kept, c)
	}
	return kept, removed, nil
}

var _ pipeline.Filter = (*MaxAge)(nil)
