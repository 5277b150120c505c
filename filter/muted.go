package filter

import (
	"context"
	"strings"

	"github.com/rushteam/feedkit/core"
	"github.com/rushteam/feedkit/pipeline"
)

// MutedKeywords 剔除命中用户静音关键词的帖子。匹配不区分大小写，
// 范围是标题、描述与标签（标签做整词匹配，文本做子串匹配）。
type MutedKeywords struct{}

func (f *MutedKeywords) Name() string               { return "filter.muted" }
func (f *MutedKeywords) Enabled(q *core.Query) bool { return len(q.MutedKeywords) > 0 }

func (f *MutedKeywords) Filter(_ context.Context, q *core.Query, cands []core.Candidate) ([]core.Candidate, []core.Candidate, error) {
	keywords := make([]string, 0, len(q.MutedKeywords))
	for _, kw := range q.MutedKeywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			keywords = append(keywords, kw)
		}
	}
	if len(keywords) == 0 {
		return cands, nil, nil
	}

	kept := make([]core.Candidate, 0, len(cands))
	var removed []core.Candidate
	for _, c := range cands {
		if matches(c, keywords) {
			removed = append(removed, reason(c, f.Name()))
			continue
		}
		kept = append(kept, c)
	}
	return kept, removed, nil
}

func matches(c core.Candidate, keywords []string) bool {
	caption := strings.ToLower(c.Caption)
	desc := strings.ToLower(c.Description)
	tags := make([]string, len(c.Tags))
	for i, t := range c.Tags {
		tags[i] = strings.ToLower(t)
	}
	for _, kw := range keywords {
		if strings.Contains(caption, kw) || strings.Contains(desc, kw) {
			return true
		}
		for _, t := range tags {
			if t == kw {
				return true
			}
		}
	}
	return false
}

var _ pipeline.Filter = (*MutedKeywords)(nil)
