package core

import (
	"testing"
	"time"

	"github.com/rushteam/feedkit/pkg/utils"
)

// TestCandidateWithLabel 测试候选的写时复制：修改不影响原值。
func TestCandidateWithLabel(t *testing.T) {
	a := Candidate{PostID: "p1"}
	b := a.WithLabel("source", utils.Label{Value: "in_network", Source: "source"})

	if len(a.Labels) != 0 {
		t.Error("WithLabel 不应修改原候选")
	}
	if b.Labels["source"].Value != "in_network" {
		t.Errorf("标签写入失败: %+v", b.Labels)
	}

	// 同名 key 按 Merge 规则累积
	c := b.WithLabel("source", utils.Label{Value: "trending", Source: "source"})
	if c.Labels["source"].Value != "in_network|trending" {
		t.Errorf("标签累积错误: %q", c.Labels["source"].Value)
	}
	if b.Labels["source"].Value != "in_network" {
		t.Error("累积标签不应回写前一个候选")
	}
}

func TestCandidateHydrated(t *testing.T) {
	stub := Candidate{PostID: "p1"}
	if stub.Hydrated() {
		t.Error("检索桩不应视为已补齐")
	}
	full := Candidate{PostID: "p1", CreatedAt: time.Now(), Content: "ipfs://x"}
	if !full.Hydrated() {
		t.Error("带时间与内容的候选应视为已补齐")
	}
}

func TestCandidateFromPost(t *testing.T) {
	p := Post{ID: "p1", Creator: "alice", CreatedAt: time.Now(), Content: "ipfs://x", Likes: 3}
	c := CandidateFromPost(p, SourceTrending)

	if c.Source != SourceTrending {
		t.Errorf("来源标记错误: %s", c.Source)
	}
	if c.Labels["source"].Value != string(SourceTrending) {
		t.Errorf("来源标签错误: %+v", c.Labels)
	}
	if c.Likes != 3 {
		t.Errorf("互动计数丢失: %d", c.Likes)
	}
}
