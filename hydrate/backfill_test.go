package hydrate

import (
	"context"
	"testing"
	"time"

	"github.com/rushteam/feedkit/core"
)

type fakeContentStore struct {
	posts map[string]core.Post
}

func (f *fakeContentStore) PostsByAuthors(_ context.Context, _ []string, _ int64, _ int) ([]core.Post, error) {
	return nil, nil
}

func (f *fakeContentStore) PostsByIDs(_ context.Context, ids []string) ([]core.Post, error) {
	var out []core.Post
	for _, id := range ids {
		if p, ok := f.posts[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeContentStore) Trending(_ context.Context, _ time.Time, _ int) ([]core.Post, error) {
	return nil, nil
}

// TestContentBackfill 测试候选补水：只回填桩，长度与顺序不变，
// 检索侧已给出的派生属性与分数保留。
func TestContentBackfill(t *testing.T) {
	now := time.Now()
	store := &fakeContentStore{posts: map[string]core.Post{
		"stub": {
			ID: "stub", Creator: "alice", CreatedAt: now, Content: "ipfs://stub",
			Likes: 7, Description: "store description", Tags: []string{"store-tag"},
		},
	}}
	h := &ContentBackfill{Store: store}

	full := core.Candidate{PostID: "full", Creator: "bob", CreatedAt: now, Content: "ipfs://full"}
	stub := core.Candidate{
		PostID: "stub", Source: core.SourceOutOfNetwork,
		Description: "ml description", FinalScore: 0.8,
	}
	missing := core.Candidate{PostID: "missing"}

	out, err := h.Hydrate(context.Background(), &core.Query{}, []core.Candidate{full, stub, missing})
	if err != nil {
		t.Fatalf("补水失败: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("长度契约被破坏: %d", len(out))
	}
	if out[0].PostID != "full" || out[1].PostID != "stub" || out[2].PostID != "missing" {
		t.Error("顺序契约被破坏")
	}

	// 桩被回填核心字段
	if !out[1].Hydrated() || out[1].Likes != 7 {
		t.Errorf("桩未回填: %+v", out[1])
	}
	// 检索侧的派生属性与分数优先
	if out[1].Description != "ml description" || out[1].FinalScore != 0.8 {
		t.Errorf("检索侧字段被覆盖: %+v", out[1])
	}
	// 存储里的派生属性只补空位
	if len(out[1].Tags) != 1 || out[1].Tags[0] != "store-tag" {
		t.Errorf("空位未用存储数据补齐: %v", out[1].Tags)
	}
	// 存储中找不到的候选原样透传
	if out[2].Hydrated() {
		t.Error("缺失的候选不应被改动")
	}
}
