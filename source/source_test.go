package source

import (
	"context"
	"testing"
	"time"

	"github.com/rushteam/feedkit/core"
)

type fakeContentStore struct {
	byAuthors      []core.Post
	trending       []core.Post
	gotAuthorLimit int
	gotSince       time.Time
}

func (f *fakeContentStore) PostsByAuthors(_ context.Context, _ []string, _ int64, limit int) ([]core.Post, error) {
	f.gotAuthorLimit = limit
	return f.byAuthors, nil
}

func (f *fakeContentStore) PostsByIDs(_ context.Context, _ []string) ([]core.Post, error) {
	return nil, nil
}

func (f *fakeContentStore) Trending(_ context.Context, since time.Time, _ int) ([]core.Post, error) {
	f.gotSince = since
	return f.trending, nil
}

type fakeRetrieval struct {
	resp *core.RetrieveResponse
	got  *core.RetrieveRequest
}

func (f *fakeRetrieval) Retrieve(_ context.Context, req *core.RetrieveRequest) (*core.RetrieveResponse, error) {
	f.got = req
	return f.resp, nil
}

// TestInNetwork 测试关注流：enable 门、超取倍数与来源标记。
func TestInNetwork(t *testing.T) {
	store := &fakeContentStore{byAuthors: []core.Post{
		{ID: "p1", Creator: "alice", CreatedAt: time.Now(), Content: "ipfs://p1"},
	}}
	s := &InNetwork{Store: store}

	if s.Enabled(&core.Query{}) {
		t.Error("关注集合为空时不应启用")
	}

	q := &core.Query{Limit: 20, Following: map[string]bool{"alice": true}}
	if !s.Enabled(q) {
		t.Fatal("有关注关系时应启用")
	}
	cands, _, err := s.Fetch(context.Background(), q)
	if err != nil {
		t.Fatalf("召回失败: %v", err)
	}
	if store.gotAuthorLimit != 60 {
		t.Errorf("期望超取 limit×3=60，实际 %d", store.gotAuthorLimit)
	}
	if len(cands) != 1 || cands[0].Source != core.SourceInNetwork {
		t.Errorf("来源标记错误: %+v", cands)
	}
}

// TestOutOfNetwork 测试兴趣流：曝光列表作为 exclude 透传，
// 检索桩带预打分，响应携带的口味画像作为部分更新回传。
func TestOutOfNetwork(t *testing.T) {
	svc := &fakeRetrieval{resp: &core.RetrieveResponse{
		Candidates: []core.RetrievedCandidate{
			{PostID: "p1", Creator: "carol", FinalScore: 0.8, Tags: []string{"art"}},
		},
		TasteProfile: "neon cityscapes",
	}}
	s := &OutOfNetwork{Service: svc}

	q := &core.Query{
		UserID: "wallet-a", Limit: 20,
		SeenPostIDs: map[string]bool{"seen-1": true},
	}
	cands, update, err := s.Fetch(context.Background(), q)
	if err != nil {
		t.Fatalf("召回失败: %v", err)
	}
	if len(svc.got.ExcludeIDs) != 1 || svc.got.ExcludeIDs[0] != "seen-1" {
		t.Errorf("曝光列表未透传: %v", svc.got.ExcludeIDs)
	}
	if svc.got.Limit != 60 {
		t.Errorf("期望检索 limit×3=60，实际 %d", svc.got.Limit)
	}
	c := cands[0]
	if c.Source != core.SourceOutOfNetwork || c.FinalScore != 0.8 {
		t.Errorf("检索桩转换错误: %+v", c)
	}
	if c.Hydrated() {
		t.Error("检索桩不应视为已补齐")
	}
	if update == nil || update.TasteProfile != "neon cityscapes" {
		t.Errorf("口味画像未回传: %+v", update)
	}
}

// TestOutOfNetworkNoProfile 响应不带画像时不产生部分更新。
func TestOutOfNetworkNoProfile(t *testing.T) {
	svc := &fakeRetrieval{resp: &core.RetrieveResponse{}}
	s := &OutOfNetwork{Service: svc}

	_, update, err := s.Fetch(context.Background(), &core.Query{UserID: "wallet-a", Limit: 20})
	if err != nil {
		t.Fatalf("召回失败: %v", err)
	}
	if update != nil {
		t.Errorf("无画像时应返回空更新: %+v", update)
	}
}

// TestTrending 测试热门流：冷启动门与时间窗口。
func TestTrending(t *testing.T) {
	now := time.Now()
	store := &fakeContentStore{trending: []core.Post{
		{ID: "hot", Creator: "bob", CreatedAt: now, Content: "ipfs://hot"},
	}}
	s := &Trending{Store: store, Now: func() time.Time { return now }}

	cold := &core.Query{Limit: 20, LikedPostIDs: map[string]bool{"p1": true}}
	if !s.Enabled(cold) {
		t.Error("低互动用户应启用热门召回")
	}

	warm := &core.Query{Limit: 20, LikedPostIDs: map[string]bool{
		"p1": true, "p2": true, "p3": true, "p4": true, "p5": true,
	}}
	if s.Enabled(warm) {
		t.Error("点赞数达到阈值后不应启用热门召回")
	}

	cands, _, err := s.Fetch(context.Background(), cold)
	if err != nil {
		t.Fatalf("召回失败: %v", err)
	}
	wantSince := now.Add(-48 * time.Hour)
	if !store.gotSince.Equal(wantSince) {
		t.Errorf("时间窗口错误: %v", store.gotSince)
	}
	if len(cands) != 1 || cands[0].Source != core.SourceTrending {
		t.Errorf("来源标记错误: %+v", cands)
	}
}
