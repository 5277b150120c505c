package sideeffect

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rushteam/feedkit/core"
	"github.com/rushteam/feedkit/store"
)

// TestResultCache 测试首页缓存：仅首页启用，写入的快照可解析。
func TestResultCache(t *testing.T) {
	ms := store.NewMemoryStore()
	defer ms.Close()
	sc := &ResultCache{Store: ms}

	if sc.Enabled(&core.Query{Cursor: 1700000000}) {
		t.Error("翻页请求不应写缓存")
	}
	q := &core.Query{RequestID: "r1", UserID: "wallet-a", Limit: 20}
	if !sc.Enabled(q) {
		t.Fatal("首页请求应写缓存")
	}

	res := &core.PipelineResult{Selected: []core.Candidate{{PostID: "p1", FinalScore: 1.2}}}
	if err := sc.Run(context.Background(), q, res); err != nil {
		t.Fatalf("缓存写入失败: %v", err)
	}

	data, err := ms.Get(context.Background(), CacheKey("wallet-a"))
	if err != nil {
		t.Fatalf("缓存读取失败: %v", err)
	}
	var snapshot CachedFeed
	if err := json.Unmarshal(data, &snapshot); err != nil {
		t.Fatalf("快照解析失败: %v", err)
	}
	if snapshot.RequestID != "r1" || len(snapshot.Selected) != 1 || snapshot.Selected[0].PostID != "p1" {
		t.Errorf("快照内容错误: %+v", snapshot)
	}
}

// TestResultCacheSkipsEmpty 空结果不写缓存（避免把一次降级
// 固化成整页空白）。
func TestResultCacheSkipsEmpty(t *testing.T) {
	ms := store.NewMemoryStore()
	defer ms.Close()
	sc := &ResultCache{Store: ms}

	q := &core.Query{RequestID: "r1", UserID: "wallet-a"}
	if err := sc.Run(context.Background(), q, &core.PipelineResult{}); err != nil {
		t.Fatalf("空结果不应报错: %v", err)
	}
	if _, err := ms.Get(context.Background(), CacheKey("wallet-a")); !core.IsNotFound(err) {
		t.Errorf("空结果不应写缓存: %v", err)
	}
}
