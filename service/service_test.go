package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rushteam/feedkit/core"
)

// TestScoringClient 测试打分客户端的请求/响应编解码。
func TestScoringClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("请求体解析失败: %v", err)
		}
		if body["user_wallet"] != "wallet-a" {
			t.Errorf("user_wallet 错误: %v", body["user_wallet"])
		}
		if len(body["candidates"].([]any)) != 1 {
			t.Errorf("candidates 数量错误")
		}
		json.NewEncoder(w).Encode(map[string]any{
			"predictions": []map[string]any{
				{"post_id": "p1", "scores": map[string]float64{"like": 0.5}, "final_score": 1.15},
			},
			"processing_time_ms": 12.5,
		})
	}))
	defer srv.Close()

	client := NewScoringClient(srv.URL, 0)
	resp, err := client.Score(context.Background(), &core.ScoreRequest{
		UserID:     "wallet-a",
		Candidates: []core.CandidateFeatures{{PostID: "p1", Likes: 3}},
	})
	if err != nil {
		t.Fatalf("打分调用失败: %v", err)
	}
	if len(resp.Predictions) != 1 || resp.Predictions[0].FinalScore != 1.15 {
		t.Errorf("响应解析错误: %+v", resp.Predictions)
	}
	if resp.Predictions[0].Scores[core.ActionLike] != 0.5 {
		t.Errorf("分数向量解析错误: %+v", resp.Predictions[0].Scores)
	}
}

// TestScoringClientEmptyBatch 空批量不发起请求。
func TestScoringClientEmptyBatch(t *testing.T) {
	client := NewScoringClient("http://127.0.0.1:0", 0)
	resp, err := client.Score(context.Background(), &core.ScoreRequest{UserID: "w"})
	if err != nil {
		t.Fatalf("空批量不应报错: %v", err)
	}
	if len(resp.Predictions) != 0 {
		t.Errorf("空批量应返回空响应: %+v", resp)
	}
}

// TestScoringClientServerError 非 200 响应转为 ml 模块的
// UNAVAILABLE 领域错误。
func TestScoringClientServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model loading", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewScoringClient(srv.URL, 0)
	_, err := client.Score(context.Background(), &core.ScoreRequest{
		Candidates: []core.CandidateFeatures{{PostID: "p1"}},
	})
	if !core.IsUnavailable(err) {
		t.Errorf("期望 UNAVAILABLE 领域错误，实际 %v", err)
	}
	if de := core.GetDomainError(err); de == nil || de.Module != core.ModuleML {
		t.Errorf("模块标记错误: %+v", de)
	}
}

// TestRetrievalClient 测试检索客户端的请求/响应编解码。
func TestRetrievalClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if body["user_wallet"] != "wallet-a" || body["limit"] != float64(60) {
			t.Errorf("请求体错误: %v", body)
		}
		if len(body["exclude_ids"].([]any)) != 1 {
			t.Errorf("exclude_ids 未透传")
		}
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{"post_id": "p1", "creator_wallet": "carol", "final_score": 0.8},
			},
			"taste_profile": "sunsets and lo-fi",
		})
	}))
	defer srv.Close()

	client := NewRetrievalClient(srv.URL, 0)
	resp, err := client.Retrieve(context.Background(), &core.RetrieveRequest{
		UserID:     "wallet-a",
		ExcludeIDs: []string{"seen-1"},
		Limit:      60,
	})
	if err != nil {
		t.Fatalf("检索调用失败: %v", err)
	}
	if len(resp.Candidates) != 1 || resp.Candidates[0].Creator != "carol" {
		t.Errorf("候选解析错误: %+v", resp.Candidates)
	}
	if resp.TasteProfile != "sunsets and lo-fi" {
		t.Errorf("口味画像解析错误: %q", resp.TasteProfile)
	}
}
