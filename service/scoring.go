// Package service 实现外部 ML 服务的 HTTP 客户端：批量打分与
// 双塔检索。两个客户端都是无状态请求/响应，超时靠 http.Client
// 与调用方的 context 双重约束。
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rushteam/feedkit/core"
)

// ScoringClient 调用外部打分服务预测各互动行为的概率。
//
// 请求格式（JSON）：
//
//	{"user_wallet": "...", "liked_post_ids": [...], "following_wallets": [...],
//	 "candidates": [{...}], "weights": {"like": 1.0, ...}}
//
// 响应格式（JSON）：
//
//	{"predictions": [{"post_id": "...", "scores": {...}, "final_score": 1.15}],
//	 "processing_time_ms": 12.5}
type ScoringClient struct {
	Endpoint string // 例如 "http://ml-service:8000/pipeline/score"
	Timeout  time.Duration
	Client   *http.Client
}

func NewScoringClient(endpoint string, timeout time.Duration) *ScoringClient {
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &ScoringClient{
		Endpoint: endpoint,
		Timeout:  timeout,
		Client: &http.Client{
			Timeout: timeout,
		},
	}
}

type scoreRequestBody struct {
	UserWallet       string                   `json:"user_wallet"`
	LikedPostIDs     []string                 `json:"liked_post_ids,omitempty"`
	FollowingWallets []string                 `json:"following_wallets,omitempty"`
	Candidates       []core.CandidateFeatures `json:"candidates"`
	Weights          map[core.Action]float64  `json:"weights,omitempty"`
}

type scoreResponseBody struct {
	Predictions      []core.Prediction `json:"predictions"`
	ProcessingTimeMS float64           `json:"processing_time_ms"`
}

func (c *ScoringClient) Score(ctx context.Context, req *core.ScoreRequest) (*core.ScoreResponse, error) {
	if len(req.Candidates) == 0 {
		return &core.ScoreResponse{}, nil
	}

	body := scoreRequestBody{
		UserWallet:       req.UserID,
		LikedPostIDs:     req.LikedPostIDs,
		FollowingWallets: req.Following,
		Candidates:       req.Candidates,
		Weights:          req.Weights,
	}
	var result scoreResponseBody
	if err := c.post(ctx, body, &result); err != nil {
		return nil, core.NewDomainError(core.ModuleML, core.ErrorCodeUnavailable, err.Error())
	}
	return &core.ScoreResponse{Predictions: result.Predictions}, nil
}

func (c *ScoringClient) post(ctx context.Context, body any, out any) error {
	if c.Client == nil {
		c.Client = &http.Client{Timeout: c.Timeout}
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("rpc call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("rpc error: status=%d, read body failed: %w", resp.StatusCode, err)
		}
		return fmt.Errorf("rpc error: status=%d, body=%s", resp.StatusCode, string(data))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

var _ core.ScoringService = (*ScoringClient)(nil)
