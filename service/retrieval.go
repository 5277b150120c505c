package service

import (
	"context"
	"net/http"
	"time"

	"github.com/rushteam/feedkit/core"
)

// RetrievalClient 调用外部检索服务做兴趣流召回（双塔检索）。
//
// 请求格式（JSON）：
//
//	{"user_wallet": "...", "liked_post_ids": [...], "following_wallets": [...],
//	 "exclude_ids": [...], "limit": 60}
//
// 响应格式（JSON）：
//
//	{"candidates": [{"post_id": "...", "final_score": 0.82, ...}],
//	 "taste_profile": "...", "processing_time_ms": 30.1}
type RetrievalClient struct {
	Endpoint string // 例如 "http://ml-service:8000/pipeline/retrieve"
	Timeout  time.Duration
	Client   *http.Client
}

func NewRetrievalClient(endpoint string, timeout time.Duration) *RetrievalClient {
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &RetrievalClient{
		Endpoint: endpoint,
		Timeout:  timeout,
		Client: &http.Client{
			Timeout: timeout,
		},
	}
}

type retrieveRequestBody struct {
	UserWallet       string   `json:"user_wallet"`
	LikedPostIDs     []string `json:"liked_post_ids,omitempty"`
	FollowingWallets []string `json:"following_wallets,omitempty"`
	ExcludeIDs       []string `json:"exclude_ids,omitempty"`
	Limit            int      `json:"limit"`
}

type retrieveResponseBody struct {
	Candidates       []core.RetrievedCandidate `json:"candidates"`
	TasteProfile     string                    `json:"taste_profile,omitempty"`
	ProcessingTimeMS float64                   `json:"processing_time_ms"`
}

func (c *RetrievalClient) Retrieve(ctx context.Context, req *core.RetrieveRequest) (*core.RetrieveResponse, error) {
	body := retrieveRequestBody{
		UserWallet:       req.UserID,
		LikedPostIDs:     req.LikedPostIDs,
		FollowingWallets: req.Following,
		ExcludeIDs:       req.ExcludeIDs,
		Limit:            req.Limit,
	}

	// 复用 ScoringClient 的 HTTP 封装
	helper := &ScoringClient{Endpoint: c.Endpoint, Timeout: c.Timeout, Client: c.Client}
	var result retrieveResponseBody
	if err := helper.post(ctx, body, &result); err != nil {
		return nil, core.NewDomainError(core.ModuleML, core.ErrorCodeUnavailable, err.Error())
	}
	return &core.RetrieveResponse{
		Candidates:   result.Candidates,
		TasteProfile: result.TasteProfile,
	}, nil
}

var _ core.RetrievalService = (*RetrievalClient)(nil)
