package core

import (
	"context"
	"time"
)

// 本文件定义链路依赖的外部协作方接口。
//
// 设计原则（与 Store 相同）：接口定义在领域层，由基础设施层
// （store / service / feast）或调用方实现。链路对协作方只有
// 无状态请求/响应的假设，不要求任何事务语义。

// UserContextStore 提供用户的关注、点赞、曝光、拉黑、屏蔽词
// 以及可选的口味向量。
type UserContextStore interface {
	FetchUserContext(ctx context.Context, wallet string) (*UserContext, error)
}

// ContentStore 提供原始帖子记录的三种读取方式。
type ContentStore interface {
	// PostsByAuthors 按作者集合取最近的帖子，按创建时间降序；
	// cursor > 0 时只返回创建时间早于 cursor（unix 秒）的帖子
	PostsByAuthors(ctx context.Context, authors []string, cursor int64, limit int) ([]Post, error)

	// PostsByIDs 按 ID 批量取帖子；缺失的 ID 被跳过
	PostsByIDs(ctx context.Context, ids []string) ([]Post, error)

	// Trending 取 since 之后按点赞数排序的热门帖子
	Trending(ctx context.Context, since time.Time, limit int) ([]Post, error)
}

// RetrievedCandidate 是外部 ML 检索返回的候选桩：
// 只带派生属性和预打分，核心字段（时间/内容/计数）为空，
// 由补水阶段回填。
type RetrievedCandidate struct {
	PostID      string           `json:"post_id"`
	Creator     string           `json:"creator_wallet"`
	Description string           `json:"description"`
	Tags        []string         `json:"tags"`
	SceneType   string           `json:"scene_type"`
	Mood        string           `json:"mood"`
	Scores      EngagementScores `json:"scores"`
	FinalScore  float64          `json:"final_score"`
}

// RetrieveRequest 是外部 ML 检索请求（双塔检索）。
type RetrieveRequest struct {
	UserID       string
	LikedPostIDs []string
	Following    []string
	ExcludeIDs   []string
	Limit        int
}

// RetrieveResponse 是外部 ML 检索响应。
type RetrieveResponse struct {
	Candidates   []RetrievedCandidate
	TasteProfile string
}

// RetrievalService 是外部 ML 检索服务（out-of-network 召回）。
type RetrievalService interface {
	Retrieve(ctx context.Context, req *RetrieveRequest) (*RetrieveResponse, error)
}

// CandidateFeatures 是送入打分服务的单候选特征。
type CandidateFeatures struct {
	PostID            string   `json:"post_id"`
	Creator           string   `json:"creator_wallet"`
	Description       string   `json:"description,omitempty"`
	Tags              []string `json:"tags"`
	SceneType         string   `json:"scene_type,omitempty"`
	Mood              string   `json:"mood,omitempty"`
	Likes             int64    `json:"likes"`
	Comments          int64    `json:"comments"`
	Tips              float64  `json:"tips_received"`
	AgeHours          float64  `json:"age_hours"`
	IsFollowingAuthor bool     `json:"is_following_creator"`
	Source            string   `json:"source"`
}

// ScoreRequest 是批量打分请求。
type ScoreRequest struct {
	UserID       string
	LikedPostIDs []string
	Following    []string
	Candidates   []CandidateFeatures
	Weights      map[Action]float64 // 可选，覆盖默认权重表
}

// Prediction 是单候选的多行为预测结果。
type Prediction struct {
	PostID     string           `json:"post_id"`
	Scores     EngagementScores `json:"scores"`
	FinalScore float64          `json:"final_score"`
}

// ScoreResponse 是批量打分响应。
type ScoreResponse struct {
	Predictions []Prediction
}

// ScoringService 是外部 ML 打分服务。可能不可用：
// 调用方必须自带启发式兜底。
type ScoringService interface {
	Score(ctx context.Context, req *ScoreRequest) (*ScoreResponse, error)
}

// MetricsSink 接收结构化的观测记录。
type MetricsSink interface {
	Emit(ctx context.Context, rec *MetricsRecord) error
}
