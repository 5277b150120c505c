// Package feed 是执行入口：持有协作方，按配置装配 Pipeline，
// 对外暴露 Rank。
package feed

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/rushteam/feedkit/core"
	"github.com/rushteam/feedkit/feast"
	"github.com/rushteam/feedkit/filter"
	"github.com/rushteam/feedkit/hydrate"
	"github.com/rushteam/feedkit/pipeline"
	"github.com/rushteam/feedkit/rerank"
	"github.com/rushteam/feedkit/score"
	"github.com/rushteam/feedkit/sideeffect"
	"github.com/rushteam/feedkit/source"
)

// Engine 持有 Feed 排序的全部协作方。除 Content 外都可以为 nil：
// 缺失的协作方对应的阶段在装配时被跳过，链路照常降级运行。
type Engine struct {
	Config *pipeline.Config

	UserContext core.UserContextStore
	Content     core.ContentStore
	Retrieval   core.RetrievalService
	Scoring     core.ScoringService
	Feast       feast.Client

	// Cache 存首页结果快照，短 TTL
	Cache core.Store

	Metrics core.MetricsSink

	// Logger 为 nil 时使用 slog.Default()
	Logger *slog.Logger

	buildOnce sync.Once
	pipe      *pipeline.Pipeline
	buildErr  error
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

func (e *Engine) config() *pipeline.Config {
	if e.Config == nil {
		e.Config = pipeline.DefaultConfig()
	}
	return e.Config
}

// Rank 执行一次 Feed 排序。
//
// limit 被钳制到 [1, max_limit]，0 取配置默认值；cursor 是上一页
// 最后一条的创建时间（unix 秒），0 表示首页。首页请求先查结果
// 缓存，命中直接返回（FromCache 标记）。
//
// 协作方故障不会让 Rank 返回错误 —— 只有装配错误与阶段 panic
// （编排 bug）会逃逸，调用方据此回退到时间线 Feed。
func (e *Engine) Rank(ctx context.Context, wallet string, limit int, cursor int64) (res *core.PipelineResult, err error) {
	cfg := e.config()
	if limit <= 0 {
		limit = cfg.Pipeline.Limit
	}
	if limit > cfg.Pipeline.MaxLimit {
		limit = cfg.Pipeline.MaxLimit
	}
	if cursor < 0 {
		cursor = 0
	}

	if cursor == 0 {
		if cached := e.cachedFirstPage(ctx, wallet, limit); cached != nil {
			return cached, nil
		}
	}

	pipe, err := e.pipeline()
	if err != nil {
		return nil, err
	}

	q := &core.Query{
		RequestID: uuid.NewString(),
		UserID:    wallet,
		Limit:     limit,
		Cursor:    cursor,
	}

	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = &pipeline.FatalPipelineError{Op: "run", Cause: r}
		}
	}()
	return pipe.Run(ctx, q)
}

// Wait 阻塞直到所有旁路效果（缓存写入/指标上报）结束。
// 仅供测试与优雅退出使用。
func (e *Engine) Wait() {
	if pipe, err := e.pipeline(); err == nil {
		pipe.Wait()
	}
}

// cachedFirstPage 读取首页快照。任何缓存故障（含损坏的记录）
// 都当作未命中。
func (e *Engine) cachedFirstPage(ctx context.Context, wallet string, limit int) *core.PipelineResult {
	if e.Cache == nil {
		return nil
	}
	data, err := e.Cache.Get(ctx, sideeffect.CacheKey(wallet))
	if err != nil {
		if !core.IsNotFound(err) {
			e.logger().Warn("feed cache read degraded", "user_id", wallet, "err", err)
		}
		return nil
	}

	var snapshot sideeffect.CachedFeed
	if err := json.Unmarshal(data, &snapshot); err != nil {
		e.logger().Warn("feed cache entry corrupt", "user_id", wallet, "err", err)
		return nil
	}
	selected := snapshot.Selected
	if len(selected) > limit {
		selected = selected[:limit]
	}
	return &core.PipelineResult{
		Selected:  selected,
		FromCache: true,
		Metrics: core.MetricsRecord{
			RequestID: snapshot.RequestID,
			UserID:    wallet,
		},
	}
}

// pipeline 按配置装配链路（只装配一次）。门表达式的编译错误
// 在这里暴露，而不是运行期。
func (e *Engine) pipeline() (*pipeline.Pipeline, error) {
	e.buildOnce.Do(func() {
		e.pipe, e.buildErr = e.build()
	})
	return e.pipe, e.buildErr
}

func (e *Engine) build() (*pipeline.Pipeline, error) {
	cfg := e.config()
	p := &cfg.Pipeline
	log := e.logger()
	weights := cfg.ActionWeights()

	pipe := &pipeline.Pipeline{
		Selector:      &rerank.TopN{},
		SourceTimeout: cfg.SourceTimeout(),
		Logger:        log,
	}

	if e.UserContext != nil {
		pipe.QueryHydrators = append(pipe.QueryHydrators,
			&hydrate.UserContextHydrator{Store: e.UserContext})
	}
	if e.Feast != nil {
		pipe.QueryHydrators = append(pipe.QueryHydrators,
			&hydrate.TasteHydrator{Client: e.Feast})
	}

	if e.Content != nil {
		pipe.Sources = append(pipe.Sources,
			&source.InNetwork{Store: e.Content, Multiplier: p.CandidateMultiplier})
	}
	if e.Retrieval != nil {
		pipe.Sources = append(pipe.Sources,
			&source.OutOfNetwork{Service: e.Retrieval, Multiplier: p.CandidateMultiplier})
	}
	if e.Content != nil {
		pipe.Sources = append(pipe.Sources,
			&source.Trending{Store: e.Content, LikedThreshold: p.ColdStartLikedThreshold, WindowHours: p.TrendingWindowHours})
		pipe.Hydrators = append(pipe.Hydrators,
			&hydrate.ContentBackfill{Store: e.Content})
	}

	pipe.Filters = []pipeline.Filter{
		&filter.Dedup{},
		&filter.MaxAge{MaxAgeDays: p.MaxAgeDays},
		&filter.SelfPost{},
		&filter.Blocked{},
		&filter.Seen{},
		&filter.MutedKeywords{},
	}

	pipe.Scorers = []pipeline.Scorer{
		&score.Engagement{Service: e.Scoring, Weights: weights, Logger: log},
		&score.Weighted{Weights: weights},
		&score.InNetworkBoost{Factor: p.InNetworkBoost},
		&score.Freshness{HalfLifeHours: p.HalfLifeHours},
	}

	pipe.PostFilters = []pipeline.Filter{
		&rerank.AuthorDiversity{Cap: p.AuthorCap},
	}

	if e.Cache != nil {
		pipe.SideEffects = append(pipe.SideEffects,
			&sideeffect.ResultCache{Store: e.Cache, TTLSeconds: p.CacheTTLSeconds})
	}
	if e.Metrics != nil {
		pipe.SideEffects = append(pipe.SideEffects,
			&sideeffect.MetricsEmitter{Sink: e.Metrics})
	}

	if err := applyGates(pipe, p.Gates, log); err != nil {
		return nil, err
	}
	return pipe, nil
}
