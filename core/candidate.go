package core

import (
	"time"

	"github.com/rushteam/feedkit/pkg/utils"
)

// SourceTag 标记候选来自哪条召回路径。
type SourceTag string

const (
	SourceInNetwork    SourceTag = "in_network"     // 关注流：关注作者的近期内容
	SourceOutOfNetwork SourceTag = "out_of_network" // 兴趣流：外部 ML 检索
	SourceTrending     SourceTag = "trending"       // 热门流：冷启动兜底
)

// EngagementScores 是候选的多行为预测向量：Action -> P(action)，值域 [0,1]。
type EngagementScores map[Action]float64

// Clone 返回分数向量的副本。
func (s EngagementScores) Clone() EngagementScores {
	if s == nil {
		return nil
	}
	out := make(EngagementScores, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Candidate 是 Feed 链路中的统一承载结构：内容元信息、互动计数、
// 预测分数、来源标记、标签。
//
// Candidate 是值语义：每个阶段“修改”候选时必须构造一个新值
// （见 WithScore / WithScores / WithLabel），PostID 不变、数据只增不减。
// 值语义让召回并发 fan-out 天然安全，也让“保持长度和顺序”的
// 阶段契约可审计 —— 回退路径依赖字段的有无来跳过/重入阶段
// （例如已带分数向量的候选会跳过 engagement 打分）。
type Candidate struct {
	PostID    string
	Creator   string // 作者钱包地址
	CreatedAt time.Time
	Content   string // 内容引用（媒体 URI）
	Caption   string

	// 互动计数
	Likes    int64
	Comments int64
	Tips     float64

	// 派生属性（内容理解产出，可为空）
	Description string
	Tags        []string
	SceneType   string
	Mood        string

	// Token 门控（由外层校验访问权限，链路内只透传）
	TokenGated bool
	TokenMint  string

	// Source 是召回来源标记
	Source SourceTag

	// Scores 是多行为预测向量；nil 表示尚未打分
	Scores EngagementScores

	// FinalScore 是链路中的运行分数，初始为 0 或来源给出的种子分
	FinalScore float64

	// Labels 用于解释与观测：召回来源、过滤原因、打分方式等
	Labels map[string]utils.Label
}

// Hydrated 返回候选的核心字段是否已补齐。
// 外部检索返回的候选只有 ID 和派生属性，需要补水阶段回填。
func (c Candidate) Hydrated() bool {
	return !c.CreatedAt.IsZero() && c.Content != ""
}

// AgeHours 返回候选距 now 的小时年龄；时间缺失时返回 0。
func (c Candidate) AgeHours(now time.Time) float64 {
	if c.CreatedAt.IsZero() {
		return 0
	}
	return now.Sub(c.CreatedAt).Hours()
}

// WithScore 返回一个只更新 FinalScore 的新候选。
func (c Candidate) WithScore(score float64) Candidate {
	c.FinalScore = score
	return c
}

// WithScores 返回一个更新分数向量与 FinalScore 的新候选。
func (c Candidate) WithScores(scores EngagementScores, final float64) Candidate {
	c.Scores = scores
	c.FinalScore = final
	return c
}

// WithLabel 返回一个写入 Label 的新候选；若已存在同名 key，
// 按默认 Merge 规则累积。Labels map 按写时复制处理。
func (c Candidate) WithLabel(key string, lbl utils.Label) Candidate {
	labels := make(map[string]utils.Label, len(c.Labels)+1)
	for k, v := range c.Labels {
		labels[k] = v
	}
	if old, ok := labels[key]; ok {
		labels[key] = utils.MergeLabel(old, lbl)
	} else {
		labels[key] = lbl
	}
	c.Labels = labels
	return c
}

// Post 是内容存储中的原始帖子记录。
type Post struct {
	ID          string
	Creator     string
	CreatedAt   time.Time
	Content     string
	Caption     string
	Likes       int64
	Comments    int64
	Tips        float64
	Description string
	Tags        []string
	SceneType   string
	Mood        string
	TokenGated  bool
	TokenMint   string
}

// CandidateFromPost 把帖子记录转为候选并打上来源标记。
func CandidateFromPost(p Post, source SourceTag) Candidate {
	c := Candidate{
		PostID:      p.ID,
		Creator:     p.Creator,
		CreatedAt:   p.CreatedAt,
		Content:     p.Content,
		Caption:     p.Caption,
		Likes:       p.Likes,
		Comments:    p.Comments,
		Tips:        p.Tips,
		Description: p.Description,
		Tags:        p.Tags,
		SceneType:   p.SceneType,
		Mood:        p.Mood,
		TokenGated:  p.TokenGated,
		TokenMint:   p.TokenMint,
		Source:      source,
	}
	return c.WithLabel("source", utils.Label{Value: string(source), Source: "source"})
}
