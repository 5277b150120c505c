package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rushteam/feedkit/core"
)

// Config 是 Pipeline 的可调参数（支持 YAML/JSON）。
// 零值字段在 Normalize 时回填默认值，所以配置文件只需写想覆盖的项。
type Config struct {
	Pipeline struct {
		Name string `yaml:"name" json:"name"`

		// Limit 是默认返回条数；请求可覆盖，最终被钳制到 [1, MaxLimit]
		Limit    int `yaml:"limit" json:"limit"`
		MaxLimit int `yaml:"max_limit" json:"max_limit"`

		// CandidateMultiplier：各召回源取 limit × N 个候选
		CandidateMultiplier int `yaml:"candidate_multiplier" json:"candidate_multiplier"`

		// MaxAgeDays：超龄候选被过滤
		MaxAgeDays int `yaml:"max_age_days" json:"max_age_days"`

		// AuthorCap：单作者在最终结果中的条数上限
		AuthorCap int `yaml:"author_cap" json:"author_cap"`

		// InNetworkBoost：关注流候选的加分系数（仅作用于正分）
		InNetworkBoost float64 `yaml:"in_network_boost" json:"in_network_boost"`

		// HalfLifeHours：新鲜度衰减半衰期
		HalfLifeHours float64 `yaml:"half_life_hours" json:"half_life_hours"`

		// ColdStartLikedThreshold：点赞数低于该值时启用热门召回
		ColdStartLikedThreshold int `yaml:"cold_start_liked_threshold" json:"cold_start_liked_threshold"`

		// TrendingWindowHours：热门召回的时间窗口
		TrendingWindowHours int `yaml:"trending_window_hours" json:"trending_window_hours"`

		// CacheTTLSeconds：首页结果缓存的 TTL
		CacheTTLSeconds int `yaml:"cache_ttl_seconds" json:"cache_ttl_seconds"`

		// SourceTimeoutMS：每个召回源的超时毫秒数
		SourceTimeoutMS int `yaml:"source_timeout_ms" json:"source_timeout_ms"`

		// Weights 覆盖默认的行为权重表（按 action 名逐项覆盖）
		Weights map[string]float64 `yaml:"weights" json:"weights"`

		// Gates 按阶段名覆盖 enable 门，value 是对 query 的 CEL 表达式。
		// 例如 "source.trending": "query.liked_count < 10"
		Gates map[string]string `yaml:"gates" json:"gates"`
	} `yaml:"pipeline" json:"pipeline"`
}

// DefaultConfig 返回带默认值的配置。
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Normalize()
	return cfg
}

// Normalize 为零值字段回填默认值。
func (c *Config) Normalize() {
	p := &c.Pipeline
	if p.Name == "" {
		p.Name = "feed"
	}
	if p.Limit <= 0 {
		p.Limit = 20
	}
	if p.MaxLimit <= 0 {
		p.MaxLimit = 100
	}
	if p.CandidateMultiplier <= 0 {
		p.CandidateMultiplier = 3
	}
	if p.MaxAgeDays <= 0 {
		p.MaxAgeDays = 7
	}
	if p.AuthorCap <= 0 {
		p.AuthorCap = 2
	}
	if p.InNetworkBoost <= 0 {
		p.InNetworkBoost = 1.2
	}
	if p.HalfLifeHours <= 0 {
		p.HalfLifeHours = 48
	}
	if p.ColdStartLikedThreshold <= 0 {
		p.ColdStartLikedThreshold = 5
	}
	if p.TrendingWindowHours <= 0 {
		p.TrendingWindowHours = 48
	}
	if p.CacheTTLSeconds <= 0 {
		p.CacheTTLSeconds = 60
	}
	if p.SourceTimeoutMS <= 0 {
		p.SourceTimeoutMS = 800
	}
}

// ActionWeights 返回默认权重表叠加配置覆盖后的权重。
func (c *Config) ActionWeights() map[core.Action]float64 {
	w := core.CloneWeights(core.DefaultWeights)
	for name, v := range c.Pipeline.Weights {
		w[core.Action(name)] = v
	}
	return w
}

// SourceTimeout 返回召回源超时时间。
func (c *Config) SourceTimeout() time.Duration {
	return time.Duration(c.Pipeline.SourceTimeoutMS) * time.Millisecond
}

// LoadFromYAML 从 YAML 文件加载配置。
func LoadFromYAML(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	cfg.Normalize()
	return &cfg, nil
}

// LoadFromJSON 从 JSON 文件加载配置。
func LoadFromJSON(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	cfg.Normalize()
	return &cfg, nil
}
