package hydrate

import (
	"context"
	"fmt"

	"github.com/rushteam/feedkit/core"
	"github.com/rushteam/feedkit/feast"
	"github.com/rushteam/feedkit/pipeline"
	"github.com/rushteam/feedkit/pkg/conv"
)

// 默认的 Feast 特征名。FeatureView 为空时使用。
const (
	defaultTasteView = "user_taste"
	embeddingFeature = "embedding"
	profileFeature   = "profile"
)

// TasteHydrator 从 Feast 在线存储读取用户的预计算口味向量与
// 口味画像文本。与 UserContextHydrator 并发执行；合并规则保证
// 用户上下文存储给出的向量优先（已有向量时 Feast 的结果被忽略）。
type TasteHydrator struct {
	Client feast.Client

	// FeatureView 为空时默认 "user_taste"
	FeatureView string

	// EntityKey 为空时默认 "wallet"
	EntityKey string
}

func (h *TasteHydrator) Name() string               { return "hydrate.taste" }
func (h *TasteHydrator) Enabled(_ *core.Query) bool { return h.Client != nil }

func (h *TasteHydrator) Hydrate(ctx context.Context, q *core.Query) (*core.QueryUpdate, error) {
	view := h.FeatureView
	if view == "" {
		view = defaultTasteView
	}
	entityKey := h.EntityKey
	if entityKey == "" {
		entityKey = "wallet"
	}

	embeddingKey := view + ":" + embeddingFeature
	profileKey := view + ":" + profileFeature

	resp, err := h.Client.GetOnlineFeatures(ctx, &feast.GetOnlineFeaturesRequest{
		Features:   []string{embeddingKey, profileKey},
		EntityRows: []map[string]interface{}{{entityKey: q.UserID}},
	})
	if err != nil {
		return nil, fmt.Errorf("fetch taste features: %w", err)
	}
	if len(resp.FeatureVectors) == 0 {
		return nil, nil
	}

	values := resp.FeatureVectors[0].Values
	update := &core.QueryUpdate{}
	if raw, ok := values[embeddingKey]; ok {
		update.TasteEmbedding = toFloat32Slice(raw)
	}
	if profile, ok := conv.ToString(values[profileKey]); ok {
		update.TasteProfile = profile
	}
	return update, nil
}

// toFloat32Slice 宽松转换口味向量：Feast SDK 给 []float64，
// 其他 Client 实现可能给 []float32 或 []interface{}。
func toFloat32Slice(v interface{}) []float32 {
	switch vec := v.(type) {
	case []float32:
		return vec
	case []float64:
		return conv.ConvertSlice(vec, func(f float64) (float32, bool) {
			return float32(f), true
		})
	case []interface{}:
		return conv.ConvertSlice(vec, func(e interface{}) (float32, bool) {
			f, ok := conv.ToFloat64(e)
			return float32(f), ok
		})
	default:
		return nil
	}
}

var _ pipeline.QueryHydrator = (*TasteHydrator)(nil)
