package core

import "context"

// Store 是存储的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（store）实现
//   - 遵循依赖倒置原则：领域层定义接口，基础设施层实现接口
//
// 使用场景：
//   - 结果缓存：首页 Feed 结果（短 TTL）
//   - 内容索引：帖子记录、作者/热门索引（见 store.ContentAdapter）
type Store interface {
	Name() string

	// Get 读取 key；不存在时返回 ErrStoreNotFound
	Get(ctx context.Context, key string) ([]byte, error)

	// Set 写入 key；ttl 为可选的过期秒数
	Set(ctx context.Context, key string, value []byte, ttl ...int) error

	Delete(ctx context.Context, key string) error

	// BatchGet 批量读取；缺失的 key 不出现在结果中
	BatchGet(ctx context.Context, keys []string) (map[string][]byte, error)

	BatchSet(ctx context.Context, kvs map[string][]byte, ttl ...int) error

	Close() error
}

// KeyValueStore 在 Store 之上扩展有序集合操作（Redis zset 语义）。
// 作者时间线与热门榜都以 zset 维护：member 是帖子 ID，
// score 是时间戳或点赞数。
type KeyValueStore interface {
	Store

	// ZAdd 写入有序集合成员
	ZAdd(ctx context.Context, key string, score float64, member string) error

	// ZRange 按 score 降序返回 [start, stop] 区间的成员
	ZRange(ctx context.Context, key string, start, stop int64) ([]string, error)

	// ZRangeByScore 按 score 降序返回 score ∈ [min, max] 的前 limit 个成员；
	// limit <= 0 表示不限制
	ZRangeByScore(ctx context.Context, key string, min, max float64, limit int) ([]string, error)

	// ZScore 返回成员的 score；不存在时返回 ErrStoreNotFound
	ZScore(ctx context.Context, key string, member string) (float64, error)
}
