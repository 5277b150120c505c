// Package feedkit 是一个 Feed 排序工具包（Feed Ranking Kit）。
//
// 设计要点：
// - Pipeline-first: 排序逻辑拆成六组阶段（Hydrate → Source → Filter → Score → Select → SideEffect），按固定状态机推进
// - 降级优先: 协作方（用户上下文/内容存储/ML 服务）故障在阶段边界就地降级，绝不中断整次执行
// - 阶段可插拔: 实现对应角色接口即可扩展；enable 门可在配置里用 CEL 表达式改写
package feedkit

import "github.com/rushteam/feedkit/pipeline"

// 轻量 facade：便于用户直接 import "feedkit" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Config = pipeline.Config

const (
	GroupHydrate    = pipeline.GroupHydrate
	GroupSource     = pipeline.GroupSource
	GroupEnrich     = pipeline.GroupEnrich
	GroupFilter     = pipeline.GroupFilter
	GroupScore      = pipeline.GroupScore
	GroupSelect     = pipeline.GroupSelect
	GroupPostFilter = pipeline.GroupPostFilter
	GroupSideEffect = pipeline.GroupSideEffect
)
