package core

// Action 是候选可能触发的用户行为。打分服务为每个候选输出
// 一组 Action -> 概率 的预测，最终分数是加权求和。
type Action string

const (
	ActionLike          Action = "like"
	ActionComment       Action = "comment"
	ActionShare         Action = "share"
	ActionSave          Action = "save"
	ActionTip           Action = "tip"
	ActionSubscribe     Action = "subscribe"
	ActionFollowCreator Action = "follow_creator"
	ActionDwell         Action = "dwell"
	ActionProfileClick  Action = "profile_click"
	ActionNotInterested Action = "not_interested"
	ActionMuteCreator   Action = "mute_creator"
	ActionReport        Action = "report"
)

// AllActions 是封闭的行为集合，加权打分始终遍历该集合。
var AllActions = []Action{
	ActionLike,
	ActionComment,
	ActionShare,
	ActionSave,
	ActionTip,
	ActionSubscribe,
	ActionFollowCreator,
	ActionDwell,
	ActionProfileClick,
	ActionNotInterested,
	ActionMuteCreator,
	ActionReport,
}

// DefaultWeights 是默认的行为权重表：Score = Σ(weight × P(action))。
// 负权重（not_interested / mute_creator / report）是刻意的，
// 负向信号占优时最终分数可以为负。
var DefaultWeights = map[Action]float64{
	ActionLike:          1.0,
	ActionComment:       1.5,
	ActionShare:         2.0,
	ActionSave:          1.5,
	ActionTip:           3.0,
	ActionSubscribe:     4.0,
	ActionFollowCreator: 2.5,
	ActionDwell:         0.5,
	ActionProfileClick:  0.5,
	ActionNotInterested: -3.0,
	ActionMuteCreator:   -5.0,
	ActionReport:        -10.0,
}

// CloneWeights 返回权重表的副本，调用方可安全覆盖单个权重。
func CloneWeights(w map[Action]float64) map[Action]float64 {
	out := make(map[Action]float64, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}
