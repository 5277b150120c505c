// Package dsl 用 CEL (Common Expression Language) 实现阶段 enable 门的
// 表达式求值，让运营可以在配置里改写“某阶段何时启用”而不发版。
package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/feedkit/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvOnce sync.Once
	celEnvErr  error
)

// initCELEnv 初始化 CEL 环境，定义变量和函数
func initCELEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("query", cel.DynType),
	)
}

// getCELEnv 获取或创建 CEL 环境
func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = initCELEnv()
	})
	return celEnv, celEnvErr
}

// Gate 是编译好的 enable 门表达式。表达式在构造时编译一次，
// Allow 可以被并发多次调用。
//
// 表达式对 `query` 求值（CEL 标准语法），可用字段：
//   - query.user_id / query.limit / query.cursor / query.first_page
//   - query.following_count / query.liked_count / query.seen_count
//   - query.muted_count / query.has_taste_embedding
//
// 示例：
//   - `query.liked_count < 5`       → 冷启动用户
//   - `query.first_page`            → 仅首页
//   - `query.following_count > 0`   → 有关注关系
type Gate struct {
	expr string
	prg  cel.Program
}

// NewGate 编译一个门表达式。编译失败在装配期暴露，而不是运行期。
func NewGate(expr string) (*Gate, error) {
	if expr == "" {
		return nil, fmt.Errorf("empty gate expression")
	}
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile %q: %w", expr, issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program %q: %w", expr, err)
	}
	return &Gate{expr: expr, prg: prg}, nil
}

// Expr 返回原始表达式（日志/观测用）。
func (g *Gate) Expr() string { return g.expr }

// Allow 对 Query 求值门表达式。门是 Query 的纯函数，
// 每次执行都重新求值，不跨请求缓存结果。
func (g *Gate) Allow(q *core.Query) (bool, error) {
	out, _, err := g.prg.Eval(map[string]interface{}{
		"query": buildInput(q),
	})
	if err != nil {
		return false, fmt.Errorf("eval %q: %w", g.expr, err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression %q must return boolean, got %T", g.expr, out.Value())
	}
	return result, nil
}

// buildInput 构建 CEL 表达式的输入数据
func buildInput(q *core.Query) map[string]interface{} {
	return map[string]interface{}{
		"user_id":             q.UserID,
		"limit":               q.Limit,
		"cursor":              q.Cursor,
		"first_page":          q.FirstPage(),
		"following_count":     len(q.Following),
		"liked_count":         len(q.LikedPostIDs),
		"seen_count":          len(q.SeenPostIDs),
		"muted_count":         len(q.MutedKeywords),
		"has_taste_embedding": len(q.TasteEmbedding) > 0,
	}
}
