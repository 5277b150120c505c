package pipeline

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rushteam/feedkit/core"
)

// 各阶段角色的测试桩

type stubQueryHydrator struct {
	name   string
	update *core.QueryUpdate
	err    error
	delay  time.Duration
}

func (s *stubQueryHydrator) Name() string               { return s.name }
func (s *stubQueryHydrator) Enabled(_ *core.Query) bool { return true }
func (s *stubQueryHydrator) Hydrate(_ context.Context, _ *core.Query) (*core.QueryUpdate, error) {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return s.update, s.err
}

type stubSource struct {
	name    string
	enabled bool
	cands   []core.Candidate
	update  *core.QueryUpdate
	err     error
	delay   time.Duration
}

func (s *stubSource) Name() string               { return s.name }
func (s *stubSource) Enabled(_ *core.Query) bool { return s.enabled }
func (s *stubSource) Fetch(_ context.Context, _ *core.Query) ([]core.Candidate, *core.QueryUpdate, error) {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return s.cands, s.update, s.err
}

type stubScorer struct {
	name string
	fn   func([]core.Candidate) ([]core.Candidate, error)
}

func (s *stubScorer) Name() string               { return s.name }
func (s *stubScorer) Enabled(_ *core.Query) bool { return true }
func (s *stubScorer) Score(_ context.Context, _ *core.Query, cands []core.Candidate) ([]core.Candidate, error) {
	return s.fn(cands)
}

type stubFilter struct {
	name string
	fn   func([]core.Candidate) ([]core.Candidate, []core.Candidate, error)
}

func (s *stubFilter) Name() string               { return s.name }
func (s *stubFilter) Enabled(_ *core.Query) bool { return true }
func (s *stubFilter) Filter(_ context.Context, _ *core.Query, cands []core.Candidate) ([]core.Candidate, []core.Candidate, error) {
	return s.fn(cands)
}

type stubSideEffect struct {
	name     string
	disabled bool
	ran      atomic.Int32
	err      error
}

func (s *stubSideEffect) Name() string               { return s.name }
func (s *stubSideEffect) Enabled(_ *core.Query) bool { return !s.disabled }
func (s *stubSideEffect) Run(_ context.Context, _ *core.Query, _ *core.PipelineResult) error {
	s.ran.Add(1)
	return s.err
}

func cand(id string) core.Candidate {
	return core.Candidate{PostID: id}
}

// TestPipelineSourceFaultIsolation 测试召回故障隔离：
// 一个源失败不影响其他源，结果降级而非报错。
func TestPipelineSourceFaultIsolation(t *testing.T) {
	p := &Pipeline{
		Sources: []Source{
			&stubSource{name: "ok", enabled: true, cands: []core.Candidate{cand("p1"), cand("p2")}},
			&stubSource{name: "broken", enabled: true, err: errors.New("connection refused")},
			&stubSource{name: "disabled", cands: []core.Candidate{cand("p9")}},
		},
	}
	res, err := p.Run(context.Background(), &core.Query{RequestID: "r1", Limit: 10})
	if err != nil {
		t.Fatalf("协作方故障不应让 Run 返回错误: %v", err)
	}
	if len(res.Fetched) != 2 {
		t.Errorf("期望召回 2 条，实际 %d", len(res.Fetched))
	}

	// 禁用的源要有 Skipped 打点
	var skipped bool
	for _, m := range res.Metrics.Stages {
		if m.Stage == "disabled" && m.Skipped {
			skipped = true
		}
	}
	if !skipped {
		t.Error("禁用的源应记录 Skipped 指标")
	}
}

// TestPipelineQueryHydratorMerge 测试并发补水的加法合并与降级。
func TestPipelineQueryHydratorMerge(t *testing.T) {
	p := &Pipeline{
		QueryHydrators: []QueryHydrator{
			&stubQueryHydrator{name: "a", update: &core.QueryUpdate{Following: []string{"alice"}}},
			&stubQueryHydrator{name: "b", update: &core.QueryUpdate{Following: []string{"bob"}, MutedKeywords: []string{"spam"}}},
			&stubQueryHydrator{name: "broken", err: errors.New("timeout")},
		},
	}
	q := &core.Query{RequestID: "r1", Limit: 10}
	if _, err := p.Run(context.Background(), q); err != nil {
		t.Fatalf("补水降级不应报错: %v", err)
	}
	if len(q.Following) != 2 || !q.IsFollowing("alice") || !q.IsFollowing("bob") {
		t.Errorf("补水合并丢失数据: %v", q.Following)
	}
	if len(q.MutedKeywords) != 1 {
		t.Errorf("屏蔽词未合并: %v", q.MutedKeywords)
	}
}

// TestPipelineQueryHydratorDeclaredOrder 测试补水合并按声明顺序
// 进行：先声明的 hydrator 先完成合并，首写优先的口味向量归属
// 由装配顺序决定，与哪个 goroutine 先返回无关。
func TestPipelineQueryHydratorDeclaredOrder(t *testing.T) {
	p := &Pipeline{
		QueryHydrators: []QueryHydrator{
			&stubQueryHydrator{name: "slow-first", delay: 30 * time.Millisecond,
				update: &core.QueryUpdate{TasteEmbedding: []float32{1, 1, 1}}},
			&stubQueryHydrator{name: "fast-second",
				update: &core.QueryUpdate{TasteEmbedding: []float32{9, 9, 9}}},
		},
	}
	q := &core.Query{RequestID: "r1", Limit: 10}
	if _, err := p.Run(context.Background(), q); err != nil {
		t.Fatalf("Run 失败: %v", err)
	}
	if len(q.TasteEmbedding) != 3 || q.TasteEmbedding[0] != 1 {
		t.Errorf("先声明的 hydrator 的向量应生效: %v", q.TasteEmbedding)
	}
}

// TestPipelineSourceDeclaredOrder 测试召回结果按声明顺序拼接，
// 与各源的完成先后无关（去重保留首次出现时依赖此顺序）。
func TestPipelineSourceDeclaredOrder(t *testing.T) {
	p := &Pipeline{
		Sources: []Source{
			&stubSource{name: "slow-first", enabled: true, delay: 30 * time.Millisecond,
				cands: []core.Candidate{cand("p1")}},
			&stubSource{name: "fast-second", enabled: true,
				cands: []core.Candidate{cand("p2")}},
		},
	}
	res, err := p.Run(context.Background(), &core.Query{RequestID: "r1", Limit: 10})
	if err != nil {
		t.Fatalf("Run 失败: %v", err)
	}
	if len(res.Fetched) != 2 || res.Fetched[0].PostID != "p1" || res.Fetched[1].PostID != "p2" {
		t.Errorf("召回拼接顺序应为声明顺序: %+v", res.Fetched)
	}
}

// TestPipelineSourceQueryUpdate 测试召回响应携带的查询级信号
// 在 join 之后并入 Query。
func TestPipelineSourceQueryUpdate(t *testing.T) {
	p := &Pipeline{
		Sources: []Source{
			&stubSource{name: "plain", enabled: true, cands: []core.Candidate{cand("p1")}},
			&stubSource{name: "with-profile", enabled: true,
				cands:  []core.Candidate{cand("p2")},
				update: &core.QueryUpdate{TasteProfile: "sunsets and lo-fi"}},
		},
	}
	q := &core.Query{RequestID: "r1", Limit: 10}
	if _, err := p.Run(context.Background(), q); err != nil {
		t.Fatalf("Run 失败: %v", err)
	}
	if q.TasteProfile != "sunsets and lo-fi" {
		t.Errorf("召回携带的口味画像未并入 Query: %q", q.TasteProfile)
	}
}

// TestPipelineLengthContract 测试长度契约：打分器增删候选时
// 保留输入继续执行。
func TestPipelineLengthContract(t *testing.T) {
	p := &Pipeline{
		Sources: []Source{
			&stubSource{name: "src", enabled: true, cands: []core.Candidate{cand("p1"), cand("p2")}},
		},
		Scorers: []Scorer{
			&stubScorer{name: "bad", fn: func(cands []core.Candidate) ([]core.Candidate, error) {
				return cands[:1], nil // 违反契约
			}},
			&stubScorer{name: "good", fn: func(cands []core.Candidate) ([]core.Candidate, error) {
				out := make([]core.Candidate, len(cands))
				for i, c := range cands {
					out[i] = c.WithScore(1)
				}
				return out, nil
			}},
		},
	}
	res, err := p.Run(context.Background(), &core.Query{RequestID: "r1", Limit: 10})
	if err != nil {
		t.Fatalf("契约违反应降级而非报错: %v", err)
	}
	if len(res.Filtered) != 2 {
		t.Fatalf("违反契约的阶段应被忽略: %d", len(res.Filtered))
	}
	if res.Filtered[0].FinalScore != 1 {
		t.Error("后续打分器应照常执行")
	}
}

// TestPipelineFilterDegrade 测试过滤器报错时保留输入继续。
func TestPipelineFilterDegrade(t *testing.T) {
	p := &Pipeline{
		Sources: []Source{
			&stubSource{name: "src", enabled: true, cands: []core.Candidate{cand("p1"), cand("p2")}},
		},
		Filters: []Filter{
			&stubFilter{name: "broken", fn: func(_ []core.Candidate) ([]core.Candidate, []core.Candidate, error) {
				return nil, nil, errors.New("boom")
			}},
			&stubFilter{name: "drop-first", fn: func(cands []core.Candidate) ([]core.Candidate, []core.Candidate, error) {
				return cands[1:], cands[:1], nil
			}},
		},
	}
	res, err := p.Run(context.Background(), &core.Query{RequestID: "r1", Limit: 10})
	if err != nil {
		t.Fatalf("过滤器故障不应报错: %v", err)
	}
	if len(res.Filtered) != 1 || res.Filtered[0].PostID != "p2" {
		t.Errorf("报错的过滤器应被跳过，后续照常: %+v", res.Filtered)
	}
}

// TestPipelineSideEffectsDetached 测试旁路效果：错误不回传，
// Wait 之后全部执行完毕。
func TestPipelineSideEffectsDetached(t *testing.T) {
	ok := &stubSideEffect{name: "ok"}
	bad := &stubSideEffect{name: "bad", err: errors.New("sink down")}
	p := &Pipeline{
		Sources:     []Source{&stubSource{name: "src", enabled: true, cands: []core.Candidate{cand("p1")}}},
		SideEffects: []SideEffect{ok, bad},
	}
	res, err := p.Run(context.Background(), &core.Query{RequestID: "r1", Limit: 10})
	if err != nil {
		t.Fatalf("旁路效果失败不应影响 Run: %v", err)
	}
	p.Wait()

	if ok.ran.Load() != 1 || bad.ran.Load() != 1 {
		t.Errorf("旁路效果应各执行一次: ok=%d bad=%d", ok.ran.Load(), bad.ran.Load())
	}
	if len(res.Selected) != 1 {
		t.Errorf("结果不应受旁路效果影响: %d", len(res.Selected))
	}
}

// metricsReader 在执行时检查结果里是否已有旁路阶段的 Skipped 打点。
type metricsReader struct {
	name       string
	sawSkipped atomic.Bool
}

func (s *metricsReader) Name() string               { return s.name }
func (s *metricsReader) Enabled(_ *core.Query) bool { return true }
func (s *metricsReader) Run(_ context.Context, _ *core.Query, res *core.PipelineResult) error {
	for _, m := range res.Metrics.Stages {
		if m.Skipped && m.Group == string(GroupSideEffect) {
			s.sawSkipped.Store(true)
		}
	}
	return nil
}

// TestPipelineSideEffectMetricsBeforeDispatch 测试旁路指标在派发前
// 记录完整：先派发的效果读取结果时，后续被禁用阶段的 Skipped
// 打点已经就位，派发后主链路不再写 res。
func TestPipelineSideEffectMetricsBeforeDispatch(t *testing.T) {
	reader := &metricsReader{name: "reader"}
	p := &Pipeline{
		Sources:     []Source{&stubSource{name: "src", enabled: true, cands: []core.Candidate{cand("p1")}}},
		SideEffects: []SideEffect{reader, &stubSideEffect{name: "off", disabled: true}},
	}
	if _, err := p.Run(context.Background(), &core.Query{RequestID: "r1", Limit: 10}); err != nil {
		t.Fatalf("Run 失败: %v", err)
	}
	p.Wait()

	if !reader.sawSkipped.Load() {
		t.Error("派发时禁用阶段的 Skipped 打点应已记录")
	}
}

// TestPipelineSelectedWithinLimit 测试终态不变量：Selected 不超过
// limit，且每个入选 ID 都出现在 Filtered 中。
func TestPipelineSelectedWithinLimit(t *testing.T) {
	many := make([]core.Candidate, 30)
	for i := range many {
		many[i] = core.Candidate{PostID: string(rune('a' + i)), FinalScore: float64(i)}
	}
	p := &Pipeline{
		Sources:  []Source{&stubSource{name: "src", enabled: true, cands: many}},
		Selector: &takeLimit{},
	}
	q := &core.Query{RequestID: "r1", Limit: 5}
	res, err := p.Run(context.Background(), q)
	if err != nil {
		t.Fatalf("Run 失败: %v", err)
	}
	if len(res.Selected) > q.Limit {
		t.Errorf("Selected 超过 limit: %d", len(res.Selected))
	}
	filtered := make(map[string]bool)
	for _, c := range res.Filtered {
		filtered[c.PostID] = true
	}
	for _, c := range res.Selected {
		if !filtered[c.PostID] {
			t.Errorf("入选候选 %s 不在 Filtered 中", c.PostID)
		}
	}
}

type takeLimit struct{}

func (t *takeLimit) Name() string               { return "take" }
func (t *takeLimit) Enabled(_ *core.Query) bool { return true }
func (t *takeLimit) Select(q *core.Query, cands []core.Candidate) []core.Candidate {
	if len(cands) > q.Limit {
		return cands[:q.Limit]
	}
	return cands
}
