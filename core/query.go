package core

// Query 承载一次 Feed 请求的全部上下文，贯穿整个 Pipeline 透传。
//
// 生命周期约束：只在编排器的串行合并点（补水 join 与召回 join）
// 可变，各阶段自身只读；每次执行独占一个 Query，不与并发请求共享。
type Query struct {
	RequestID string
	UserID    string // 用户钱包地址
	Limit     int    // 期望返回的条数上限
	Cursor    int64  // 分页游标（unix 秒时间戳），0 表示首页

	// 以下集合由补水阶段填充；补水失败时保持为空（冷启动降级）
	Following     map[string]bool // 关注的作者
	LikedPostIDs  map[string]bool // 点过赞的帖子
	SeenPostIDs   map[string]bool // 已曝光的帖子
	Blocked       map[string]bool // 拉黑/静音的作者
	MutedKeywords []string        // 屏蔽关键词

	// 口味信号（可选）
	TasteProfile   string
	TasteEmbedding []float32
}

// IsFollowing 返回作者是否在关注集合中。
func (q *Query) IsFollowing(wallet string) bool { return q.Following[wallet] }

// HasLiked 返回帖子是否被点过赞。
func (q *Query) HasLiked(postID string) bool { return q.LikedPostIDs[postID] }

// HasSeen 返回帖子是否已曝光。
func (q *Query) HasSeen(postID string) bool { return q.SeenPostIDs[postID] }

// IsBlocked 返回作者是否被拉黑。
func (q *Query) IsBlocked(wallet string) bool { return q.Blocked[wallet] }

// FollowingList 返回关注集合的切片形式（顺序不保证）。
func (q *Query) FollowingList() []string { return setToSlice(q.Following) }

// LikedList 返回点赞集合的切片形式（顺序不保证）。
func (q *Query) LikedList() []string { return setToSlice(q.LikedPostIDs) }

// SeenList 返回曝光集合的切片形式（顺序不保证）。
func (q *Query) SeenList() []string { return setToSlice(q.SeenPostIDs) }

// FirstPage 返回本次请求是否为无游标的首页请求。
func (q *Query) FirstPage() bool { return q.Cursor == 0 }

// QueryUpdate 是单个 QueryHydrator 产出的部分更新。
// 多个 hydrator 并发执行，各自的更新按字段做加法合并：
// nil 字段表示“不更新”，任何 hydrator 不得清除他人写入的数据。
type QueryUpdate struct {
	Following      []string
	LikedPostIDs   []string
	SeenPostIDs    []string
	Blocked        []string
	MutedKeywords  []string
	TasteProfile   string
	TasteEmbedding []float32
}

// Apply 把部分更新合并进 Query。只在编排器的串行合并点调用。
func (q *Query) Apply(u *QueryUpdate) {
	if u == nil {
		return
	}
	if u.Following != nil {
		q.Following = mergeSet(q.Following, u.Following)
	}
	if u.LikedPostIDs != nil {
		q.LikedPostIDs = mergeSet(q.LikedPostIDs, u.LikedPostIDs)
	}
	if u.SeenPostIDs != nil {
		q.SeenPostIDs = mergeSet(q.SeenPostIDs, u.SeenPostIDs)
	}
	if u.Blocked != nil {
		q.Blocked = mergeSet(q.Blocked, u.Blocked)
	}
	if u.MutedKeywords != nil {
		q.MutedKeywords = append(q.MutedKeywords, u.MutedKeywords...)
	}
	if u.TasteProfile != "" {
		q.TasteProfile = u.TasteProfile
	}
	if u.TasteEmbedding != nil && q.TasteEmbedding == nil {
		q.TasteEmbedding = u.TasteEmbedding
	}
}

func mergeSet(dst map[string]bool, src []string) map[string]bool {
	if dst == nil {
		dst = make(map[string]bool, len(src))
	}
	for _, s := range src {
		dst[s] = true
	}
	return dst
}

func setToSlice(set map[string]bool) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	return out
}

// UserContext 是用户上下文存储返回的聚合记录。
type UserContext struct {
	Following      []string
	LikedPostIDs   []string
	SeenPostIDs    []string
	Blocked        []string
	MutedKeywords  []string
	TasteEmbedding []float32
}
