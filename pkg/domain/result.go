package domain

import "time"

// ItemStatus はアイテム単位の描画状態です。
type ItemStatus string

const (
	StatusPending    ItemStatus = "pending"
	StatusGenerating ItemStatus = "generating"
	StatusDone       ItemStatus = "done"
	StatusError      ItemStatus = "error"
)

// ItemResult は1アイテムの描画結果です。
// ImageURL が空でないのは Status が StatusDone のときだけです。
type ItemResult struct {
	Item       Item       `json:"item"`
	Status     ItemStatus `json:"status"`
	ImageURL   string     `json:"imageUrl,omitempty"`
	PromptUsed string     `json:"promptUsed,omitempty"`
	Error      string     `json:"error,omitempty"`
	PatternID  string     `json:"patternId,omitempty"`
}

// MarkGenerating は描画開始を記録します。前回の画像とエラーは破棄されます。
func (r *ItemResult) MarkGenerating(prompt string) {
	r.Status = StatusGenerating
	r.PromptUsed = prompt
	r.ImageURL = ""
	r.Error = ""
}

// MarkDone は描画成功を記録します。
func (r *ItemResult) MarkDone(imageURL string) {
	r.Status = StatusDone
	r.ImageURL = imageURL
	r.Error = ""
}

// MarkError は描画失敗を記録します。
func (r *ItemResult) MarkError(msg string) {
	r.Status = StatusError
	r.ImageURL = ""
	r.Error = msg
}

// HasImage は画像を持つ完了済みの結果かどうかを返します。
func (r ItemResult) HasImage() bool {
	return r.Status == StatusDone && r.ImageURL != ""
}

// Pattern はプラン全体を1回描画した結果（バリアント）です。
type Pattern struct {
	ID        string       `json:"id"`
	Label     string       `json:"label"`
	Status    ItemStatus   `json:"status"`
	Items     []ItemResult `json:"items"`
	CreatedAt time.Time    `json:"createdAt"`
	// Demo は認証情報なしでプレースホルダー描画されたパターンであることを示します。
	Demo bool `json:"demo,omitempty"`
}

// NewPattern はプランの各アイテムを pending 状態で持つパターンを作成します。
func NewPattern(id, label string, plan Plan, now time.Time) *Pattern {
	items := make([]ItemResult, len(plan.Items))
	for i, it := range plan.Items {
		items[i] = ItemResult{Item: it, Status: StatusPending, PatternID: id}
	}
	return &Pattern{
		ID:        id,
		Label:     label,
		Status:    StatusPending,
		Items:     items,
		CreatedAt: now,
	}
}

// Result は指定アイテムの結果を返します。
func (p *Pattern) Result(itemID string) (*ItemResult, bool) {
	for i := range p.Items {
		if p.Items[i].Item.ID == itemID {
			return &p.Items[i], true
		}
	}
	return nil, false
}

// AggregateStatus は各アイテムの状態からパターン全体の状態を導出します。
func (p *Pattern) AggregateStatus() ItemStatus {
	allPending := true
	for _, r := range p.Items {
		switch r.Status {
		case StatusGenerating:
			return StatusGenerating
		case StatusError:
			return StatusError
		case StatusPending:
		default:
			allPending = false
		}
	}
	if allPending && len(p.Items) > 0 {
		return StatusPending
	}
	for _, r := range p.Items {
		if r.Status == StatusPending {
			return StatusGenerating
		}
	}
	return StatusDone
}

// Failed は失敗したアイテム数を返します。
func (p *Pattern) Failed() int {
	n := 0
	for _, r := range p.Items {
		if r.Status == StatusError {
			n++
		}
	}
	return n
}

// SelectionMap はアイテムIDから採用パターンIDへの対応表です。
type SelectionMap map[string]string

// Clone は独立したコピーを返します。
func (s SelectionMap) Clone() SelectionMap {
	out := make(SelectionMap, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}
