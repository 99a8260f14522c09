package domain

// Characters は漫画プランの登場人物と画風を保持します。
type Characters struct {
	Protagonist string `json:"protagonist"`
	Style       string `json:"style"`
}

// Item はプラン内の1アイテム（LPセクション、スライド、漫画パネル、サムネイル案）です。
// ID, TemplateID, Title, Prompt は正規化後に必ず埋まっています。
type Item struct {
	ID             string   `json:"id"`
	TemplateID     string   `json:"templateId"`
	Title          string   `json:"title"`
	Body           []string `json:"body,omitempty"`
	Tone           string   `json:"tone,omitempty"`
	CTA            string   `json:"cta,omitempty"`
	Prompt         string   `json:"prompt"`
	Goal           string   `json:"goal,omitempty"`
	VisualStyle    string   `json:"visualStyle,omitempty"`
	Copy           string   `json:"copy,omitempty"`
	Notes          string   `json:"notes,omitempty"`
	Emphasis       string   `json:"emphasis,omitempty"`
	CarryOver      string   `json:"carryOver,omitempty"`
	Keywords       []string `json:"keywords,omitempty"`
	NarrativePhase string   `json:"narrativePhase,omitempty"`
	Dialogue       string   `json:"dialogue,omitempty"`
	Narration      string   `json:"narration,omitempty"`
}

// Plan は1回の生成で描画されるアイテムの順序付きリストです。
// 作成後は変更せず、編集は新しい ID を持つ Plan として作り直します。
type Plan struct {
	ID         string      `json:"id"`
	Kind       Kind        `json:"kind"`
	Title      string      `json:"title"`
	Theme      string      `json:"theme,omitempty"`
	Tone       string      `json:"tone,omitempty"`
	Palette    []string    `json:"palette,omitempty"`
	Characters *Characters `json:"characters,omitempty"`
	Brief      string      `json:"brief,omitempty"`
	Items      []Item      `json:"items"`
}

// ItemIndex は指定IDのアイテム位置を返します。見つからない場合は -1 です。
func (p *Plan) ItemIndex(itemID string) int {
	for i, it := range p.Items {
		if it.ID == itemID {
			return i
		}
	}
	return -1
}

// References はユーザーがアップロードした固定の参照画像です。
// 値は data URI または http(s) URL です。
type References struct {
	Main   string `json:"main,omitempty"`
	Color  string `json:"color,omitempty"`
	Face   string `json:"face,omitempty"`
	Layout string `json:"layout,omitempty"`
}

// URLs は空でない参照画像を Main, Color, Face, Layout の順で返します。
func (r References) URLs() []string {
	var out []string
	for _, u := range []string{r.Main, r.Color, r.Face, r.Layout} {
		if u != "" {
			out = append(out, u)
		}
	}
	return out
}

// Brief はプラン生成への入力です。
type Brief struct {
	Kind        Kind       `json:"kind"`
	Text        string     `json:"text"`
	Count       int        `json:"count,omitempty"`
	TemplateIDs []string   `json:"templateIds,omitempty"`
	Vibe        string     `json:"vibe,omitempty"`
	References  References `json:"references,omitempty"`
}
