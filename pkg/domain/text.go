package domain

// TextRequest はテキスト生成（プラン作成や要約）の要求です。
type TextRequest struct {
	System          string
	Prompt          string
	Temperature     *float32
	TopP            *float32
	TopK            *float32
	MaxOutputTokens int32
	// JSON は応答を JSON として返すようモデルに要求します。
	JSON bool
}

// Evaluation はサムネイル画像の採点結果です。
type Evaluation struct {
	Score  float64 `json:"score"`
	Advice string  `json:"advice"`
}
