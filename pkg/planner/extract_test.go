package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractJSONBlock(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"素のオブジェクト", `{"a":1}`, `{"a":1}`, true},
		{"コードフェンス付き", "```json\n{\"a\":[1,2]}\n```", `{"a":[1,2]}`, true},
		{"前後の説明文", "Here is the plan:\n[{\"id\":1}]\nThanks!", `[{"id":1}]`, true},
		{"文字列内の括弧", `note {"t":"a } b { c","n":{"x":"]"}} end`, `{"t":"a } b { c","n":{"x":"]"}}`, true},
		{"エスケープされた引用符", `{"t":"say \"}\" now"}`, `{"t":"say \"}\" now"}`, true},
		{"JSON でない括弧は読み飛ばす", "[note] result: {\"ok\":true}", `{"ok":true}`, true},
		{"閉じていない", `{"a":1`, "", false},
		{"JSON なし", "no json here", "", false},
		{"空文字", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractJSONBlock(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidate(t *testing.T) {
	assert.Empty(t, Validate("lp", `{"sections":[{"title":"a","prompt":"b"}]}`))
	assert.NotEmpty(t, Validate("lp", `{"theme":"x"}`), "sections が無いのは違反なのだ")
	assert.NotEmpty(t, Validate("slides", `{"not":"array"}`))
	assert.Nil(t, Validate("thumbnail", `{}`), "スキーマが無いドメインは検証しない")
}
