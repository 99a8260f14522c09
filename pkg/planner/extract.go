package planner

import (
	"encoding/json"
	"regexp"
	"strings"
)

var fencePattern = regexp.MustCompile("(?i)```(?:json)?")

// ExtractJSONBlock はモデルの応答テキストから最初の有効な JSON ブロック（{...} または [...]）を取り出します。
// コードフェンスは取り除き、文字列リテラル内の括弧は数えません。
// 括弧の対応が取れても JSON として不正な候補は読み飛ばし、次の候補を探します。
func ExtractJSONBlock(text string) (string, bool) {
	cleaned := strings.TrimSpace(fencePattern.ReplaceAllString(text, ""))
	if cleaned == "" {
		return "", false
	}

	for start := 0; start < len(cleaned); start++ {
		c := cleaned[start]
		if c != '{' && c != '[' {
			continue
		}
		end, ok := matchBracket(cleaned, start)
		if !ok {
			continue
		}
		block := cleaned[start : end+1]
		if json.Valid([]byte(block)) {
			return block, true
		}
	}
	return "", false
}

// matchBracket は start の開き括弧に対応する閉じ括弧の位置を返します。
func matchBracket(s string, start int) (int, bool) {
	var stack []byte
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != c {
				return 0, false
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i, true
			}
		}
	}
	return 0, false
}
