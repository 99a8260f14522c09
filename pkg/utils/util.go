package utils

import (
	"strings"
	"unicode"
)

// DereferenceSeed は、int64のポインタを安全にデリファレンスします。
// ポインタがnilの場合は0を返します。
func DereferenceSeed(seed *int64) int64 {
	if seed == nil {
		return 0
	}
	return *seed
}

// SeedToPtrInt32 は *int64 のシードを Gemini SDK 用の *int32 に変換します。
// int32 の範囲を超える値は上位ビットが切り捨てられます。
func SeedToPtrInt32(seed *int64) *int32 {
	if seed == nil {
		return nil
	}
	val := int32(*seed)
	return &val
}

// ToSlug は文字列を小文字の英数字とハイフンだけからなるIDに変換します。
// 変換結果が空になる場合は fallback を返します。
func ToSlug(s, fallback string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	slug := strings.TrimRight(b.String(), "-")
	if slug == "" {
		return fallback
	}
	return slug
}

// TruncateRunes は文字列を最大 n 文字（rune単位）に切り詰めます。
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// SplitAny は seps に含まれるいずれかの文字で分割し、空白を除いた空でない要素を返します。
func SplitAny(s, seps string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return strings.ContainsRune(seps, r)
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// NonEmptyLines は空行を除いた各行を前後の空白を取り除いて返します。
func NonEmptyLines(s string) []string {
	return SplitAny(s, "\n\r")
}

// FirstNonEmpty は最初の空でない（空白のみでない）文字列を返します。
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// Clamp は v を [lo, hi] の範囲に収めます。
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Limit はスライスの先頭 n 件を返します。
func Limit[T any](s []T, n int) []T {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// HasLetterOrDigit は文字や数字を1つ以上含むかどうかを返します。
func HasLetterOrDigit(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
