package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeedUtils(t *testing.T) {
	t.Run("dereferenceSeed: nil の場合は 0 を返すのだ", func(t *testing.T) {
		if got := DereferenceSeed(nil); got != 0 {
			t.Errorf("expected 0, got %v", got)
		}
	})

	t.Run("dereferenceSeed: 値がある場合はその値を返すのだ", func(t *testing.T) {
		var val int64 = 999
		if got := DereferenceSeed(&val); got != 999 {
			t.Errorf("expected 999, got %v", got)
		}
	})

	t.Run("SeedToPtrInt32: nil は nil のままなのだ", func(t *testing.T) {
		assert.Nil(t, SeedToPtrInt32(nil))
		v := int64(1234)
		assert.Equal(t, int32(1234), *SeedToPtrInt32(&v))
	})
}

func TestToSlug(t *testing.T) {
	tests := []struct {
		in, fallback, want string
	}{
		{"Hero Section", "x", "hero-section"},
		{"  --Problem__01!! ", "x", "problem-01"},
		{"日本語だけ", "section-3", "section-3"},
		{"", "fallback-1", "fallback-1"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ToSlug(tt.in, tt.fallback), tt.in)
	}
}

func TestTextHelpers(t *testing.T) {
	assert.Equal(t, "あいう", TruncateRunes("あいうえお", 3))
	assert.Equal(t, "ab", TruncateRunes("ab", 5))
	assert.Equal(t, []string{"a", "b", "c"}, SplitAny("a、b。\nc", "、。\n"))
	assert.Equal(t, []string{"one", "two"}, NonEmptyLines("one\n\n  two  \n"))
	assert.Equal(t, "b", FirstNonEmpty("", "  ", "b", "c"))
	assert.Equal(t, 3, Clamp(1, 3, 10))
	assert.Equal(t, 10, Clamp(12, 3, 10))
	assert.Equal(t, []int{1, 2}, Limit([]int{1, 2, 3}, 2))
	assert.True(t, HasLetterOrDigit("!a"))
	assert.False(t, HasLetterOrDigit("!!"))
}
