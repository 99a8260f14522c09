package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Kind は生成対象のドメイン（サムネイル、LP、スライド、漫画、ダイジェスト）です。
type Kind string

const (
	KindThumbnail Kind = "thumbnail"
	KindLP        Kind = "lp"
	KindSlides    Kind = "slides"
	KindManga     Kind = "manga"
	KindDigest    Kind = "digest"
)

// ErrUnknownKind は未知のドメイン名が指定されたことを示します。
var ErrUnknownKind = errors.New("unknown domain")

// Kinds は定義済みのすべてのドメインを返します。
func Kinds() []Kind {
	return []Kind{KindThumbnail, KindLP, KindSlides, KindManga, KindDigest}
}

// ParseKind は文字列を Kind に変換します。大文字小文字と前後の空白は無視します。
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds() {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Chained は直前のアイテムの画像を次のアイテムの参照にするかどうかを返します。
func (k Kind) Chained() bool {
	switch k {
	case KindLP, KindSlides, KindManga:
		return true
	default:
		return false
	}
}
