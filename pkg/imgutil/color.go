package imgutil

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// ParseColor は "#RRGGBB"、"#RRGGBBAA"、"rgba(r,g,b,a)" 形式の色を解析します。
func ParseColor(s string) (color.NRGBA, error) {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "#"):
		hex := s[1:]
		if len(hex) != 6 && len(hex) != 8 {
			return color.NRGBA{}, fmt.Errorf("不正なカラーコード: %s", s)
		}
		v, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("不正なカラーコード: %s: %w", s, err)
		}
		if len(hex) == 6 {
			return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
		}
		return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
	case strings.HasPrefix(s, "rgba(") && strings.HasSuffix(s, ")"):
		parts := strings.Split(strings.TrimSuffix(strings.TrimPrefix(s, "rgba("), ")"), ",")
		if len(parts) != 4 {
			return color.NRGBA{}, fmt.Errorf("不正な rgba 指定: %s", s)
		}
		var rgb [3]uint8
		for i := 0; i < 3; i++ {
			n, err := strconv.Atoi(strings.TrimSpace(parts[i]))
			if err != nil || n < 0 || n > 255 {
				return color.NRGBA{}, fmt.Errorf("不正な rgba 指定: %s", s)
			}
			rgb[i] = uint8(n)
		}
		a, err := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
		if err != nil || a < 0 || a > 1 {
			return color.NRGBA{}, fmt.Errorf("不正な rgba 指定: %s", s)
		}
		return color.NRGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: uint8(a*255 + 0.5)}, nil
	}
	return color.NRGBA{}, fmt.Errorf("未対応の色形式: %s", s)
}

func mustColor(s string) color.NRGBA {
	c, err := ParseColor(s)
	if err != nil {
		panic(err)
	}
	return c
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*t + 0.5)
}

// gradientAt は左上から右下への対角グラデーションの色を返します。
func gradientAt(from, to color.NRGBA, x, y, w, h int) color.NRGBA {
	t := 0.0
	if w+h > 2 {
		t = float64(x+y) / float64(w+h-2)
	}
	return color.NRGBA{
		R: lerp(from.R, to.R, t),
		G: lerp(from.G, to.G, t),
		B: lerp(from.B, to.B, t),
		A: lerp(from.A, to.A, t),
	}
}
