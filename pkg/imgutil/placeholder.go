package imgutil

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strconv"
	"strings"
)

// PlaceholderPalette はデモ描画に使う色の候補です。
var PlaceholderPalette = []string{"#0EA5E9", "#3181FC", "#111827", "#7C3AED", "#F97316"}

// PlaceholderSize はアスペクト比からプレースホルダー画像のサイズを決めます。
// 長辺は 640px です。解析できない比率は正方形になります。
func PlaceholderSize(aspectRatio string) (int, int) {
	const long = 640
	ws, hs, ok := strings.Cut(aspectRatio, ":")
	if !ok {
		return 512, 512
	}
	w, err1 := strconv.Atoi(strings.TrimSpace(ws))
	h, err2 := strconv.Atoi(strings.TrimSpace(hs))
	if err1 != nil || err2 != nil || w <= 0 || h <= 0 {
		return 512, 512
	}
	if w >= h {
		return long, long * h / w
	}
	return long * w / h, long
}

// Placeholder はシード文字列から決定的に作られるグラデーション PNG を返します。
// 同じシードとアスペクト比からは常に同じバイト列が得られます。
func Placeholder(seed, aspectRatio string) ([]byte, error) {
	sum := sha256.Sum256([]byte(seed))
	from := mustColor(PlaceholderPalette[int(sum[0])%len(PlaceholderPalette)])
	to := mustColor(PlaceholderPalette[int(sum[1])%len(PlaceholderPalette)])
	if from == to {
		to = mustColor(PlaceholderPalette[(int(sum[1])+1)%len(PlaceholderPalette)])
	}

	w, h := PlaceholderSize(aspectRatio)
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, gradientAt(from, to, x, y, w, h))
		}
	}

	// ハッシュ由来の帯を入れて、同系色でも見分けられるようにする
	bandY := int(sum[2]) * h / 256
	bandH := max(h/12, 1)
	band := color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0x40}
	for y := bandY; y < min(bandY+bandH, h); y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, over(img.NRGBAAt(x, y), band))
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("プレースホルダーのエンコードに失敗しました: %w", err)
	}
	return buf.Bytes(), nil
}

// over は不透明な dst に src をアルファ合成します。
func over(dst, src color.NRGBA) color.NRGBA {
	a := float64(src.A) / 255
	return color.NRGBA{
		R: uint8(float64(src.R)*a + float64(dst.R)*(1-a) + 0.5),
		G: uint8(float64(src.G)*a + float64(dst.G)*(1-a) + 0.5),
		B: uint8(float64(src.B)*a + float64(dst.B)*(1-a) + 0.5),
		A: 0xff,
	}
}
