package imgutil

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"golang.org/x/image/draw"
)

// Block はワイヤーフレーム上の角丸矩形です。Color と Radius は空なら既定値を使います。
type Block struct {
	X      int    `yaml:"x"`
	Y      int    `yaml:"y"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Color  string `yaml:"color"`
	Radius *int   `yaml:"radius"`
}

// WireframeSpec はテンプレートのレイアウト参照画像の描画仕様です。
type WireframeSpec struct {
	Width         int
	Height        int
	Accent        string
	Secondary     string
	DefaultFill   string
	DefaultRadius int
	Blocks        []Block
}

// Wireframe はテンプレートのレイアウトを示す参照用 PNG を描画します。
// 背景はアクセント色からセカンダリ色への対角グラデーションです。
func Wireframe(spec WireframeSpec) ([]byte, error) {
	if spec.Width <= 0 || spec.Height <= 0 {
		return nil, fmt.Errorf("ワイヤーフレームのサイズが不正です: %dx%d", spec.Width, spec.Height)
	}
	accent, err := ParseColor(spec.Accent)
	if err != nil {
		return nil, err
	}
	secondary, err := ParseColor(spec.Secondary)
	if err != nil {
		return nil, err
	}

	img := image.NewNRGBA(image.Rect(0, 0, spec.Width, spec.Height))
	for y := 0; y < spec.Height; y++ {
		for x := 0; x < spec.Width; x++ {
			c := gradientAt(accent, secondary, x, y, spec.Width, spec.Height)
			c.A = 0xff
			img.SetNRGBA(x, y, c)
		}
	}

	// 外枠
	frame := image.Rect(22, 22, spec.Width-22, spec.Height-22)
	fillRounded(img, frame, 32, color.NRGBA{R: 15, G: 23, B: 42, A: 15})

	for i, b := range spec.Blocks {
		fill := spec.DefaultFill
		if b.Color != "" {
			fill = b.Color
		}
		c, err := ParseColor(fill)
		if err != nil {
			return nil, fmt.Errorf("ブロック %d: %w", i, err)
		}
		radius := spec.DefaultRadius
		if b.Radius != nil {
			radius = *b.Radius
		}
		fillRounded(img, image.Rect(b.X, b.Y, b.X+b.Width, b.Y+b.Height), radius, c)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("ワイヤーフレームのエンコードに失敗しました: %w", err)
	}
	return buf.Bytes(), nil
}

func fillRounded(dst draw.Image, r image.Rectangle, radius int, c color.NRGBA) {
	r = r.Intersect(dst.Bounds())
	if r.Empty() {
		return
	}
	draw.DrawMask(dst, r, image.NewUniform(c), image.Point{}, &roundedMask{rect: r, radius: radius}, r.Min, draw.Over)
}

// roundedMask は角丸矩形の内側だけを不透明にするマスクです。
type roundedMask struct {
	rect   image.Rectangle
	radius int
}

func (m *roundedMask) ColorModel() color.Model { return color.AlphaModel }

func (m *roundedMask) Bounds() image.Rectangle { return m.rect }

func (m *roundedMask) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}).In(m.rect) {
		return color.Alpha{}
	}
	r := min(m.radius, m.rect.Dx()/2, m.rect.Dy()/2)
	if r <= 0 {
		return color.Alpha{A: 0xff}
	}
	cx, cy := x, y
	switch {
	case x < m.rect.Min.X+r:
		cx = m.rect.Min.X + r
	case x >= m.rect.Max.X-r:
		cx = m.rect.Max.X - r - 1
	}
	switch {
	case y < m.rect.Min.Y+r:
		cy = m.rect.Min.Y + r
	case y >= m.rect.Max.Y-r:
		cy = m.rect.Max.Y - r - 1
	}
	dx, dy := x-cx, y-cy
	if dx*dx+dy*dy > r*r {
		return color.Alpha{}
	}
	return color.Alpha{A: 0xff}
}
