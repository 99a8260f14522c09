package imgutil

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"math"

	"golang.org/x/image/draw"
)

const (
	// DefaultStackWidth は縦結合時の最小幅です。
	DefaultStackWidth = 1080
	// StackBackground は縦結合画像の背景色です。
	StackBackground = "#f8fafc"
)

// ErrNoImages は結合対象の画像が1枚も無いことを示します。
var ErrNoImages = errors.New("no images to compose")

// Composite は縦結合の結果です。
type Composite struct {
	PNG     []byte
	Width   int
	Height  int
	DataURI string
}

// StackVertical は画像を上から順に縦に並べた1枚の PNG を作成します。
// 出力幅は最も広い入力幅と minWidth の大きい方で、各画像は縦横比を保って拡縮されます。
func StackVertical(images [][]byte, minWidth int) (*Composite, error) {
	if len(images) == 0 {
		return nil, ErrNoImages
	}
	if minWidth <= 0 {
		minWidth = DefaultStackWidth
	}

	decoded := make([]image.Image, len(images))
	targetWidth := minWidth
	for i, data := range images {
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%d 枚目の画像をデコードできません: %w", i, err)
		}
		b := img.Bounds()
		if b.Dx() == 0 || b.Dy() == 0 {
			return nil, fmt.Errorf("%d 枚目の画像サイズが不正です", i)
		}
		decoded[i] = img
		targetWidth = max(targetWidth, b.Dx())
	}

	heights := make([]int, len(decoded))
	total := 0
	for i, img := range decoded {
		heights[i] = ScaledHeight(img.Bounds().Dx(), img.Bounds().Dy(), targetWidth)
		total += heights[i]
	}

	canvas := image.NewNRGBA(image.Rect(0, 0, targetWidth, total))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(mustColor(StackBackground)), image.Point{}, draw.Src)

	offset := 0
	for i, img := range decoded {
		dst := image.Rect(0, offset, targetWidth, offset+heights[i])
		draw.CatmullRom.Scale(canvas, dst, img, img.Bounds(), draw.Over, nil)
		offset += heights[i]
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, fmt.Errorf("PNG エンコードに失敗しました: %w", err)
	}
	return &Composite{
		PNG:     buf.Bytes(),
		Width:   targetWidth,
		Height:  total,
		DataURI: EncodeDataURI(buf.Bytes(), "image/png"),
	}, nil
}

// StackDataURIs は data URI の列を縦結合します。
func StackDataURIs(uris []string, minWidth int) (*Composite, error) {
	images := make([][]byte, 0, len(uris))
	for i, uri := range uris {
		data, _, err := DecodeDataURI(uri)
		if err != nil {
			return nil, fmt.Errorf("%d 枚目: %w", i, err)
		}
		images = append(images, data)
	}
	return StackVertical(images, minWidth)
}

// ScaledHeight は幅 w・高さ h の画像を幅 targetWidth に拡縮したときの高さを返します。
func ScaledHeight(w, h, targetWidth int) int {
	return int(math.Round(float64(h) * float64(targetWidth) / float64(w)))
}
