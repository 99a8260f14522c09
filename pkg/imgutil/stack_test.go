package imgutil

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidPNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestStackVertical(t *testing.T) {
	t.Run("高さは各画像を目標幅に拡縮した高さの合計になるのだ", func(t *testing.T) {
		a := solidPNG(t, 540, 960, color.RGBA{255, 0, 0, 255})
		b := solidPNG(t, 300, 100, color.RGBA{0, 0, 255, 255})

		got, err := StackVertical([][]byte{a, b}, 0)
		require.NoError(t, err)

		assert.Equal(t, 1080, got.Width)
		want := ScaledHeight(540, 960, 1080) + ScaledHeight(300, 100, 1080)
		assert.Equal(t, want, got.Height)
		assert.Equal(t, 1920+360, got.Height)

		cfg, format, err := image.DecodeConfig(bytes.NewReader(got.PNG))
		require.NoError(t, err)
		assert.Equal(t, "png", format)
		assert.Equal(t, got.Width, cfg.Width)
		assert.Equal(t, got.Height, cfg.Height)
		assert.Contains(t, got.DataURI, "data:image/png;base64,")
	})

	t.Run("最小幅より広い画像があればその幅になるのだ", func(t *testing.T) {
		wide := solidPNG(t, 1200, 10, color.White)
		small := solidPNG(t, 10, 10, color.Black)

		got, err := StackVertical([][]byte{wide, small}, 1080)
		require.NoError(t, err)
		assert.Equal(t, 1200, got.Width)
		assert.Equal(t, 10+1200, got.Height)
	})

	t.Run("上から順に並ぶのだ", func(t *testing.T) {
		red := solidPNG(t, 1080, 100, color.RGBA{255, 0, 0, 255})
		blue := solidPNG(t, 1080, 100, color.RGBA{0, 0, 255, 255})

		got, err := StackVertical([][]byte{red, blue}, 1080)
		require.NoError(t, err)
		img, err := png.Decode(bytes.NewReader(got.PNG))
		require.NoError(t, err)

		r, _, _, _ := img.At(500, 50).RGBA()
		_, _, b, _ := img.At(500, 150).RGBA()
		assert.Greater(t, r, uint32(0xf000))
		assert.Greater(t, b, uint32(0xf000))
	})

	t.Run("空入力は ErrNoImages", func(t *testing.T) {
		_, err := StackVertical(nil, 0)
		assert.ErrorIs(t, err, ErrNoImages)
	})

	t.Run("デコードできない画像は位置付きのエラー", func(t *testing.T) {
		ok := solidPNG(t, 10, 10, color.White)
		_, err := StackVertical([][]byte{ok, []byte("broken")}, 0)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "1 枚目")
	})
}

func TestStackDataURIs(t *testing.T) {
	uri := EncodeDataURI(solidPNG(t, 20, 20, color.White), "image/png")
	got, err := StackDataURIs([]string{uri, uri}, 100)
	require.NoError(t, err)
	assert.Equal(t, 200, got.Height)

	_, err = StackDataURIs([]string{"https://example.com/a.png"}, 100)
	assert.ErrorIs(t, err, ErrNotDataURI)
}
