package imgutil

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataURI(t *testing.T) {
	t.Run("往復できること", func(t *testing.T) {
		uri := EncodeDataURI([]byte("hello"), "text/plain")
		data, mime, err := DecodeDataURI(uri)
		require.NoError(t, err)
		assert.Equal(t, "hello", string(data))
		assert.Equal(t, "text/plain", mime)
	})

	t.Run("base64 以外は拒否する", func(t *testing.T) {
		_, _, err := DecodeDataURI("data:text/plain,hello")
		assert.Error(t, err)
	})

	t.Run("data URI でなければ ErrNotDataURI", func(t *testing.T) {
		_, _, err := DecodeDataURI("https://example.com")
		assert.ErrorIs(t, err, ErrNotDataURI)
	})
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.NRGBA
	}{
		{"#0EA5E9", color.NRGBA{0x0e, 0xa5, 0xe9, 0xff}},
		{"#11223380", color.NRGBA{0x11, 0x22, 0x33, 0x80}},
		{"rgba(255,255,255,0.5)", color.NRGBA{255, 255, 255, 128}},
	}
	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	for _, bad := range []string{"red", "#12", "rgba(1,2,3)", "rgba(300,0,0,1)"} {
		_, err := ParseColor(bad)
		assert.Error(t, err, bad)
	}
}

func TestPlaceholder(t *testing.T) {
	t.Run("同じシードからは同じ画像になるのだ", func(t *testing.T) {
		a, err := Placeholder("hero section", "9:16")
		require.NoError(t, err)
		b, err := Placeholder("hero section", "9:16")
		require.NoError(t, err)
		assert.Equal(t, a, b)

		cfg, _, err := image.DecodeConfig(bytes.NewReader(a))
		require.NoError(t, err)
		assert.Equal(t, 360, cfg.Width)
		assert.Equal(t, 640, cfg.Height)
	})

	t.Run("シードが違えば別の画像になるのだ", func(t *testing.T) {
		a, _ := Placeholder("slide 1", "16:9")
		b, _ := Placeholder("slide 2", "16:9")
		assert.NotEqual(t, a, b)
	})

	t.Run("比率の解釈", func(t *testing.T) {
		w, h := PlaceholderSize("16:9")
		assert.Equal(t, []int{640, 360}, []int{w, h})
		w, h = PlaceholderSize("3:4")
		assert.Equal(t, []int{480, 640}, []int{w, h})
		w, h = PlaceholderSize("wide")
		assert.Equal(t, []int{512, 512}, []int{w, h})
	})
}

func TestWireframe(t *testing.T) {
	radius := 6
	spec := WireframeSpec{
		Width:         96,
		Height:        54,
		Accent:        "#3181FC",
		Secondary:     "#7C3AED",
		DefaultFill:   "rgba(255,255,255,0.78)",
		DefaultRadius: 4,
		Blocks: []Block{
			{X: 10, Y: 10, Width: 30, Height: 20},
			{X: 50, Y: 10, Width: 30, Height: 20, Color: "#FFFFFF", Radius: &radius},
		},
	}

	data, err := Wireframe(spec)
	require.NoError(t, err)
	img, _, err := image.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 96, img.Bounds().Dx())

	r, g, b, _ := img.At(65, 20).RGBA()
	assert.Equal(t, []uint32{0xffff, 0xffff, 0xffff}, []uint32{r, g, b}, "不透明ブロックの中心は白なのだ")

	_, err = Wireframe(WireframeSpec{Width: 0, Height: 10})
	assert.Error(t, err)

	spec.Blocks = []Block{{X: 1, Y: 1, Width: 5, Height: 5, Color: "bogus"}}
	_, err = Wireframe(spec)
	assert.Error(t, err)
}
