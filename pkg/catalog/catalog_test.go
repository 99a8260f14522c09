package catalog

import (
	"strings"
	"testing"

	"github.com/shouni/gemini-content-studio/pkg/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	assert.Len(t, c.Templates(domain.KindThumbnail), 21)
	assert.Equal(t, []string{"intro", "single-visual", "quad-grid", "text-emphasis", "timeline"}, c.IDs(domain.KindSlides))
	assert.Equal(t, []string{"hero-single", "duo-contrast", "quad-progress", "dialogue-focus", "background-mood"}, c.IDs(domain.KindManga))
	assert.Empty(t, c.Templates(domain.KindLP))

	thumb, ok := c.Thumbnail("4")
	require.True(t, ok)
	assert.Contains(t, thumb.PromptFocus, "VS text")

	slide, ok := c.Slide("timeline")
	require.True(t, ok)
	require.NotNil(t, slide.Wireframe)
	assert.Len(t, slide.Wireframe.Blocks, 5)

	_, ok = c.Manga("missing")
	assert.False(t, ok)
}

func TestLayoutReference(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	t.Run("ワイヤーフレームを PNG data URI で返してキャッシュするのだ", func(t *testing.T) {
		uri, err := c.LayoutReference(domain.KindManga, "quad-progress")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))

		again, err := c.LayoutReference(domain.KindManga, "quad-progress")
		require.NoError(t, err)
		assert.Equal(t, uri, again)
	})

	t.Run("サムネイルはワイヤーフレームを持たない", func(t *testing.T) {
		uri, err := c.LayoutReference(domain.KindThumbnail, "1")
		require.NoError(t, err)
		assert.Empty(t, uri)
	})

	t.Run("未知のテンプレートはエラー", func(t *testing.T) {
		_, err := c.LayoutReference(domain.KindSlides, "nope")
		assert.Error(t, err)
	})
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte("slides: ["))
	assert.Error(t, err)

	_, err = Parse([]byte("thumbnails: []"))
	assert.Error(t, err)
}
