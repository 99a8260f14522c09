package catalog

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/shouni/gemini-content-studio/pkg/domain"
	"github.com/shouni/gemini-content-studio/pkg/imgutil"

	"gopkg.in/yaml.v3"
)

//go:embed templates.yaml
var templatesYAML []byte

// Template はサムネイル・スライド・漫画で共通のテンプレート定義です。
type Template struct {
	ID          string     `yaml:"id" json:"id"`
	Name        string     `yaml:"name" json:"name"`
	Description string     `yaml:"description" json:"description,omitempty"`
	Structure   string     `yaml:"structure" json:"structure"`
	UseCase     string     `yaml:"use_case" json:"useCase"`
	PromptFocus string     `yaml:"prompt_focus" json:"promptFocus,omitempty"`
	Wireframe   *Wireframe `yaml:"wireframe" json:"-"`
}

// Wireframe はテンプレートのレイアウト参照画像の元データです。
type Wireframe struct {
	Accent    string          `yaml:"accent"`
	Secondary string          `yaml:"secondary"`
	Blocks    []imgutil.Block `yaml:"blocks"`
}

type canvas struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Radius int    `yaml:"radius"`
	Fill   string `yaml:"fill"`
}

type group struct {
	Canvas    canvas     `yaml:"canvas"`
	Templates []Template `yaml:"templates"`
}

type document struct {
	Thumbnails []Template `yaml:"thumbnails"`
	Slides     group      `yaml:"slides"`
	Manga      group      `yaml:"manga"`
}

// Catalog は埋め込みのテンプレート一覧と、その参照画像のキャッシュを保持します。
type Catalog struct {
	doc document

	mu      sync.Mutex
	layouts map[string]string
}

// Load は埋め込みの templates.yaml を読み込みます。
func Load() (*Catalog, error) {
	return Parse(templatesYAML)
}

// Parse は YAML からカタログを構築します。
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("テンプレート定義の解析に失敗しました: %w", err)
	}
	if len(doc.Slides.Templates) == 0 || len(doc.Manga.Templates) == 0 {
		return nil, fmt.Errorf("スライドまたは漫画のテンプレートが定義されていません")
	}
	return &Catalog{doc: doc, layouts: make(map[string]string)}, nil
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default は埋め込みカタログを返します。埋め込みデータが壊れている場合は panic します。
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Load()
		if err != nil {
			panic(err)
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// Templates は指定ドメインのテンプレートを定義順で返します。
func (c *Catalog) Templates(kind domain.Kind) []Template {
	switch kind {
	case domain.KindThumbnail:
		return c.doc.Thumbnails
	case domain.KindSlides:
		return c.doc.Slides.Templates
	case domain.KindManga:
		return c.doc.Manga.Templates
	default:
		return nil
	}
}

// IDs は指定ドメインのテンプレートIDを定義順で返します。
func (c *Catalog) IDs(kind domain.Kind) []string {
	ts := c.Templates(kind)
	ids := make([]string, len(ts))
	for i, t := range ts {
		ids[i] = t.ID
	}
	return ids
}

// Lookup はテンプレートIDからテンプレートを探します。
func (c *Catalog) Lookup(kind domain.Kind, id string) (Template, bool) {
	for _, t := range c.Templates(kind) {
		if t.ID == id {
			return t, true
		}
	}
	return Template{}, false
}

// Thumbnail はサムネイルテンプレートを返します。
func (c *Catalog) Thumbnail(id string) (Template, bool) { return c.Lookup(domain.KindThumbnail, id) }

// Slide はスライドテンプレートを返します。
func (c *Catalog) Slide(id string) (Template, bool) { return c.Lookup(domain.KindSlides, id) }

// Manga は漫画テンプレートを返します。
func (c *Catalog) Manga(id string) (Template, bool) { return c.Lookup(domain.KindManga, id) }

// LayoutReference はテンプレートのワイヤーフレームを PNG の data URI で返します。
// ワイヤーフレームを持たないテンプレートの場合は空文字を返します。
func (c *Catalog) LayoutReference(kind domain.Kind, id string) (string, error) {
	key := string(kind) + ":" + id

	c.mu.Lock()
	defer c.mu.Unlock()
	if uri, ok := c.layouts[key]; ok {
		return uri, nil
	}

	t, ok := c.Lookup(kind, id)
	if !ok {
		return "", fmt.Errorf("テンプレートが見つかりません: %s/%s", kind, id)
	}
	if t.Wireframe == nil {
		return "", nil
	}

	var cv canvas
	switch kind {
	case domain.KindSlides:
		cv = c.doc.Slides.Canvas
	case domain.KindManga:
		cv = c.doc.Manga.Canvas
	}
	data, err := imgutil.Wireframe(imgutil.WireframeSpec{
		Width:         cv.Width,
		Height:        cv.Height,
		Accent:        t.Wireframe.Accent,
		Secondary:     t.Wireframe.Secondary,
		DefaultFill:   cv.Fill,
		DefaultRadius: cv.Radius,
		Blocks:        t.Wireframe.Blocks,
	})
	if err != nil {
		return "", fmt.Errorf("レイアウト参照画像の生成に失敗しました (%s): %w", key, err)
	}
	uri := imgutil.EncodeDataURI(data, "image/png")
	c.layouts[key] = uri
	return uri, nil
}
