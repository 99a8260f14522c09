package lifelog

import (
	"fmt"
	"slices"
	"strings"

	"github.com/shouni/gemini-content-studio/pkg/domain"
	"github.com/shouni/gemini-content-studio/pkg/utils"
)

const (
	maxDigestRunes  = 20000
	maxPreviewRunes = 420
	digestSeparator = "\n\n---\n\n"
)

// ErrNoLogsSelected は要約対象のログが1件も残らなかったことを示します。
var ErrNoLogsSelected error = &domain.InputError{Message: "選択されたログがありません。ログを選んで再実行してください。"}

// Entry は一覧表示用に整えたログです。
type Entry struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Time    string `json:"time"`
	Preview string `json:"preview"`
}

func renderBlock(b ContentBlock) string {
	content := strings.TrimSpace(b.Content)
	if content == "" {
		return ""
	}
	switch b.Type {
	case "heading1":
		return "# " + content
	case "heading2":
		return "## " + content
	case "heading3":
		return "### " + content
	case "blockquote":
		if b.SpeakerName != "" {
			return "- " + b.SpeakerName + ": " + content
		}
		return "> " + content
	case "list_item":
		return "- " + content
	default:
		return content
	}
}

func (l Log) time() string {
	return utils.FirstNonEmpty(l.StartedAt, l.CreatedAt, "Unknown time")
}

// Render はログを見出し、時刻、本文の順の Markdown にします。
// 本文は markdown、contents、text の順に最初にあるものを使います。
func (l Log) Render() string {
	parts := []string{
		"### " + utils.FirstNonEmpty(l.Title, "Untitled"),
		"time: " + l.time(),
	}
	switch {
	case l.Markdown != "":
		parts = append(parts, strings.TrimSpace(l.Markdown))
	case len(l.Contents) > 0:
		var blocks []string
		for _, b := range l.Contents {
			if s := renderBlock(b); s != "" {
				blocks = append(blocks, s)
			}
		}
		parts = append(parts, strings.Join(blocks, "\n"))
	case l.Text != "":
		parts = append(parts, strings.TrimSpace(l.Text))
	}
	return strings.Join(slices.DeleteFunc(parts, func(s string) bool { return s == "" }), "\n")
}

// entryID はログの ID、無ければ時刻とタイトルから位置込みの ID を作ります。
func entryID(l Log, idx int) string {
	if l.ID != "" {
		return l.ID
	}
	title := l.Title
	if title == "" {
		title = "t"
	}
	return fmt.Sprintf("%s-%s-%d", utils.FirstNonEmpty(l.StartedAt, l.CreatedAt, "log"), utils.TruncateRunes(title, 24), idx)
}

// Normalize はログを一覧表示用の Entry に変換します。
func Normalize(logs []Log) []Entry {
	entries := make([]Entry, len(logs))
	for i, l := range logs {
		entries[i] = Entry{
			ID:      entryID(l, i),
			Title:   utils.FirstNonEmpty(l.Title, fmt.Sprintf("Log %d", i+1)),
			Time:    l.time(),
			Preview: utils.TruncateRunes(strings.Join(strings.Fields(l.Render()), " "), maxPreviewRunes),
		}
	}
	return entries
}

// Filter は Normalize と同じ ID で選ばれたログだけを返します。selected が空なら全件です。
func Filter(logs []Log, selected []string) []Log {
	if len(selected) == 0 {
		return logs
	}
	out := make([]Log, 0, len(logs))
	for i, l := range logs {
		if slices.Contains(selected, entryID(l, i)) {
			out = append(out, l)
		}
	}
	return out
}

// Digest はモデルに渡すログ全文を作ります。本文は maxDigestRunes 文字で切り詰めます。
func Digest(logs []Log, r Range) string {
	rendered := make([]string, 0, len(logs))
	for _, l := range logs {
		if s := l.Render(); s != "" {
			rendered = append(rendered, s)
		}
	}
	body := utils.TruncateRunes(strings.Join(rendered, digestSeparator), maxDigestRunes)
	return fmt.Sprintf("## Limitless logs (%s JST)\n\n%s", r.Label, body)
}
