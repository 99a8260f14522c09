package lifelog

import (
	"strings"
	"time"
)

// Mode は振り返りの期間です。
type Mode string

const (
	ModeDaily  Mode = "daily"
	ModeWeekly Mode = "weekly"
)

// ParseMode は文字列を Mode に変換します。未知の値は daily です。
func ParseMode(s string) Mode {
	if Mode(strings.ToLower(strings.TrimSpace(s))) == ModeWeekly {
		return ModeWeekly
	}
	return ModeDaily
}

// JST は日本標準時です。tzdata の有無に左右されないよう固定オフセットで持ちます。
var JST = time.FixedZone("JST", 9*60*60)

const dateLayout = "2006-01-02"

// Range はログ取得の対象期間です。Start と End は API にそのまま渡す JST の日時です。
type Range struct {
	Mode  Mode   `json:"mode"`
	Start string `json:"start"`
	End   string `json:"end"`
	Label string `json:"label"`
	Days  int    `json:"days"`
}

// BuildRange は対象日（YYYY-MM-DD、JST）から期間を作ります。
// date が空または解釈できない場合は now の前日です。weekly は対象日で終わる7日間です。
func BuildRange(mode Mode, date string, now time.Time) Range {
	target, err := time.ParseInLocation(dateLayout, strings.TrimSpace(date), JST)
	if err != nil {
		target = now.In(JST).AddDate(0, 0, -1)
	}

	days := 1
	if mode == ModeWeekly {
		days = 7
	} else {
		mode = ModeDaily
	}
	start := target.AddDate(0, 0, -(days - 1))

	startLabel := start.Format(dateLayout)
	endLabel := target.Format(dateLayout)
	label := endLabel
	if mode == ModeWeekly {
		label = startLabel + "〜" + endLabel
	}
	return Range{
		Mode:  mode,
		Start: startLabel + " 00:00:00",
		End:   endLabel + " 23:59:59",
		Label: label,
		Days:  days,
	}
}
