package main

import (
	"fmt"
	"io"

	"github.com/shouni/gemini-content-studio/pkg/domain"
	"github.com/shouni/gemini-content-studio/pkg/generator"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorPrimary = lipgloss.Color("86")  // Cyan
	colorSuccess = lipgloss.Color("42")  // Green
	colorWarn    = lipgloss.Color("214") // Orange
	colorError   = lipgloss.Color("196") // Red
	colorMuted   = lipgloss.Color("240") // Gray
)

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	successStyle = lipgloss.NewStyle().
			Foreground(colorSuccess).
			Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(colorWarn)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true)
)

// statusLine はプランの状態を色付きで返します。
func statusLine(status string) string {
	if status == "ok" {
		return successStyle.Render(status)
	}
	return warnStyle.Render(status)
}

// progressPrinter は描画イベントを1行ずつ表示します。
func progressPrinter(w io.Writer) func(generator.Event) {
	return func(ev generator.Event) {
		if line := formatEvent(ev); line != "" {
			fmt.Fprintln(w, line)
		}
	}
}

func formatEvent(ev generator.Event) string {
	step := labelStyle.Render(fmt.Sprintf("[%d/%d]", ev.Index+1, ev.Total))
	switch ev.Type {
	case generator.EventItemStarted:
		return fmt.Sprintf("%s %s 描画中...", step, ev.ItemID)
	case generator.EventItemDone:
		return fmt.Sprintf("%s %s %s", step, ev.ItemID, successStyle.Render("done"))
	case generator.EventItemFailed:
		return fmt.Sprintf("%s %s %s %s", step, ev.ItemID, errorStyle.Render("error"), ev.Error)
	case generator.EventPatternDone:
		status := successStyle.Render(string(ev.Status))
		if ev.Status != domain.StatusDone {
			status = errorStyle.Render(string(ev.Status))
		}
		return fmt.Sprintf("%s %s", headerStyle.Render("pattern "+ev.PatternID), status)
	}
	return ""
}
