package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// palette is one set of terminal colors
type palette struct {
	success, failure, primary, info, muted, warning, accent, text lipgloss.TerminalColor
}

// ANSI indexes keep the output readable on any terminal scheme; the light
// palette swaps the bright variants for darker ones
var palettes = map[string]palette{
	"auto": {
		success: lipgloss.AdaptiveColor{Light: "2", Dark: "10"},
		failure: lipgloss.AdaptiveColor{Light: "1", Dark: "9"},
		primary: lipgloss.AdaptiveColor{Light: "5", Dark: "13"},
		info:    lipgloss.AdaptiveColor{Light: "6", Dark: "14"},
		muted:   lipgloss.AdaptiveColor{Light: "8", Dark: "8"},
		warning: lipgloss.AdaptiveColor{Light: "3", Dark: "11"},
		accent:  lipgloss.AdaptiveColor{Light: "4", Dark: "12"},
		text:    lipgloss.AdaptiveColor{Light: "0", Dark: "15"},
	},
	"dark": {
		success: lipgloss.Color("10"),
		failure: lipgloss.Color("9"),
		primary: lipgloss.Color("13"),
		info:    lipgloss.Color("14"),
		muted:   lipgloss.Color("8"),
		warning: lipgloss.Color("11"),
		accent:  lipgloss.Color("12"),
		text:    lipgloss.Color("15"),
	},
	"light": {
		success: lipgloss.Color("2"),
		failure: lipgloss.Color("1"),
		primary: lipgloss.Color("5"),
		info:    lipgloss.Color("6"),
		muted:   lipgloss.Color("8"),
		warning: lipgloss.Color("3"),
		accent:  lipgloss.Color("4"),
		text:    lipgloss.Color("0"),
	},
}

var (
	// Colors of the active theme
	ColorPrimary lipgloss.TerminalColor
	ColorMuted   lipgloss.TerminalColor
	ColorDefault lipgloss.TerminalColor

	StyleSuccess lipgloss.Style
	StyleError   lipgloss.Style
	StylePrimary lipgloss.Style
	StyleInfo    lipgloss.Style
	StyleMuted   lipgloss.Style
	StyleWarning lipgloss.Style
	StyleAccent  lipgloss.Style

	StyleTitle       lipgloss.Style
	StyleHeader      lipgloss.Style
	StyleTableHeader lipgloss.Style
	StyleTableRow    lipgloss.Style
	StyleTableRowAlt lipgloss.Style
	StyleTableBorder lipgloss.Style

	IconSuccess = "✔"
	IconError   = "✘"
	IconRocket  = "🚀"
	IconInfo    = "ℹ"
	IconWarning = "⚠"
	IconPhoto   = "🖼"
	IconVideo   = "🎞"
	IconFolder  = "📁"
	IconBackup  = "💾"
)

func init() {
	SetTheme("auto")
}

// SetTheme switches the active palette ("auto", "dark" or "light").
// Unknown names fall back to auto.
func SetTheme(theme string) {
	p, ok := palettes[theme]
	if !ok {
		p = palettes["auto"]
	}

	ColorPrimary = p.primary
	ColorMuted = p.muted
	ColorDefault = p.text

	fg := func(c lipgloss.TerminalColor) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(c)
	}

	StyleSuccess = fg(p.success).Bold(true)
	StyleError = fg(p.failure).Bold(true)
	StylePrimary = fg(p.primary).Bold(true)
	StyleInfo = fg(p.info)
	StyleMuted = fg(p.muted)
	StyleWarning = fg(p.warning).Bold(true)
	StyleAccent = fg(p.accent)

	StyleTitle = fg(p.primary).Bold(true).Underline(true)
	StyleHeader = fg(p.primary).Bold(true)
	StyleTableHeader = fg(p.primary).Bold(true)
	StyleTableRow = fg(p.text)
	StyleTableRowAlt = fg(p.text).Faint(true)
	StyleTableBorder = fg(p.muted)
}

func status(style lipgloss.Style, icon, msg string) string {
	return style.Render(icon + " " + msg)
}

// FormatSuccess returns a success message with icon
func FormatSuccess(msg string) string { return status(StyleSuccess, IconSuccess, msg) }

// FormatError returns an error message with icon
func FormatError(msg string) string { return status(StyleError, IconError, msg) }

// FormatInfo returns an info message with icon
func FormatInfo(msg string) string { return status(StyleInfo, IconInfo, msg) }

// FormatWarning returns a warning message with icon
func FormatWarning(msg string) string { return status(StyleWarning, IconWarning, msg) }

// FormatRocket announces a long-running action
func FormatRocket(msg string) string { return status(StylePrimary, IconRocket, msg) }

// FormatChange returns a change-stream line with a colored marker
func FormatChange(marker string, style lipgloss.Style, msg string) string {
	return style.Render(marker) + " " + msg
}

func FormatTitle(title string) string { return StyleTitle.Render(title) }

func FormatMuted(text string) string { return StyleMuted.Render(text) }
