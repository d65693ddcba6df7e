package ui

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// FormatBytes renders a byte count as a human-readable size (e.g. "4.2 MB")
func FormatBytes(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.Bytes(uint64(n))
}

// FormatCount renders an integer with thousands separators
func FormatCount(n int) string {
	return humanize.Comma(int64(n))
}

// FormatAgo renders a timestamp relative to now ("3 hours ago")
func FormatAgo(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.Time(t)
}

// TruncatePath shortens a path from the left so it fits in max runes,
// keeping the file name intact when possible
func TruncatePath(path string, max int) string {
	runes := []rune(path)
	if max <= 3 || len(runes) <= max {
		return path
	}
	base := filepath.Base(path)
	if len([]rune(base))+4 >= max {
		return "..." + string(runes[len(runes)-max+3:])
	}
	keep := max - 3
	return "..." + strings.TrimLeft(string(runes[len(runes)-keep:]), string(filepath.Separator))
}
