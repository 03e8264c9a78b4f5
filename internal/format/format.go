// Package format renders durations, sizes and progress for terminal output.
package format

import (
	"fmt"
	"strings"
	"time"
)

// Duration formats d as MM:SS, or HH:MM:SS from one hour up.
// It rounds to the nearest second, so a 1.8s clip reads "00:02".
func Duration(d time.Duration) string {
	d = max(d, 0).Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// Size formats a byte count with one decimal in KB or MB.
func Size(bytes int64) string {
	const (
		kb = 1024
		mb = 1024 * kb
	)
	switch {
	case bytes >= mb:
		return fmt.Sprintf("%.1f MB", float64(bytes)/mb)
	case bytes >= kb:
		return fmt.Sprintf("%.1f KB", float64(bytes)/kb)
	}
	return fmt.Sprintf("%d bytes", bytes)
}

// Progress renders done/total as a fixed-width bar followed by a percentage,
// e.g. "[#####.....]  50%".
func Progress(done, total, width int) string {
	pct := 0
	if total > 0 {
		pct = min(max(done, 0)*100/total, 100)
	}
	filled := pct * width / 100
	return fmt.Sprintf("[%s%s] %3d%%", strings.Repeat("#", filled), strings.Repeat(".", width-filled), pct)
}
