// Package format содержит функции форматирования значений для сообщений
// пользователю: размеры, длительности, даты и полоса прогресса.
package format

import (
	"fmt"
	"strings"
	"time"
)

// Size преобразует байты в человекочитаемый вид.
func Size(bytes int64) string {
	value := float64(bytes)
	for _, unit := range []string{"B", "KB", "MB", "GB", "TB"} {
		if value < 1024.0 {
			return fmt.Sprintf("%.2f %s", value, unit)
		}
		value /= 1024.0
	}
	return fmt.Sprintf("%.2f PB", value)
}

// Duration преобразует длительность в краткий вид: 42s, 3m 10s, 2h 5m.
func Duration(d time.Duration) string {
	seconds := int(d.Seconds())
	switch {
	case seconds < 60:
		return fmt.Sprintf("%ds", seconds)
	case seconds < 3600:
		return fmt.Sprintf("%dm %ds", seconds/60, seconds%60)
	default:
		return fmt.Sprintf("%dh %dm", seconds/3600, (seconds%3600)/60)
	}
}

// Date форматирует дату для сообщений, nil выводится как "Never".
func Date(t *time.Time) string {
	if t == nil {
		return "Never"
	}
	return t.Format("02 Jan 2006, 03:04 PM")
}

// ProgressBar строит горизонтальную полосу прогресса заданной ширины.
func ProgressBar(current, total int64, width int) string {
	if total <= 0 {
		return strings.Repeat("░", width) + " 0.0%"
	}
	percentage := float64(current) / float64(total) * 100
	filled := int(int64(width) * current / total)
	if filled > width {
		filled = width
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled) +
		fmt.Sprintf(" %.1f%%", percentage)
}

// Extension возвращает расширение имени файла в нижнем регистре без точки.
func Extension(filename string) string {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 || idx == len(filename)-1 {
		return ""
	}
	return strings.ToLower(filename[idx+1:])
}
