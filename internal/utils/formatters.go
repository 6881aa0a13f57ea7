package utils

import (
	"strings"
	"time"
	"unicode/utf8"
)

const displayTimeLayout = "02.01.2006 15:04"

// EscapeTelegramMarkdown экранирует специальные символы для Telegram Markdown (legacy).
func EscapeTelegramMarkdown(text string) string {
	var replacer = strings.NewReplacer(
		"_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[",
	)
	return replacer.Replace(text)
}

// FormatDateTime форматирует время для отображения в UTC; нулевое время - "-".
func FormatDateTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(displayTimeLayout) + " UTC"
}

// OrDefault возвращает fallback, если s пустая после обрезки пробелов.
func OrDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

// Ellipsis обрезает строку до n рун; "..." добавляется, только если что-то отрезано.
func Ellipsis(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
