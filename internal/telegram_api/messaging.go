package telegram_api

import (
	"fmt"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"
)

// MaxMessageLength - лимит Telegram на длину текста одного сообщения.
const MaxMessageLength = 4096

// SendText отправляет текст, при необходимости разбивая его на несколько сообщений.
// Возвращает первую ошибку; уже отправленные части не отзываются.
func SendText(s Sender, chatID int64, text, parseMode string) error {
	if s == nil {
		return fmt.Errorf("telegram: отправитель не инициализирован")
	}
	for i, part := range SplitMessage(text, MaxMessageLength) {
		msg := tgbotapi.NewMessage(chatID, part)
		if parseMode != "" {
			msg.ParseMode = parseMode
		}
		if _, err := s.Send(msg); err != nil {
			return fmt.Errorf("telegram: часть %d не отправлена: %w", i+1, err)
		}
	}
	return nil
}

// SendDocument отправляет файл из памяти.
func SendDocument(s Sender, chatID int64, filename string, data []byte, caption string) error {
	if s == nil {
		return fmt.Errorf("telegram: отправитель не инициализирован")
	}
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: filename, Bytes: data})
	doc.Caption = caption
	if _, err := s.Send(doc); err != nil {
		return fmt.Errorf("telegram: документ %s не отправлен: %w", filename, err)
	}
	return nil
}

// SplitMessage режет текст на части не длиннее limit рун, предпочитая границы строк.
// Пустой текст дает одну пустую часть.
func SplitMessage(text string, limit int) []string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var parts []string
	var current strings.Builder
	currentLen := 0

	flush := func() {
		if currentLen > 0 {
			parts = append(parts, current.String())
			current.Reset()
			currentLen = 0
		}
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		lineLen := utf8.RuneCountInString(line)
		if currentLen+lineLen <= limit {
			current.WriteString(line)
			currentLen += lineLen
			continue
		}
		flush()
		// Строка длиннее лимита режется по рунам.
		runes := []rune(line)
		for len(runes) > limit {
			parts = append(parts, string(runes[:limit]))
			runes = runes[limit:]
		}
		current.WriteString(string(runes))
		currentLen = len(runes)
	}
	flush()
	return parts
}
