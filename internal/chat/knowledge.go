package chat

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"Portfolio/internal/constants"
	"Portfolio/internal/models"
)

// KeyWords разбивает сообщение на слова по любым символам, кроме букв и цифр,
// и оставляет уникальные слова длиннее трех символов в порядке появления.
func KeyWords(msg string) []string {
	fields := strings.FieldsFunc(strings.ToLower(msg), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := make(map[string]struct{}, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if utf8.RuneCountInString(f) < constants.KnowledgeMinWordLen {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

// splitSentences режет текст по . ! ? и переводам строк, пустые куски отбрасываются.
func splitSentences(content string) []string {
	parts := strings.FieldsFunc(content, func(r rune) bool {
		return r == '.' || r == '!' || r == '?' || r == '\n' || r == '\r'
	})
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func matchedWords(content string, keys []string) []string {
	lower := strings.ToLower(content)
	var out []string
	for _, k := range keys {
		if strings.Contains(lower, k) {
			out = append(out, k)
		}
	}
	return out
}

// MatchKnowledge ищет лучший документ: больше всего совпавших слов, при равенстве - первый.
// Документ подходит, если совпало не меньше двух слов. Ответ - до трех первых предложений,
// содержащих хотя бы одно совпавшее слово, через ". ".
func MatchKnowledge(msg string, entries []models.KnowledgeEntry) (string, bool) {
	if len(entries) == 0 {
		return "", false
	}
	keys := KeyWords(msg)
	if len(keys) < constants.KnowledgeMinMatches {
		return "", false
	}

	bestIdx, bestHits := -1, []string(nil)
	for i, entry := range entries {
		hits := matchedWords(entry.Content, keys)
		if len(hits) >= constants.KnowledgeMinMatches && len(hits) > len(bestHits) {
			bestIdx, bestHits = i, hits
		}
	}
	if bestIdx < 0 {
		return "", false
	}

	var picked []string
	for _, sentence := range splitSentences(entries[bestIdx].Content) {
		lower := strings.ToLower(sentence)
		for _, w := range bestHits {
			if strings.Contains(lower, w) {
				picked = append(picked, sentence)
				break
			}
		}
		if len(picked) == constants.KnowledgeMaxSentences {
			break
		}
	}
	if len(picked) == 0 {
		return "", false
	}
	return strings.Join(picked, ". "), true
}
