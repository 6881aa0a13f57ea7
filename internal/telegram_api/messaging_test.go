package telegram_api

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	sent    []tgbotapi.Chattable
	failAt  int
	failErr error
}

func (r *recordingSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	r.sent = append(r.sent, c)
	if r.failErr != nil && len(r.sent) == r.failAt {
		return tgbotapi.Message{}, r.failErr
	}
	return tgbotapi.Message{MessageID: len(r.sent)}, nil
}

func TestSplitMessage(t *testing.T) {
	assert.Equal(t, []string{"short"}, SplitMessage("short", 10))
	assert.Equal(t, []string{""}, SplitMessage("", 10))

	parts := SplitMessage("aaaa\nbbbb\ncccc", 10)
	assert.Equal(t, []string{"aaaa\nbbbb\n", "cccc"}, parts)

	long := strings.Repeat("ж", 25)
	parts = SplitMessage(long, 10)
	require.Len(t, parts, 3)
	for _, p := range parts {
		assert.LessOrEqual(t, utf8.RuneCountInString(p), 10)
	}
	assert.Equal(t, long, strings.Join(parts, ""))
}

func TestSendTextChunksLongMessages(t *testing.T) {
	s := &recordingSender{}
	text := strings.Repeat(strings.Repeat("x", 99)+"\n", 100) // 10000 рун
	require.NoError(t, SendText(s, 42, text, tgbotapi.ModeMarkdown))

	require.Len(t, s.sent, 3)
	var joined strings.Builder
	for _, c := range s.sent {
		msg, ok := c.(tgbotapi.MessageConfig)
		require.True(t, ok)
		assert.Equal(t, tgbotapi.ModeMarkdown, msg.ParseMode)
		joined.WriteString(msg.Text)
	}
	assert.Equal(t, text, joined.String())
}

func TestSendTextReportsFailure(t *testing.T) {
	s := &recordingSender{failAt: 1, failErr: errors.New("flood")}
	err := SendText(s, 1, "hi", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, s.failErr)
}

func TestSendDocument(t *testing.T) {
	s := &recordingSender{}
	require.NoError(t, SendDocument(s, 7, "deals.xlsx", []byte("PK"), "Сделки"))

	require.Len(t, s.sent, 1)
	doc, ok := s.sent[0].(tgbotapi.DocumentConfig)
	require.True(t, ok)
	assert.Equal(t, "Сделки", doc.Caption)
}
