package utils

import (
	"bytes"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Portfolio/internal/config"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "jane@x.com", want: "jane@x.com"},
		{in: "  sam@example.org ", want: "sam@example.org"},
		{in: "", wantErr: true},
		{in: "not-an-email", wantErr: true},
		{in: "a@b", wantErr: true},
		{in: "a b@c.d", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ValidateEmail(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestNormalizePhone(t *testing.T) {
	got, err := NormalizePhone("+1 (555) 010-9999")
	require.NoError(t, err)
	assert.Equal(t, "+15550109999", got)

	got, err = NormalizePhone("")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = NormalizePhone("call me")
	assert.Error(t, err)
	_, err = NormalizePhone("123")
	assert.Error(t, err)
}

func TestEscapeTelegramMarkdown(t *testing.T) {
	assert.Equal(t, `snake\_case \*bold\* \[link`, EscapeTelegramMarkdown("snake_case *bold* [link"))
}

func TestFormattingHelpers(t *testing.T) {
	assert.Equal(t, "-", FormatDateTime(time.Time{}))
	ts := time.Date(2024, 3, 5, 14, 7, 0, 0, time.UTC)
	assert.Equal(t, "05.03.2024 14:07 UTC", FormatDateTime(ts))

	assert.Equal(t, "Not specified", OrDefault("  ", "Not specified"))
	assert.Equal(t, "5k", OrDefault("5k", "Not specified"))

	assert.Equal(t, "abc", Ellipsis("abc", 3))
	assert.Equal(t, "ab...", Ellipsis("abc", 2))
	assert.Equal(t, "жж...", Ellipsis("жжж", 2))
}

func TestContactQR(t *testing.T) {
	link, err := ContactLink(config.Profile{Website: "https://example.com", Email: "a@b.c"})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", link)

	link, err = ContactLink(config.Profile{Email: "a@b.c"})
	require.NoError(t, err)
	assert.Equal(t, "mailto:a@b.c", link)

	_, err = ContactLink(config.Profile{})
	assert.Error(t, err)

	data, err := GenerateContactQR(config.DefaultProfile())
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 256, img.Bounds().Dx())
}
