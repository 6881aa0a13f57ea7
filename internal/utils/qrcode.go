package utils

import (
	"fmt"
	"strings"

	"github.com/skip2/go-qrcode"

	"Portfolio/internal/config"
)

// ContactLink возвращает ссылку для QR-кода: сайт владельца или mailto: email.
func ContactLink(p config.Profile) (string, error) {
	if site := strings.TrimSpace(p.Website); site != "" {
		return site, nil
	}
	if email := strings.TrimSpace(p.Email); email != "" {
		return "mailto:" + email, nil
	}
	return "", fmt.Errorf("в профиле нет ни сайта, ни email")
}

// GenerateContactQR генерирует PNG QR-кода для контактной ссылки профиля.
func GenerateContactQR(p config.Profile) ([]byte, error) {
	link, err := ContactLink(p)
	if err != nil {
		return nil, err
	}
	// qrcode.Medium - уровень коррекции ошибок, 256 - размер QR-кода в пикселях.
	png, err := qrcode.Encode(link, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("ошибка кодирования QR-кода для ссылки '%s': %w", link, err)
	}
	return png, nil
}
