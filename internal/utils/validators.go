package utils

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	emailRegex     = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneJunkRegex = regexp.MustCompile(`[\s\-().]`)
	phoneRegex     = regexp.MustCompile(`^\+?\d{7,15}$`)
)

// ValidateEmail проверяет адрес и возвращает его без пробелов по краям.
// ValidateEmail checks the address and returns it trimmed.
func ValidateEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", fmt.Errorf("email is required")
	}
	if len(email) > 254 || !emailRegex.MatchString(email) {
		return "", fmt.Errorf("email %q is not a valid address", email)
	}
	return email, nil
}

// NormalizePhone убирает пробелы, дефисы, скобки и точки.
// Пустой номер допустим (телефон необязателен) и возвращается как есть.
func NormalizePhone(phone string) (string, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return "", nil
	}
	cleaned := phoneJunkRegex.ReplaceAllString(phone, "")
	if !phoneRegex.MatchString(cleaned) {
		return "", fmt.Errorf("phone %q must contain 7 to 15 digits", phone)
	}
	return cleaned, nil
}
