// internal/config/config.go
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"Portfolio/internal/constants"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string
	DBHost      string
	DBName      string
	BoltPath    string

	AdminPassword string
	JWTSecret     string
	AdminTokenTTL time.Duration

	TelegramToken string
	OwnerChatID   int64

	SendGridAPIKey  string
	SendGridBaseURL string
	MailFrom        string
	MailFromName    string
	RecipientEmail  string

	CORSAllowedOrigins []string
	ChatRateRPS        float64
	ChatRateBurst      int

	ProfilePath string

	// Warnings собирает замечания загрузки; main пишет их в лог, когда логгер уже создан.
	Warnings []string
}

func (c *Config) warn(format string, args ...any) {
	c.Warnings = append(c.Warnings, fmt.Sprintf(format, args...))
}

// IsDev сообщает, что приложение работает в режиме разработки.
func (c *Config) IsDev() bool {
	return c.AppEnv != "prod" && c.AppEnv != "production"
}

// UsePostgres - true, если задан DATABASE_URL.
func (c *Config) UsePostgres() bool {
	return c.DatabaseURL != ""
}

// TelegramEnabled - true, если бот может быть запущен.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramToken != "" && c.OwnerChatID != 0
}

// LoadConfig загружает конфигурацию из переменных окружения.
// Ошибка возвращается только для значений, которые нельзя разобрать.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:          getenv("ENV", "dev"),
		Port:            getenv("PORT", "8080"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		BoltPath:        getenv("BOLT_PATH", "data/portfolio.db"),
		AdminPassword:   os.Getenv("ADMIN_PASSWORD"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		TelegramToken:   os.Getenv("TELEGRAM_APITOKEN"),
		SendGridAPIKey:  os.Getenv("SENDGRID_API_KEY"),
		SendGridBaseURL: getenv("SENDGRID_BASE_URL", "https://api.sendgrid.com"),
		MailFrom:        os.Getenv("MAIL_FROM"),
		MailFromName:    getenv("MAIL_FROM_NAME", "Portfolio Assistant"),
		RecipientEmail:  os.Getenv("RECIPIENT_EMAIL"),
		ProfilePath:     getenv("PROFILE_PATH", "profile.yaml"),
	}

	var err error
	if raw := os.Getenv("OWNER_CHAT_ID"); raw != "" {
		cfg.OwnerChatID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("не удалось прочитать OWNER_CHAT_ID: %w", err)
		}
	}

	cfg.AdminTokenTTL = constants.DefaultAdminTokenTTL
	if raw := os.Getenv("ADMIN_TOKEN_TTL"); raw != "" {
		cfg.AdminTokenTTL, err = time.ParseDuration(raw)
		if err != nil || cfg.AdminTokenTTL <= 0 {
			return nil, fmt.Errorf("некорректное значение ADMIN_TOKEN_TTL (%q)", raw)
		}
	}

	cfg.ChatRateRPS = 1
	if raw := os.Getenv("CHAT_RATE_RPS"); raw != "" {
		cfg.ChatRateRPS, err = strconv.ParseFloat(raw, 64)
		if err != nil || cfg.ChatRateRPS <= 0 {
			return nil, fmt.Errorf("некорректное значение CHAT_RATE_RPS (%q)", raw)
		}
	}
	cfg.ChatRateBurst = 5
	if raw := os.Getenv("CHAT_RATE_BURST"); raw != "" {
		cfg.ChatRateBurst, err = strconv.Atoi(raw)
		if err != nil || cfg.ChatRateBurst <= 0 {
			return nil, fmt.Errorf("некорректное значение CHAT_RATE_BURST (%q)", raw)
		}
	}

	for _, origin := range strings.Split(os.Getenv("CORS_ALLOWED_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, origin)
		}
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"https://*", "http://*"}
	}

	if cfg.DatabaseURL != "" {
		parsedURL, parseErr := url.Parse(cfg.DatabaseURL)
		if parseErr != nil {
			return nil, fmt.Errorf("ошибка парсинга DATABASE_URL: %w", parseErr)
		}
		cfg.DBHost = parsedURL.Hostname()
		cfg.DBName = strings.TrimPrefix(parsedURL.Path, "/")
	} else {
		cfg.warn("DATABASE_URL не установлен, используется встроенное хранилище %s", cfg.BoltPath)
	}

	if cfg.JWTSecret == "" {
		cfg.JWTSecret = randomSecret()
		cfg.warn("JWT_SECRET не установлен, сгенерирован временный секрет: токены не переживут перезапуск")
	}
	if cfg.AdminPassword == "" {
		cfg.warn("ADMIN_PASSWORD не установлен, вход в админку отключен")
	}
	if cfg.TelegramToken == "" {
		cfg.warn("TELEGRAM_APITOKEN не установлен, Telegram-уведомления и команды отключены")
	} else if cfg.OwnerChatID == 0 {
		cfg.warn("OWNER_CHAT_ID не установлен, Telegram-уведомления и команды отключены")
	}
	if cfg.SendGridAPIKey == "" || cfg.MailFrom == "" || cfg.RecipientEmail == "" {
		cfg.warn("SENDGRID_API_KEY, MAIL_FROM или RECIPIENT_EMAIL не установлены, email-уведомления отключены")
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func randomSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand не должен падать; на всякий случай секрет на основе времени
		return strconv.FormatInt(time.Now().UnixNano(), 36)
	}
	return hex.EncodeToString(b)
}
