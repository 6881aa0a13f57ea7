package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultSendGridBaseURL = "https://api.sendgrid.com"

type EmailConfig struct {
	APIKey   string
	BaseURL  string
	From     string
	FromName string
	To       string
	Timeout  time.Duration
}

type EmailAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type mailSendRequest struct {
	Personalizations []personalization `json:"personalizations"`
	From             EmailAddress      `json:"from"`
	ReplyTo          *EmailAddress     `json:"reply_to,omitempty"`
	Subject          string            `json:"subject"`
	Content          []mailContent     `json:"content"`
	Categories       []string          `json:"categories,omitempty"`
}

type personalization struct {
	To []EmailAddress `json:"to"`
}

type mailContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// HTTPError - ответ SendGrid со статусом вне 2xx.
type HTTPError struct {
	StatusCode int
	Body       string
	Errors     []string
}

func (e *HTTPError) Error() string {
	if len(e.Errors) > 0 {
		return fmt.Sprintf("sendgrid: HTTP %d: %s", e.StatusCode, strings.Join(e.Errors, "; "))
	}
	return fmt.Sprintf("sendgrid: HTTP %d: %s", e.StatusCode, e.Body)
}

// EmailNotifier отправляет письма через SendGrid v3 /mail/send.
type EmailNotifier struct {
	cfg        EmailConfig
	httpClient *http.Client
}

func NewEmailNotifier(cfg EmailConfig) (*EmailNotifier, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("sendgrid: не задан SENDGRID_API_KEY")
	}
	if strings.TrimSpace(cfg.From) == "" || strings.TrimSpace(cfg.To) == "" {
		return nil, fmt.Errorf("sendgrid: не заданы MAIL_FROM или RECIPIENT_EMAIL")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = defaultSendGridBaseURL
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &EmailNotifier{cfg: cfg, httpClient: &http.Client{Timeout: cfg.Timeout}}, nil
}

func (e *EmailNotifier) Send(ctx context.Context, n Notification) error {
	if e == nil || e.httpClient == nil {
		return fmt.Errorf("sendgrid: клиент не инициализирован")
	}

	req := mailSendRequest{
		Personalizations: []personalization{{To: []EmailAddress{{Email: e.cfg.To}}}},
		From:             EmailAddress{Email: e.cfg.From, Name: e.cfg.FromName},
		Subject:          n.Subject,
	}
	if n.ReplyTo != "" {
		req.ReplyTo = &EmailAddress{Email: n.ReplyTo}
	}
	if n.Kind != "" {
		req.Categories = []string{n.Kind}
	}
	// text/plain должен идти перед text/html
	if n.Text != "" {
		req.Content = append(req.Content, mailContent{Type: "text/plain", Value: n.Text})
	}
	if n.HTML != "" {
		req.Content = append(req.Content, mailContent{Type: "text/html", Value: n.HTML})
	}
	if len(req.Content) == 0 {
		return fmt.Errorf("sendgrid: пустое письмо %q", n.Subject)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("sendgrid: ошибка сериализации запроса: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.BaseURL+"/v3/mail/send", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("sendgrid: ошибка создания запроса: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+e.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	httpErr := &HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	var parsed struct {
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if json.Unmarshal(raw, &parsed) == nil {
		for _, pe := range parsed.Errors {
			if pe.Message != "" {
				httpErr.Errors = append(httpErr.Errors, pe.Message)
			}
		}
	}
	return httpErr
}
