// Package apierr описывает таксономию ошибок ядра и их отображение на HTTP-статусы.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Виды ошибок. Проверяются через errors.Is.
var (
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrPersistence  = errors.New("persistence error")
	ErrNotification = errors.New("notification error")
	ErrUnauthorized = errors.New("unauthorized")
)

// Error несет вид ошибки, сообщение для вызывающего и исходную причину.
type Error struct {
	Kind error
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return e.Err.Error()
	case e.Kind != nil:
		return e.Kind.Error()
	}
	return "api error"
}

// Unwrap отдает и вид, и причину, чтобы errors.Is работал для обоих.
func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// Message возвращает текст, безопасный для показа клиенту.
func (e *Error) Message() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Kind != nil {
		return e.Kind.Error()
	}
	return "internal error"
}

func New(kind error, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

func Validation(format string, args ...any) error {
	return New(ErrValidation, fmt.Sprintf(format, args...), nil)
}

func NotFound(format string, args ...any) error {
	return New(ErrNotFound, fmt.Sprintf(format, args...), nil)
}

func Conflict(format string, args ...any) error {
	return New(ErrConflict, fmt.Sprintf(format, args...), nil)
}

func Unauthorized(msg string) error {
	return New(ErrUnauthorized, msg, nil)
}

// Persistence оборачивает сбой хранилища; сообщение клиенту не раскрывает причину.
func Persistence(op string, err error) error {
	return New(ErrPersistence, "storage unavailable during "+op, err)
}

func Notification(channel string, err error) error {
	return New(ErrNotification, "notification via "+channel+" failed", err)
}

// HTTPStatus сопоставляет вид ошибки HTTP-статусу.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrPersistence):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrNotification):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// PublicMessage возвращает сообщение для ответа API.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message()
	}
	return "internal error"
}
