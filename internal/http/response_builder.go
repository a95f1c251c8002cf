// Package http exposes the budget API over JSON.
//
// This file implements the Builder Pattern for JSON responses. Every body
// is an envelope carrying data or an error, plus an optional notification
// the client shows as a toast.

package http

import (
	"encoding/json"
	"net/http"
)

// NotificationType represents the type of notification to display.
type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
	NotificationWarning NotificationType = "warning"
	NotificationInfo    NotificationType = "info"
)

// Notification is a short user-visible message.
type Notification struct {
	Type       NotificationType `json:"type"`
	Message    string           `json:"message"`
	DurationMs int              `json:"duration"`
}

type envelope struct {
	Data         any           `json:"data,omitempty"`
	Error        string        `json:"error,omitempty"`
	Redirect     string        `json:"redirect,omitempty"`
	Notification *Notification `json:"notification,omitempty"`
}

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	body       envelope
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Data sets the payload.
func (b *JSONResponseBuilder) Data(v any) *JSONResponseBuilder {
	b.body.Data = v
	return b
}

// Error sets the error message.
func (b *JSONResponseBuilder) Error(message string) *JSONResponseBuilder {
	b.body.Error = message
	return b
}

// Redirect tells the client where to navigate next.
func (b *JSONResponseBuilder) Redirect(path string) *JSONResponseBuilder {
	b.body.Redirect = path
	return b
}

// Notify attaches a notification with the specified parameters.
func (b *JSONResponseBuilder) Notify(notifType NotificationType, message string, durationMs int) *JSONResponseBuilder {
	b.body.Notification = &Notification{Type: notifType, Message: message, DurationMs: durationMs}
	return b
}

// NotifySuccess is a convenience method for success notifications.
func (b *JSONResponseBuilder) NotifySuccess(message string) *JSONResponseBuilder {
	return b.Notify(NotificationSuccess, message, 3000)
}

// NotifyError is a convenience method for error notifications.
func (b *JSONResponseBuilder) NotifyError(message string) *JSONResponseBuilder {
	return b.Notify(NotificationError, message, 5000)
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	payload, err := json.Marshal(b.body)
	if err != nil {
		http.Error(w, `{"error":"encoding failed"}`, http.StatusInternalServerError)
		return
	}

	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_, _ = w.Write(payload)
}

// ErrorResponse creates a standard error response.
func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse().Status(statusCode).Error(message)
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

// UnprocessableEntityError creates a 422 Unprocessable Entity error response.
func UnprocessableEntityError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, message)
}

// UnauthorizedError sends the client back to the sign-in page.
func UnauthorizedError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusUnauthorized, message).Redirect(loginPath)
}

// InternalServerError creates a 500 response carrying a notification the
// client shows while keeping its form.
func InternalServerError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message).NotifyError(message)
}
