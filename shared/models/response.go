package models

import (
	"encoding/json"
	"net/http"
)

// Коды ошибок для клиента (стабильная часть контракта, в отличие от Message).
const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeForbidden    = "forbidden"
	ErrCodeNotFound     = "not_found"
	ErrCodeConflict     = "conflict"
	ErrCodeInternal     = "internal_error"
)

// ErrorResponse — стандартизированный ответ об ошибке.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SendJSONError пишет ErrorResponse в http.ResponseWriter.
// Используется вне Gin (например, websocket-сервисом до апгрейда соединения).
func SendJSONError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	code := ErrCodeInternal
	switch status {
	case http.StatusBadRequest:
		code = ErrCodeBadRequest
	case http.StatusUnauthorized:
		code = ErrCodeUnauthorized
	case http.StatusForbidden:
		code = ErrCodeForbidden
	case http.StatusNotFound:
		code = ErrCodeNotFound
	case http.StatusConflict:
		code = ErrCodeConflict
	}

	_ = json.NewEncoder(w).Encode(ErrorResponse{Code: code, Message: message})
}
