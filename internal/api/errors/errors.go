// Пакет errors — ответы об ошибках API в формате контракта:
// {"error": {"code": "...", "message": "..."}}.
// HTTP-статус определяется кодом ошибки.
package errors

import (
	"encoding/json"
	"net/http"
)

// Коды ошибок OpenAPI контракта.
const (
	CodeValidationError = "VALIDATION_ERROR"
	CodeNotFound        = "NOT_FOUND"
	CodeConflict        = "CONFLICT"
	CodeExtractionError = "EXTRACTION_ERROR"
	CodeInternalError   = "INTERNAL_ERROR"
)

var statusByCode = map[string]int{
	CodeValidationError: http.StatusBadRequest,
	CodeNotFound:        http.StatusNotFound,
	CodeConflict:        http.StatusConflict,
	CodeExtractionError: http.StatusUnprocessableEntity,
	CodeInternalError:   http.StatusInternalServerError,
}

// Error — тело ошибки API.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

// Status возвращает HTTP-статус для кода ошибки.
// Неизвестный код считается внутренней ошибкой.
func (e *Error) Status() int {
	if status, ok := statusByCode[e.Code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

type envelope struct {
	Error *Error `json:"error"`
}

// Write записывает ошибку e с соответствующим ей статусом.
func Write(w http.ResponseWriter, e *Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Status())
	_ = json.NewEncoder(w).Encode(envelope{Error: e})
}

// ValidationError — 400.
func ValidationError(w http.ResponseWriter, message string) {
	Write(w, &Error{Code: CodeValidationError, Message: message})
}

// NotFound — 404.
func NotFound(w http.ResponseWriter, message string) {
	Write(w, &Error{Code: CodeNotFound, Message: message})
}

// Conflict — 409.
func Conflict(w http.ResponseWriter, message string) {
	Write(w, &Error{Code: CodeConflict, Message: message})
}

// ExtractionError — 422, атрибуты кандидата из CV извлечь не удалось.
func ExtractionError(w http.ResponseWriter, message string) {
	Write(w, &Error{Code: CodeExtractionError, Message: message})
}

// InternalError — 500. message не должен содержать деталей сбоя.
func InternalError(w http.ResponseWriter, message string) {
	Write(w, &Error{Code: CodeInternalError, Message: message})
}
