package models

import "net/http"

type ErrorKind string // Категория ожидаемой ошибки

const (
	ValidationError ErrorKind = "ValidationError" // Некорректный ввод
	NotFoundError   ErrorKind = "NotFoundError"   // Сущность не существует
	ForbiddenError  ErrorKind = "ForbiddenError"  // Операция запрещена для этого пользователя
	ConflictError   ErrorKind = "ConflictError"   // Конфликт состояния, можно повторить после перечитывания
)

// ErrorResponse описывает ошибку с категорией и сообщением.
type ErrorResponse struct {
	Kind       ErrorKind `json:"-"`
	StatusCode int       `json:"-"`
	Message    string    `json:"reason"`
}

// NewErrorResponse создает новую ошибку указанной категории.
func NewErrorResponse(kind ErrorKind, message string) *ErrorResponse {
	statusCodes := map[ErrorKind]int{
		ValidationError: http.StatusBadRequest,
		NotFoundError:   http.StatusNotFound,
		ForbiddenError:  http.StatusForbidden,
		ConflictError:   http.StatusConflict,
	}
	return &ErrorResponse{
		Kind:       kind,
		StatusCode: statusCodes[kind],
		Message:    message,
	}
}

// Реализация метода Error() для удовлетворения интерфейса error.
func (e *ErrorResponse) Error() string {
	return e.Message
}
