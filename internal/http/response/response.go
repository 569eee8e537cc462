// Package response содержит вспомогательные типы и функции для формирования
// унифицированных JSON‑ответов HTTP‑обработчиков.
package response

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/subscription-plans/internal/lib/fsm"
	"github.com/magabrotheeeer/subscription-plans/internal/lib/validation"
	"github.com/magabrotheeeer/subscription-plans/internal/services/session"
)

// Response описывает стандартную структуру JSON‑ответа сервера.
// Поле Status — статус запроса ("OK" или "Error").
// Поле Error — текст ошибки (опционально, при неуспехе).
// Поле Data — данные ответа (опционально, при успехе).
type Response struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

// ErrorResponse — структура ошибки для Swagger-документации.
type ErrorResponse struct {
	Status string `json:"status" example:"Error"`
	Error  string `json:"error" example:"invalid request body"`
}

// InvoiceResponse ответ эндпоинта отправки счёта.
type InvoiceResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	EmailID string `json:"emailId,omitempty"`
}

const (
	// StatusOK — значение статуса для успешного ответа.
	StatusOK = "OK"
	// StatusError — значение статуса для ответа с ошибкой.
	StatusError = "Error"
)

// OKWithData возвращает успешный Response с переданными данными.
func OKWithData(data any) Response {
	return Response{
		Status: StatusOK,
		Data:   data,
	}
}

// Error возвращает Response с ошибкой и переданным сообщением.
func Error(msg string) Response {
	return Response{
		Status: StatusError,
		Error:  msg,
	}
}

// ValidationError формирует Response со статусом Error на основе ошибок валидации.
// Каждое нарушение формируется в человеко‑читаемый текст, объединённый через запятую.
func ValidationError(errs validator.ValidationErrors) Response {
	var errsMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "numeric":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s can contain only numbers", err.Field()))
		case validation.EmailTag:
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be a valid email address", err.Field()))
		default:
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is not a valid", err.Field()))
		}
	}
	return Response{
		Status: StatusError,
		Error:  strings.Join(errsMsgs, ", "),
	}
}

type sessionErr struct {
	target error
	status int
}

var sessionErrs = []sessionErr{
	{session.ErrInvalidEmail, http.StatusUnprocessableEntity},
	{session.ErrInvalidName, http.StatusUnprocessableEntity},
	{session.ErrUnknownPlan, http.StatusNotFound},
	{session.ErrNoInvoice, http.StatusNotFound},
	{session.ErrNotificationNotFound, http.StatusNotFound},
	{session.ErrDowngradeNotAllowed, http.StatusConflict},
	{session.ErrPaymentInProgress, http.StatusConflict},
	{session.ErrNothingToCancel, http.StatusConflict},
	{session.ErrWrongStage, http.StatusConflict},
	{fsm.ErrRejected, http.StatusConflict},
	{session.ErrClosed, http.StatusServiceUnavailable},
}

// SessionError подбирает HTTP статус и ответ для ошибки контроллера сессии.
// Неизвестные ошибки отдаются как 500 без подробностей.
func SessionError(err error) (int, Response) {
	for _, e := range sessionErrs {
		if errors.Is(err, e.target) {
			return e.status, Error(e.target.Error())
		}
	}
	return http.StatusInternalServerError, Error("internal error")
}
