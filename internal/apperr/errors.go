package apperr

import "fmt"

// Коды ошибок, которыми пользуется весь сервис
const (
	CodeUnauthenticated = "unauthenticated"
	CodeValidation      = "validation"
	CodeNotFound        = "not_found"
	CodeRemote          = "remote_failure"
	CodeReadOnly        = "readonly_field"
)

// Error — ошибка уровня приложения: код + поле + человеческое сообщение.
// Поле пустое, если ошибка не привязана к конкретному полю ввода.
type Error struct {
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`

	cause error
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

func E(code, field, message string) *Error {
	return &Error{Code: code, Field: field, Message: message}
}

// Wrap заворачивает низкоуровневую ошибку (стор, сеть) с кодом и сообщением.
func Wrap(code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

func Unauthenticated() *Error {
	return &Error{Code: CodeUnauthenticated, Message: "user is not authenticated"}
}

func Validation(field, message string) *Error {
	return &Error{Code: CodeValidation, Field: field, Message: message}
}

func Remote(message string, cause error) *Error {
	return &Error{Code: CodeRemote, Message: message, cause: cause}
}

func NotFound(message string) *Error {
	return &Error{Code: CodeNotFound, Message: message}
}

// IsCode — true, если err (или любая ошибка в цепочке) несёт данный код.
func IsCode(err error, code string) bool {
	for err != nil {
		if ae, ok := err.(*Error); ok && ae.Code == code {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
