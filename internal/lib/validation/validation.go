// Package validation собирает правила проверки ввода подписчика.
package validation

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator"
)

// EmailTag тег правила проверки email подписчика.
const EmailTag = "subscriber_email"

// emailPattern непустые части до и после @ и точка в доменной части.
var emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

// IsEmail проверяет адрес после обрезки пробелов.
func IsEmail(s string) bool {
	return emailPattern.MatchString(strings.TrimSpace(s))
}

// New возвращает валидатор с зарегистрированным правилом subscriber_email.
func New() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation(EmailTag, func(fl validator.FieldLevel) bool {
		return IsEmail(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}
