// internal/models/forms.go
package models

// LoginForm: форма входа администратора. Длину пароля не ограничиваем:
// он сравнивается с настроенным целиком.
type LoginForm struct {
	Password string `form:"password" validate:"required"`
}
