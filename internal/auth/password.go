// internal/auth/password.go
package auth

import (
	"crypto/subtle"

	"golang.org/x/crypto/bcrypt"

	"storebot-admin/internal/config"
)

// PasswordChecker решает, открывает ли введённый пароль панель.
type PasswordChecker interface {
	Check(password string) bool
}

// PlainChecker сравнивает с настроенным секретом на точное равенство.
type PlainChecker struct {
	secret []byte
}

func NewPlainChecker(secret string) *PlainChecker {
	return &PlainChecker{secret: []byte(secret)}
}

func (c *PlainChecker) Check(password string) bool {
	if len(c.secret) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(password), c.secret) == 1
}

// BcryptChecker сверяет пароль с bcrypt-хешем из конфигурации.
type BcryptChecker struct {
	hash string
}

func NewBcryptChecker(hash string) *BcryptChecker {
	return &BcryptChecker{hash: hash}
}

func (c *BcryptChecker) Check(password string) bool {
	return CheckPasswordHash(password, c.hash)
}

// NewChecker выбирает bcrypt, если задан хеш, иначе простое сравнение.
func NewChecker(cfg config.AdminConfig) PasswordChecker {
	if cfg.PasswordHash != "" {
		return NewBcryptChecker(cfg.PasswordHash)
	}
	return NewPlainChecker(cfg.Password)
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
