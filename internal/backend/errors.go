// internal/backend/errors.go
package backend

import (
	"errors"
	"fmt"
)

// Kind различает, на каком этапе не удался вызов backend API.
type Kind int

const (
	// KindUnreachable: сеть, DNS, таймаут, отменённый контекст.
	KindUnreachable Kind = iota + 1
	// KindStatus: ответ получен, но статус не 2xx.
	KindStatus
	// KindMalformed: тело не разбирается в ожидаемую структуру.
	KindMalformed
)

func (k Kind) String() string {
	switch k {
	case KindUnreachable:
		return "unreachable"
	case KindStatus:
		return "status"
	case KindMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

var (
	ErrUnreachable = errors.New("backend: unreachable")
	ErrStatus      = errors.New("backend: unexpected status")
	ErrMalformed   = errors.New("backend: malformed response")
)

// Error: отказ backend API. Вызывающий код получает его вместо паники
// и сам решает, показать ли пустое состояние.
type Error struct {
	Kind       Kind
	Endpoint   string
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindStatus:
		if e.Message != "" {
			return fmt.Sprintf("backend: %s: status %d: %s", e.Endpoint, e.StatusCode, e.Message)
		}
		return fmt.Sprintf("backend: %s: status %d", e.Endpoint, e.StatusCode)
	case KindMalformed:
		return fmt.Sprintf("backend: %s: malformed response: %v", e.Endpoint, e.Err)
	default:
		return fmt.Sprintf("backend: %s: unreachable: %v", e.Endpoint, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is позволяет писать errors.Is(err, backend.ErrUnreachable) и т.п.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrUnreachable:
		return e.Kind == KindUnreachable
	case ErrStatus:
		return e.Kind == KindStatus
	case ErrMalformed:
		return e.Kind == KindMalformed
	}
	return false
}

// KindOf возвращает вид ошибки или 0, если это не ошибка backend.
func KindOf(err error) Kind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	return 0
}
