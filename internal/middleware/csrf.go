// internal/middleware/csrf.go
package middleware

import (
	"log/slog"
	"net/http"

	"github.com/justinas/nosurf"
)

// NoSurfMiddleware обеспечивает CSRF-защиту форм панели.
// isProduction: true для production окружения (Secure cookie).
func NoSurfMiddleware(next http.Handler, isProduction bool) http.Handler {
	csrfHandler := nosurf.New(next)

	csrfHandler.SetBaseCookie(http.Cookie{
		HttpOnly: true,
		Path:     "/",
		Secure:   isProduction,
		SameSite: http.SameSiteLaxMode,
	})

	// По умолчанию nosurf сверяет Origin со схемой https.
	csrfHandler.SetIsTLSFunc(requestIsTLS)

	csrfHandler.SetFailureHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slog.WarnContext(r.Context(), "Неудачная проверка CSRF токена",
			"path", r.URL.Path, "action", r.URL.Query().Get("action"), "method", r.Method,
			"reason", nosurf.Reason(r), "request_id", GetRequestID(r.Context()))
		http.Error(w, "Security check failed: invalid or missing CSRF token.", http.StatusForbidden)
	}))

	return csrfHandler
}

// requestIsTLS: TLS на этом сервере или на прокси перед ним.
func requestIsTLS(r *http.Request) bool {
	return r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https"
}
