// internal/middleware/session.go
package middleware

import (
	"net/http"

	"github.com/alexedwards/scs/v2"

	"storebot-admin/internal/session"
)

// InjectSession кладет в контекст объект сессии текущего запроса.
// Должен стоять внутри sessionManager.LoadAndSave.
func InjectSession(sm *scs.SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s := session.New(r.Context(), sm)
			next.ServeHTTP(w, r.WithContext(session.WithSession(r.Context(), s)))
		})
	}
}
