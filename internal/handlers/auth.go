// internal/handlers/auth.go
package handlers

import (
	"log/slog"
	"net/http"

	"storebot-admin/internal/metrics"
	"storebot-admin/internal/middleware"
	"storebot-admin/internal/models"
	"storebot-admin/internal/session"
	"storebot-admin/internal/validation"
)

const (
	msgInvalidPassword = "Invalid password!"
	msgTooManyAttempts = "Too many login attempts. Please try again later."
	dashboardURL       = "/?action=dashboard"
	loginURL           = "/?action=login"
)

// LoginHandler: GET показывает форму, POST проверяет пароль.
func (h *AppHandlers) LoginHandler(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())

	if r.Method != http.MethodPost {
		if sess.IsAdmin() {
			http.Redirect(w, r, dashboardURL, http.StatusSeeOther)
			return
		}
		h.RenderLogin(w, r, http.StatusOK, "")
		return
	}

	if h.Limiter != nil && !h.Limiter.Allow(r) {
		metrics.RecordLoginAttempt("throttled")
		h.RenderLogin(w, r, http.StatusTooManyRequests, msgTooManyAttempts)
		return
	}

	if err := r.ParseForm(); err != nil {
		slog.WarnContext(r.Context(), "Ошибка парсинга формы входа", "error", err)
		metrics.RecordLoginAttempt("failure")
		h.RenderLogin(w, r, http.StatusBadRequest, msgInvalidPassword)
		return
	}
	form := models.LoginForm{Password: r.PostForm.Get("password")}

	if errs := validation.ValidateStruct(form); len(errs) > 0 || !h.Checker.Check(form.Password) {
		slog.WarnContext(r.Context(), "Неудачная попытка входа", "ip", middleware.ClientIP(r), "request_id", middleware.GetRequestID(r.Context()))
		metrics.RecordLoginAttempt("failure")
		h.RenderLogin(w, r, http.StatusUnauthorized, msgInvalidPassword)
		return
	}

	if err := sess.LogIn(); err != nil {
		slog.ErrorContext(r.Context(), "Ошибка обновления токена сессии", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	metrics.RecordLoginAttempt("success")
	slog.InfoContext(r.Context(), "Администратор вошел", "ip", middleware.ClientIP(r), "request_id", middleware.GetRequestID(r.Context()))
	http.Redirect(w, r, dashboardURL, http.StatusSeeOther)
}

// LogoutHandler уничтожает сессию; без активной сессии просто перенаправляет.
func (h *AppHandlers) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	wasAdmin := sess.IsAdmin()
	if err := sess.Destroy(); err != nil {
		slog.ErrorContext(r.Context(), "Ошибка удаления сессии при выходе", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if wasAdmin {
		slog.InfoContext(r.Context(), "Администратор вышел", "ip", middleware.ClientIP(r))
	}
	http.Redirect(w, r, loginURL, http.StatusSeeOther)
}
