// internal/handlers/admin_dashboard.go
package handlers

import (
	"log/slog"
	"net/http"
)

// DashboardPageHandler показывает счетчики. Если backend недоступен,
// все четыре счетчика равны нулю.
func (h *AppHandlers) DashboardPageHandler(w http.ResponseWriter, r *http.Request) {
	data := h.NewPageData(r, ActionDashboard)
	data.PageTitle = "Dashboard"

	stats, err := h.Backend.Stats(r.Context())
	if err != nil {
		slog.WarnContext(r.Context(), "Не удалось получить статистику", "error", err)
		data.UpstreamError = true
	} else {
		data.Stats = *stats
	}

	health, err := h.Backend.Health(r.Context())
	data.BackendHealthy = err == nil && health.Status == "ok"

	h.RenderAdminPage(w, r, http.StatusOK, "dashboard.html", data)
}
