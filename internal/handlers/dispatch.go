// internal/handlers/dispatch.go
package handlers

import (
	"log/slog"
	"net/http"

	"storebot-admin/internal/session"
)

// ServeHTTP: единая точка входа панели, вид выбирается параметром ?action=.
// Без флага администратора любой вид, кроме login и logout, заменяется
// страницей входа.
func (h *AppHandlers) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	raw := r.URL.Query().Get("action")
	action, known := ParseAction(raw)
	if !known {
		if raw != "" {
			slog.DebugContext(r.Context(), "Неизвестный action, показываем дашборд", "action", raw)
		}
		action = ActionDashboard
	}

	if action != ActionLogin && action != ActionLogout && !session.FromContext(r.Context()).IsAdmin() {
		h.RenderLogin(w, r, http.StatusOK, "")
		return
	}

	switch action {
	case ActionLogin:
		h.LoginHandler(w, r)
	case ActionLogout:
		h.LogoutHandler(w, r)
	case ActionDashboard:
		h.DashboardPageHandler(w, r)
	case ActionProducts:
		h.ProductsPageHandler(w, r)
	case ActionStock:
		h.StockPageHandler(w, r)
	case ActionUsers:
		h.UsersPageHandler(w, r)
	case ActionOrders:
		h.OrdersPageHandler(w, r)
	case ActionAddProduct:
		h.AddProductHandler(w, r)
	case ActionAddStock:
		h.AddStockHandler(w, r)
	default:
		h.DashboardPageHandler(w, r)
	}
}
