// internal/handlers/admin_users.go
package handlers

import (
	"log/slog"
	"net/http"
)

func (h *AppHandlers) UsersPageHandler(w http.ResponseWriter, r *http.Request) {
	data := h.NewPageData(r, ActionUsers)
	data.PageTitle = "Users"

	users, err := h.Backend.Users(r.Context())
	if err != nil {
		slog.WarnContext(r.Context(), "Не удалось получить пользователей", "error", err)
		data.UpstreamError = true
	}
	data.Users = users

	h.RenderAdminPage(w, r, http.StatusOK, "users.html", data)
}

func (h *AppHandlers) OrdersPageHandler(w http.ResponseWriter, r *http.Request) {
	data := h.NewPageData(r, ActionOrders)
	data.PageTitle = "Orders"

	orders, err := h.Backend.Orders(r.Context())
	if err != nil {
		slog.WarnContext(r.Context(), "Не удалось получить заказы", "error", err)
		data.UpstreamError = true
	}
	data.Orders = orders

	h.RenderAdminPage(w, r, http.StatusOK, "orders.html", data)
}
