// internal/handlers/admin_stock.go
package handlers

import (
	"log/slog"
	"net/http"
)

const (
	msgStockAdded      = "Stock added successfully!"
	msgStockAddFailure = "Error adding stock."
)

func (h *AppHandlers) StockPageHandler(w http.ResponseWriter, r *http.Request) {
	data := h.NewPageData(r, ActionStock)
	data.PageTitle = "Stock"

	stock, err := h.Backend.Stock(r.Context())
	if err != nil {
		slog.WarnContext(r.Context(), "Не удалось получить остатки", "error", err)
		data.UpstreamError = true
	}
	data.Stock = stock

	h.RenderAdminPage(w, r, http.StatusOK, "stock.html", data)
}

// AddStockHandler: форма выбирает товар и вариант из списка товаров backend,
// строки stock_data уходят в add_stock без разбора.
func (h *AppHandlers) AddStockHandler(w http.ResponseWriter, r *http.Request) {
	data := h.NewPageData(r, ActionAddStock)
	data.PageTitle = "Add Stock"

	if r.Method == http.MethodPost {
		fields, err := postedFields(w, r)
		if err != nil {
			slog.WarnContext(r.Context(), "Ошибка парсинга формы остатков", "error", err)
			data.FlashError = msgStockAddFailure
		} else {
			result, err := h.Backend.AddStock(r.Context(), fields)
			switch {
			case err != nil:
				slog.WarnContext(r.Context(), "Backend не принял остатки", "error", err)
				data.FlashError = msgStockAddFailure
			case !result.Success:
				slog.InfoContext(r.Context(), "Backend отклонил остатки", "message", result.Error)
				data.FlashError = msgStockAddFailure
			default:
				slog.InfoContext(r.Context(), "Остатки добавлены", "product_id", fields["product_id"], "variant_id", fields["variant_id"])
				data.FlashSuccess = msgStockAdded
			}
		}
	}

	products, err := h.Backend.Products(r.Context())
	if err != nil {
		slog.WarnContext(r.Context(), "Не удалось получить товары для формы остатков", "error", err)
		data.UpstreamError = true
	}
	data.Products = products

	h.RenderAdminPage(w, r, http.StatusOK, "add_stock.html", data)
}
