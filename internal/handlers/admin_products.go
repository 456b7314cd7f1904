// internal/handlers/admin_products.go
package handlers

import (
	"log/slog"
	"net/http"
)

const (
	msgProductAdded      = "Product added successfully!"
	msgProductAddFailure = "Error adding product."
)

func (h *AppHandlers) ProductsPageHandler(w http.ResponseWriter, r *http.Request) {
	data := h.NewPageData(r, ActionProducts)
	data.PageTitle = "Products"

	products, err := h.Backend.Products(r.Context())
	if err != nil {
		slog.WarnContext(r.Context(), "Не удалось получить список товаров", "error", err)
		data.UpstreamError = true
	}
	data.Products = products

	h.RenderAdminPage(w, r, http.StatusOK, "products.html", data)
}

// AddProductHandler: на POST пересылает поля формы в add_product и
// показывает результат над формой.
func (h *AppHandlers) AddProductHandler(w http.ResponseWriter, r *http.Request) {
	data := h.NewPageData(r, ActionAddProduct)
	data.PageTitle = "Add Product"

	if r.Method == http.MethodPost {
		fields, err := postedFields(w, r)
		if err != nil {
			slog.WarnContext(r.Context(), "Ошибка парсинга формы товара", "error", err)
			data.FlashError = msgProductAddFailure
		} else {
			result, err := h.Backend.AddProduct(r.Context(), fields)
			switch {
			case err != nil:
				slog.WarnContext(r.Context(), "Backend не принял товар", "error", err)
				data.FlashError = msgProductAddFailure
			case !result.Success:
				slog.InfoContext(r.Context(), "Backend отклонил товар", "message", result.Error)
				data.FlashError = msgProductAddFailure
			default:
				slog.InfoContext(r.Context(), "Товар добавлен", "name", fields["name"])
				data.FlashSuccess = msgProductAdded
			}
		}
	}

	h.RenderAdminPage(w, r, http.StatusOK, "add_product.html", data)
}
