// internal/models/stock.go
package models

// StockSummary: остаток строк-учёток для пары товар+вариант.
type StockSummary struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	VariantID   string `json:"variant_id"`
	VariantName string `json:"variant_name"`
	Count       int    `json:"stock_count"`
}

type StockResponse struct {
	Success bool           `json:"success"`
	Stock   []StockSummary `json:"stock"`
}
