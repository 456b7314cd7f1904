// internal/models/order.go
package models

type Order struct {
	ID          string  `json:"id"`
	UserID      int64   `json:"user_id"`
	Username    string  `json:"username"`
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	VariantID   string  `json:"variant_id"`
	Quantity    int     `json:"quantity"`
	Total       float64 `json:"total"`
	TrxID       string  `json:"trx_id"`
	Timestamp   string  `json:"timestamp"`
}

type OrdersResponse struct {
	Success bool    `json:"success"`
	Orders  []Order `json:"orders"`
	Count   int     `json:"count"`
}
