// internal/models/stats.go
package models

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Stats: счётчики дашборда из GET /api/stats.
type Stats struct {
	Success     bool   `json:"success"`
	Products    Count  `json:"products"`
	Users       Count  `json:"users"`
	Sold        Count  `json:"sold"`
	Stock       Count  `json:"stock"`
	LastUpdated string `json:"last_updated,omitempty"`
}

// Count: счетчик дашборда. Принимает целые и дробные числа, а также числа
// строкой. Нечисловое значение дает 0 только для своего поля, остальные
// счетчики декодируются как обычно.
type Count float64

func (c *Count) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*c = 0
			return nil
		}
		data = []byte(s)
	}
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		*c = 0
		return nil
	}
	*c = Count(f)
	return nil
}

func (c Count) String() string {
	return strconv.FormatFloat(float64(c), 'f', -1, 64)
}

// WriteResult: ответ backend на add_product / add_stock.
type WriteResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Health: ответ GET {base}/health.
type Health struct {
	Status  string `json:"status"`
	Service string `json:"service,omitempty"`
}
