// internal/models/product.go
package models

import "sort"

// Variant: вариант товара, ID уникален только в пределах товара.
type Variant struct {
	ID    string  `json:"id,omitempty"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

type Product struct {
	ID          string             `json:"id,omitempty"`
	Name        string             `json:"name"`
	Description string             `json:"desc"`
	Sold        int                `json:"sold"`
	Variants    map[string]Variant `json:"variants"`
}

// SortedVariants возвращает варианты в порядке их ID с заполненным полем ID.
func (p Product) SortedVariants() []Variant {
	ids := make([]string, 0, len(p.Variants))
	for id := range p.Variants {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	variants := make([]Variant, 0, len(ids))
	for _, id := range ids {
		v := p.Variants[id]
		v.ID = id
		variants = append(variants, v)
	}
	return variants
}

// ProductsResponse: ответ GET /api/products, товары ключуются по ID.
type ProductsResponse struct {
	Success  bool               `json:"success"`
	Products map[string]Product `json:"products"`
}

// List раскладывает карту товаров в срез, упорядоченный по ID.
func (r ProductsResponse) List() []Product {
	ids := make([]string, 0, len(r.Products))
	for id := range r.Products {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	products := make([]Product, 0, len(ids))
	for _, id := range ids {
		p := r.Products[id]
		p.ID = id
		products = append(products, p)
	}
	return products
}
