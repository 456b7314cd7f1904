// internal/handlers/forms.go
package handlers

import (
	"net/http"

	"github.com/justinas/nosurf"
)

const maxFormBytes = 1 << 20

// postedFields собирает поля формы для пересылки в backend как есть,
// кроме служебного CSRF-токена. Одиночное поле уходит строкой,
// повторяющееся (tag=x&tag=y) уходит списком значений в исходном порядке.
func postedFields(w http.ResponseWriter, r *http.Request) (map[string]any, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	fields := make(map[string]any, len(r.PostForm))
	for key, values := range r.PostForm {
		switch {
		case key == nosurf.FormFieldName || len(values) == 0:
			continue
		case len(values) == 1:
			fields[key] = values[0]
		default:
			fields[key] = values
		}
	}
	return fields, nil
}
