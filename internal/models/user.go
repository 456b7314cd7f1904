// internal/models/user.go
package models

// User: покупатель бота, как его отдаёт backend API.
type User struct {
	UserID   int64   `json:"user_id"`
	Username string  `json:"username"`
	Spent    float64 `json:"spent"`
	JoinedAt string  `json:"joined_at"`
}

type UsersResponse struct {
	Success bool   `json:"success"`
	Users   []User `json:"users"`
	Count   int    `json:"count"`
}
