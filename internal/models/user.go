package models

type User struct {
	ID       int64  `json:"id" redis:"id"`
	Username string `json:"username" redis:"username"`

	CreatedAt int64 `json:"created_at" redis:"created_at"`
	UpdatedAt int64 `json:"updated_at" redis:"updated_at"`
}

type UserSession struct {
	ID           int64  `json:"id" redis:"id"`
	SessionID    string `json:"session_id" redis:"session_id"`
	Username     string `json:"username" redis:"username"`
	CreatedAt    int64  `json:"created_at" redis:"created_at"`
	LastAccessed int64  `json:"last_accessed" redis:"last_accessed"`
}
