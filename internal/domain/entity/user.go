package entity

import "time"

// User representa un usuario del sistema (acceso a la API).
type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
