package models

import (
	"time"
)

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	UserRole     string    `json:"userRole"`
	ProjectName  string    `json:"projectName"`
	CreatedAt    time.Time `json:"created_at"`
}
