// Package models defines the server-side entities persisted in PostgreSQL and
// returned inside the response envelope.
package models

import "time"

// User is a registered account. Password and RefreshToken never leave the
// server.
type User struct {
	ID                  string    `json:"id"`
	FullName            string    `json:"fullname"`
	Email               string    `json:"email"`
	UserName            string    `json:"username"`
	Password            string    `json:"-"`
	Avatar              string    `json:"avatar"`
	CoverImage          string    `json:"coverImage"`
	RefreshToken        string    `json:"-"`
	RefreshTokenExpires time.Time `json:"-"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}
