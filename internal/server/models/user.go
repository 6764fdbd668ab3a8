// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is a registered identity. A fresh value is built for every
// registration request.
type User struct {
	ID           string
	UserName     string
	Email        string
	PasswordHash []byte
	PasswordSalt []byte

	FirstName   string
	LastName    string
	City        string
	FullAddress string
	PhoneNumber string
	GenderID    int
	RegionID    int

	CreatedAt time.Time
}
