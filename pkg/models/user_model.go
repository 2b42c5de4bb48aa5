package models

import "time"

// User maps to table `users`. The password hash never leaves the auth service.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}
