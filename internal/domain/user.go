package domain

import (
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MaxUsernameLength = 150
	MinPasswordLength = 8
)

type User struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

func (u *User) Validate() error {
	name := strings.TrimSpace(u.Username)
	if name == "" || utf8.RuneCountInString(name) > MaxUsernameLength || strings.ContainsAny(name, " \t\r\n") {
		return ErrInvalidUsername
	}
	if u.Email != "" {
		if _, err := mail.ParseAddress(u.Email); err != nil {
			return ErrInvalidEmail
		}
	}
	return nil
}

// ValidatePassword checks a plaintext password before it is hashed.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrInvalidPassword
	}
	return nil
}
