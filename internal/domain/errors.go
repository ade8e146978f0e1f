package domain

import "errors"

var (
	ErrInvalidUsername    = errors.New("invalid username")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrInvalidPassword    = errors.New("invalid password")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidUserID      = errors.New("invalid user ID")

	ErrInvalidSourceName = errors.New("invalid source name")
	ErrInvalidSourceURL  = errors.New("invalid source URL")
	ErrInvalidSourceID   = errors.New("invalid source ID")
	ErrSourceNotFound    = errors.New("source not found")
	ErrSourceExists      = errors.New("source already added")
	ErrInvalidValidator  = errors.New("validator kind and value must both be set or both be empty")

	ErrInvalidItemTitle = errors.New("invalid item title")
	ErrItemNotFound     = errors.New("item not found")

	ErrInvalidComment  = errors.New("invalid comment")
	ErrCommentNotFound = errors.New("comment not found")
)
