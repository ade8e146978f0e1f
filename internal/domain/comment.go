package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

const MaxCommentLength = 1000

type Comment struct {
	ID        int       `json:"id"`
	ItemID    int       `json:"item_id"`
	UserID    int       `json:"user_id"`
	Username  string    `json:"username"`
	Body      string    `json:"body"`
	Likes     int       `json:"likes"`
	CreatedAt time.Time `json:"created_at"`
}

func (c *Comment) Validate() error {
	body := strings.TrimSpace(c.Body)
	if body == "" || utf8.RuneCountInString(body) > MaxCommentLength {
		return ErrInvalidComment
	}
	if c.UserID <= 0 {
		return ErrInvalidUserID
	}
	return nil
}

func (c *Comment) String() string {
	return c.Username + ": " + c.Body
}
