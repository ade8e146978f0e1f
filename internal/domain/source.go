package domain

import (
	"net/url"
	"strings"
	"time"
	"unicode/utf8"
)

const MaxSourceNameLength = 100

// Source is a feed origin owned by a user.
type Source struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	Validator Validator `json:"validator"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Source) Validate() error {
	name := strings.TrimSpace(s.Name)
	if name == "" || utf8.RuneCountInString(name) > MaxSourceNameLength {
		return ErrInvalidSourceName
	}
	if !IsFeedURL(s.URL) {
		return ErrInvalidSourceURL
	}
	if s.UserID <= 0 {
		return ErrInvalidUserID
	}
	return s.Validator.Validate()
}

func (s *Source) String() string {
	return s.Name + ": " + s.URL
}

// IsFeedURL reports whether raw is an absolute http(s) URL with a host.
func IsFeedURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
