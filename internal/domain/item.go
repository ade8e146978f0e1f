package domain

import (
	"time"
	"unicode/utf8"
)

const MaxItemTitleLength = 250

// Item is a feed entry ingested from a source. Title is unique across all
// items and is the deduplication key.
type Item struct {
	ID         int       `json:"id"`
	SourceID   int       `json:"source_id"`
	SourceName string    `json:"source_name"`
	Title      string    `json:"title"`
	Summary    string    `json:"summary"`
	Link       string    `json:"link"`
	Favorite   bool      `json:"favorite"`
	CreatedAt  time.Time `json:"created_at"`
}

func (i *Item) Validate() error {
	if i.Title == "" || utf8.RuneCountInString(i.Title) > MaxItemTitleLength {
		return ErrInvalidItemTitle
	}
	if i.SourceID <= 0 {
		return ErrInvalidSourceID
	}
	return nil
}

func (i *Item) String() string {
	return i.SourceName + ": " + i.Title
}
