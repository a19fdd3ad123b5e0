package entities

import "time"

// User is anchored to the external platform identity. Rows are created
// lazily on first submission or bot interaction and never deleted.
type User struct {
	ID         int64
	TelegramID int64
	Username   string
	FullName   string
	Phone      string
	IsAdmin    bool
	IsBanned   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
