package models

import "time"

// User represents a registered bot user
type User struct {
	ID       int64
	Username string
	FullName string
	Phone    string
	JoinDate time.Time
}

// HasPhone reports whether the user finished registration by sharing a contact
func (u *User) HasPhone() bool {
	return u != nil && u.Phone != ""
}

// Movie represents a movie available by code
type Movie struct {
	Code        int64
	Name        string
	Language    string
	Quality     string
	Genre       string
	Description string
	FileID      string
	Views       int64
}

// CV represents a generated resume
type CV struct {
	ID         int64
	UserID     int64
	FullName   string
	BirthDate  string
	Position   string
	Experience string
	Skills     string
	Email      string
	Phone      string
	Downloads  int64
	CreatedAt  time.Time
}

// Channel is a group or channel users must join before getting content
type Channel struct {
	ChatID string
	URL    string
}

// UserStats holds registration counters for the statistics screen
type UserStats struct {
	Total    int64
	Today    int64
	LastWeek int64
}

// ContentStat is a named counter used by reports
type ContentStat struct {
	Name  string
	Count int64
}

// ViewEvent is a single successful content lookup
type ViewEvent struct {
	Time      time.Time
	Bot       string
	ContentID int64
	UserID    int64
}

// BroadcastEvent summarizes a finished broadcast
type BroadcastEvent struct {
	Time    time.Time
	Bot     string
	AdminID int64
	Total   int
	Sent    int
}
