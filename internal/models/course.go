package models

import "time"

// CourseOffering is a course open for enrollment inside a program.
type CourseOffering struct {
	ID       int64     `db:"id" json:"id"`
	Program  string    `db:"program" json:"program"`
	Title    string    `db:"title" json:"title"`
	Seats    int       `db:"seats" json:"seats"`
	SyncedAt time.Time `db:"synced_at" json:"synced_at"`
}

// CourseFilter narrows course offering listings.
type CourseFilter struct {
	Search   string
	Program  string
	Page     int
	PageSize int
}
