package models

import "time"

// LibraryItem is a catalog entry cached from the library provider.
type LibraryItem struct {
	ID       int64     `db:"id" json:"id"`
	Title    string    `db:"title" json:"title"`
	Author   string    `db:"author" json:"author"`
	Year     int       `db:"year" json:"year"`
	Status   string    `db:"status" json:"status"`
	SyncedAt time.Time `db:"synced_at" json:"synced_at"`
}

// LibraryItemFilter narrows library listings.
type LibraryItemFilter struct {
	Search   string
	Status   string
	Page     int
	PageSize int
}
