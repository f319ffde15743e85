package models

import "time"

// Reservation is a student's claim on a library item.
type Reservation struct {
	ID        int64     `db:"id" json:"id"`
	StudentID int64     `db:"student_id" json:"student_id"`
	ItemID    int64     `db:"item_id" json:"item_id"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ReservationDetail joins in the reserved item.
type ReservationDetail struct {
	Reservation
	ItemTitle  string `db:"item_title" json:"item_title"`
	ItemAuthor string `db:"item_author" json:"item_author"`
	ItemStatus string `db:"item_status" json:"item_status"`
}
