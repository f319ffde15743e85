package models

import "time"

// Student mirrors a learner record cached from the students provider.
type Student struct {
	ID             int64     `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	Program        string    `db:"program" json:"program"`
	Modality       string    `db:"modality" json:"modality"`
	AcademicStatus string    `db:"academic_status" json:"academic_status"`
	SyncedAt       time.Time `db:"synced_at" json:"synced_at"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search   string
	Program  string
	Page     int
	PageSize int
}
