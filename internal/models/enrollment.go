package models

import "time"

// MaxActiveCourses caps the active lines a single enrollment may hold.
const MaxActiveCourses = 5

// Enrollment groups a student's courses for one academic period.
type Enrollment struct {
	ID        int64     `db:"id" json:"id"`
	StudentID int64     `db:"student_id" json:"student_id"`
	Period    string    `db:"period" json:"period"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// EnrollmentLine is one course membership inside an enrollment.
type EnrollmentLine struct {
	ID           int64     `db:"id" json:"id"`
	EnrollmentID int64     `db:"enrollment_id" json:"enrollment_id"`
	CourseID     int64     `db:"course_id" json:"course_id"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// EnrollmentLineDetail enriches a line with the referenced course.
type EnrollmentLineDetail struct {
	EnrollmentLine
	CourseTitle   string `db:"course_title" json:"course_title"`
	CourseProgram string `db:"course_program" json:"course_program"`
	CourseSeats   int    `db:"course_seats" json:"course_seats"`
}

// EnrollmentSummary is the read model used by dashboards and the CLI.
type EnrollmentSummary struct {
	StudentID      int64                  `json:"student_id"`
	Period         string                 `json:"period"`
	Enrollment     *Enrollment            `json:"enrollment,omitempty"`
	Lines          []EnrollmentLineDetail `json:"lines"`
	ActiveCount    int                    `json:"active_count"`
	RemainingSlots int                    `json:"remaining_slots"`
}
