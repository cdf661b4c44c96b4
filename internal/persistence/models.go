package persistence

import "time"

// Meeting is the stored form of a scheduled session. Dates are kept as
// YYYY-MM-DD and times of day as HH:mm so they order lexically.
type Meeting struct {
	ID              string
	Type            string
	Description     string
	ScheduledDate   string
	StartTime       string
	EndTime         string
	Modality        string
	Responsible     *string
	Audience        string
	Location        *string
	CreatorID       string
	AttendanceToken string
	State           string
	CreatedAt       time.Time
}

// Attendance is one participant confirmation. ConfirmedAt is a civil
// date-time (YYYY-MM-DD HH:mm:ss) without zone offset.
type Attendance struct {
	ID              string `db:"id"`
	MeetingID       string `db:"meeting_id"`
	DocumentID      string `db:"document_id"`
	ParticipantName string `db:"participant_name"`
	ParticipantRole string `db:"participant_role"`
	ConfirmedAt     string `db:"confirmed_at"`
}

// Participant is an entry of the usuarios directory.
type Participant struct {
	DocumentID string `db:"document_id"`
	Name       string `db:"name"`
	Email      string `db:"email"`
	Role       string `db:"role"`
}
