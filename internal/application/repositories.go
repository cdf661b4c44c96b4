package application

import (
	"context"

	"github.com/example/drivingschool/internal/civil"
)

// MeetingRepository captures the meeting persistence operations needed by the services.
type MeetingRepository interface {
	CreateMeeting(ctx context.Context, meeting Meeting) error
	GetMeeting(ctx context.Context, id string) (Meeting, error)
	GetMeetingByToken(ctx context.Context, token string) (Meeting, error)
	ListMeetings(ctx context.Context, filter MeetingFilter) ([]Meeting, error)
	// UpdateMeetingState moves a meeting from one state to another and fails
	// with persistence.ErrStateConflict when the meeting is no longer in from.
	UpdateMeetingState(ctx context.Context, id string, from, to MeetingState) error
}

// MeetingFilter narrows meeting queries.
type MeetingFilter struct {
	State          MeetingState
	Date           *civil.Date
	DateOnOrBefore *civil.Date
	// OrderByStart sorts by date and start time ascending; otherwise newest first.
	OrderByStart bool
	Limit        int
}

// AttendanceRepository captures the attendance persistence operations needed by the services.
type AttendanceRepository interface {
	// CreateAttendance fails with persistence.ErrDuplicate when the participant already confirmed.
	CreateAttendance(ctx context.Context, attendance Attendance) error
	CountAttendances(ctx context.Context, meetingID string) (int, error)
	AttendanceExists(ctx context.Context, meetingID, documentID string) (bool, error)
	ListAttendances(ctx context.Context, meetingID string) ([]Attendance, error)
}

// ParticipantDirectory exposes participant lookups.
type ParticipantDirectory interface {
	ListParticipantsByRoles(ctx context.Context, roles []Role) ([]Participant, error)
	ListParticipantsByDocumentIDs(ctx context.Context, documentIDs []string) ([]Participant, error)
}
