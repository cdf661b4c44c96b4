package persistence

import "context"

// MeetingFilter narrows meeting queries. Zero values disable a condition.
type MeetingFilter struct {
	State          string
	Date           string
	DateOnOrBefore string
	// OrderByStart sorts by scheduled date and start time ascending instead of
	// the default most recently created first.
	OrderByStart bool
	Limit        int
}

// MeetingRepository stores meeting records.
type MeetingRepository interface {
	CreateMeeting(ctx context.Context, meeting Meeting) error
	GetMeeting(ctx context.Context, id string) (Meeting, error)
	GetMeetingByToken(ctx context.Context, token string) (Meeting, error)
	ListMeetings(ctx context.Context, filter MeetingFilter) ([]Meeting, error)
	// UpdateMeetingState moves a meeting from one state to another and fails
	// with ErrStateConflict when the stored state is not from.
	UpdateMeetingState(ctx context.Context, id, from, to string) error
}

// AttendanceRepository stores attendance confirmations.
type AttendanceRepository interface {
	CreateAttendance(ctx context.Context, attendance Attendance) error
	CountAttendances(ctx context.Context, meetingID string) (int, error)
	AttendanceExists(ctx context.Context, meetingID, documentID string) (bool, error)
	ListAttendances(ctx context.Context, meetingID string) ([]Attendance, error)
}

// DirectoryRepository reads and maintains the participant directory.
type DirectoryRepository interface {
	ListParticipantsByRoles(ctx context.Context, roles []string) ([]Participant, error)
	ListParticipantsByDocumentIDs(ctx context.Context, documentIDs []string) ([]Participant, error)
	UpsertParticipant(ctx context.Context, participant Participant) error
}
