package application

import (
	"slices"
	"time"

	"github.com/example/drivingschool/internal/civil"
)

// Role identifies a participant's position in the school.
type Role string

const (
	RoleAdmin          Role = "admin"
	RoleAdministrative Role = "administrative"
	RoleInstructor     Role = "instructor"
)

// AllRoles lists every role known to the participant directory.
var AllRoles = []Role{RoleAdmin, RoleAdministrative, RoleInstructor}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return slices.Contains(AllRoles, r)
}

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	DocumentID string
	Name       string
	Role       Role
}

// CanManageMeetings reports whether the principal may create, cancel and export meetings.
func (p Principal) CanManageMeetings() bool {
	return p.Role == RoleAdmin || p.Role == RoleAdministrative
}

// MeetingType is the category of a meeting.
type MeetingType string

const (
	MeetingTypeTraining        MeetingType = "training"
	MeetingTypeStaffMeeting    MeetingType = "staff_meeting"
	MeetingTypeInduction       MeetingType = "induction"
	MeetingTypeSafetyCommittee MeetingType = "safety_committee"
	MeetingTypeOther           MeetingType = "other"
)

var meetingTypeLabels = map[MeetingType]string{
	MeetingTypeTraining:        "Capacitación",
	MeetingTypeStaffMeeting:    "Reunión de personal",
	MeetingTypeInduction:       "Inducción",
	MeetingTypeSafetyCommittee: "Comité de seguridad vial",
	MeetingTypeOther:           "Otro",
}

// Label returns the human readable name used in notifications.
func (t MeetingType) Label() string {
	if label, ok := meetingTypeLabels[t]; ok {
		return label
	}
	return string(t)
}

// Modality describes how a meeting is attended.
type Modality string

const (
	ModalityInPerson Modality = "in_person"
	ModalityVirtual  Modality = "virtual"
)

// Label returns the human readable name used in notifications.
func (m Modality) Label() string {
	if m == ModalityVirtual {
		return "Virtual"
	}
	return "Presencial"
}

// Audience selects which part of the participant directory is notified.
type Audience string

const (
	AudienceEveryone       Audience = "everyone"
	AudienceInstructors    Audience = "instructors"
	AudienceAdministrative Audience = "administrative"
)

// Roles returns the directory roles addressed by the audience.
func (a Audience) Roles() []Role {
	switch a {
	case AudienceInstructors:
		return []Role{RoleInstructor}
	case AudienceAdministrative:
		return []Role{RoleAdministrative, RoleAdmin}
	default:
		return slices.Clone(AllRoles)
	}
}

// MeetingState is the lifecycle state of a meeting.
type MeetingState string

const (
	MeetingStateScheduled MeetingState = "scheduled"
	MeetingStateExecuted  MeetingState = "executed"
	MeetingStateCancelled MeetingState = "cancelled"
)

// Meeting represents one scheduled session.
type Meeting struct {
	ID              string
	Type            MeetingType
	Description     string
	Date            civil.Date
	StartTime       civil.TimeOfDay
	EndTime         civil.TimeOfDay
	Modality        Modality
	Responsible     *string
	Audience        Audience
	Location        *string
	CreatorID       string
	AttendanceToken string
	State           MeetingState
	CreatedAt       time.Time
}

// Finished reports whether the meeting's scheduled end is at or before now.
func (m Meeting) Finished(now time.Time) bool {
	return civil.Finished(m.Date, m.EndTime, now)
}

// InProgress reports whether now falls between the meeting's start and end.
func (m Meeting) InProgress(now time.Time) bool {
	return civil.Within(m.Date, m.StartTime, m.EndTime, now)
}

// MeetingInput captures caller provided meeting fields as submitted by the form.
type MeetingInput struct {
	Type        string  `json:"type" validate:"required,oneof=training staff_meeting induction safety_committee other"`
	Description string  `json:"description" validate:"required"`
	Date        string  `json:"date" validate:"required,civil_date"`
	StartTime   string  `json:"start_time" validate:"required,civil_time"`
	EndTime     string  `json:"end_time" validate:"required,civil_time"`
	Modality    string  `json:"modality" validate:"omitempty,oneof=in_person virtual"`
	Responsible *string `json:"responsible"`
	Audience    string  `json:"audience" validate:"omitempty,oneof=everyone instructors administrative"`
	Location    *string `json:"location"`
}

// CreateMeetingParams wraps the data required to create a meeting.
type CreateMeetingParams struct {
	Principal Principal
	Input     MeetingInput
}

// CreateMeetingResult is returned by CreateMeeting.
type CreateMeetingResult struct {
	Meeting       Meeting
	Notifications NotificationReport
}

// CancelMeetingParams wraps the data required to cancel a meeting.
type CancelMeetingParams struct {
	Principal Principal
	MeetingID string
}

// CancelMeetingResult is returned by CancelMeeting.
type CancelMeetingResult struct {
	Meeting       Meeting
	Notifications NotificationReport
}

// SweepResult summarizes one expiry sweep pass.
type SweepResult struct {
	Examined  int
	Finalized []string
}

// Attendance represents one participant's confirmation for one meeting.
type Attendance struct {
	ID              string
	MeetingID       string
	DocumentID      string
	ParticipantName string
	ParticipantRole Role
	ConfirmedAt     time.Time
}

// ParticipantInput identifies the person confirming attendance.
type ParticipantInput struct {
	DocumentID string `json:"document_id" validate:"required"`
	Name       string `json:"name" validate:"required"`
	Role       string `json:"role" validate:"required,oneof=admin administrative instructor"`
}

// SubmitAttendanceParams wraps the data required to confirm attendance.
type SubmitAttendanceParams struct {
	Token       string
	Participant ParticipantInput
}

// AttendanceStatus labels the outcome of an attendance submission.
type AttendanceStatus string

const (
	AttendanceRecorded          AttendanceStatus = "recorded"
	AttendanceAlreadyRegistered AttendanceStatus = "already_registered"
	AttendanceMeetingCancelled  AttendanceStatus = "meeting_cancelled"
)

// Warning reports whether the status is a soft rejection rather than a new record.
func (s AttendanceStatus) Warning() bool {
	return s != AttendanceRecorded
}

// AttendanceOutcome is returned by SubmitAttendance.
type AttendanceOutcome struct {
	Status     AttendanceStatus
	Meeting    Meeting
	Attendance *Attendance
	// Finalized is set when the submission moved the meeting to executed.
	Finalized bool
}

// Participant is a participant directory entry.
type Participant struct {
	DocumentID string
	Name       string
	Email      string
	Role       Role
}

// Attendee is an attendance enriched with directory contact details.
type Attendee struct {
	Attendance
	Email string
}
