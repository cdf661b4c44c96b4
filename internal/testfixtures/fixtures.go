package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/drivingschool/internal/civil"
	"github.com/example/drivingschool/internal/persistence"
)

var (
	meetingCounter     uint64
	participantCounter uint64
)

var referenceTime = time.Date(2024, time.May, 15, 9, 30, 0, 0, civil.Zone)

// ReferenceTime is the baseline instant used by fixtures: a Wednesday
// morning in the civil zone.
func ReferenceTime() time.Time {
	return referenceTime
}

// MeetingOption configures a generated meeting.
type MeetingOption func(*persistence.Meeting)

// NewMeeting returns a scheduled training meeting on the reference date
// from 09:00 to 10:00 with a unique id and token.
func NewMeeting(opts ...MeetingOption) persistence.Meeting {
	idx := atomic.AddUint64(&meetingCounter, 1)
	id := fmt.Sprintf("meeting-%03d", idx)
	m := persistence.Meeting{
		ID:              id,
		Type:            "training",
		Description:     fmt.Sprintf("Capacitación %03d", idx),
		ScheduledDate:   civil.DateOf(referenceTime).String(),
		StartTime:       "09:00",
		EndTime:         "10:00",
		Modality:        "in_person",
		Audience:        "everyone",
		CreatorID:       "900",
		AttendanceToken: "token-" + id,
		State:           "scheduled",
		CreatedAt:       referenceTime.Add(-time.Duration(idx) * time.Minute),
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// WithMeetingID overrides the id and the derived token.
func WithMeetingID(id string) MeetingOption {
	return func(m *persistence.Meeting) {
		m.ID = id
		m.AttendanceToken = "token-" + id
	}
}

// WithSchedule sets the date and the start and end times.
func WithSchedule(date, start, end string) MeetingOption {
	return func(m *persistence.Meeting) {
		m.ScheduledDate = date
		m.StartTime = start
		m.EndTime = end
	}
}

// WithState overrides the lifecycle state.
func WithState(state string) MeetingOption {
	return func(m *persistence.Meeting) {
		m.State = state
	}
}

// WithAudience overrides the target audience.
func WithAudience(audience string) MeetingOption {
	return func(m *persistence.Meeting) {
		m.Audience = audience
	}
}

// NewParticipant returns a directory entry with a unique document id.
func NewParticipant(role string) persistence.Participant {
	idx := atomic.AddUint64(&participantCounter, 1)
	return persistence.Participant{
		DocumentID: fmt.Sprintf("%08d", 10000000+idx),
		Name:       fmt.Sprintf("Participante %03d", idx),
		Email:      fmt.Sprintf("participante%03d@example.com", idx),
		Role:       role,
	}
}

// SchoolDirectory is a small staff directory: one admin, one administrative
// clerk and two instructors, the second without email.
func SchoolDirectory() []persistence.Participant {
	return []persistence.Participant{
		{DocumentID: "900", Name: "Directora", Email: "direccion@example.com", Role: "admin"},
		{DocumentID: "200", Name: "Luis", Email: "luis@example.com", Role: "administrative"},
		{DocumentID: "100", Name: "Ana", Email: "ana@example.com", Role: "instructor"},
		{DocumentID: "300", Name: "Marta", Email: "", Role: "instructor"},
	}
}
