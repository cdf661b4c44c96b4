package application

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/example/drivingschool/internal/civil"
	"github.com/example/drivingschool/internal/mailer"
	"github.com/example/drivingschool/internal/persistence"
)

var referenceNow = time.Date(2024, time.May, 15, 9, 30, 0, 0, civil.Zone)

func fixedNow() time.Time { return referenceNow }

func sequentialIDs(prefix string) func() string {
	var (
		mu sync.Mutex
		n  int
	)
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%03d", prefix, n)
	}
}

func mustDate(value string) civil.Date {
	d, err := civil.ParseDate(value)
	if err != nil {
		panic(err)
	}
	return d
}

func mustTime(value string) civil.TimeOfDay {
	t, err := civil.ParseTimeOfDay(value)
	if err != nil {
		panic(err)
	}
	return t
}

var adminPrincipal = Principal{DocumentID: "900", Name: "Directora", Role: RoleAdmin}

// memoryStore is an in-memory stand-in for the meeting, attendance and directory repositories.
type memoryStore struct {
	mu           sync.Mutex
	meetings     map[string]Meeting
	attendances  []Attendance
	participants []Participant

	createMeetingErr    error
	listErr             error
	updateErr           error
	countErr            error
	createAttendanceErr error
	directoryErr        error

	updates []string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{meetings: make(map[string]Meeting)}
}

func (m *memoryStore) put(meeting Meeting) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.meetings[meeting.ID] = meeting
}

func (m *memoryStore) meeting(id string) Meeting {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.meetings[id]
}

func (m *memoryStore) addAttendance(a Attendance) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attendances = append(m.attendances, a)
}

func (m *memoryStore) countFor(meetingID, documentID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, a := range m.attendances {
		if a.MeetingID == meetingID && (documentID == "" || a.DocumentID == documentID) {
			n++
		}
	}
	return n
}

func (m *memoryStore) CreateMeeting(ctx context.Context, meeting Meeting) error {
	if m.createMeetingErr != nil {
		return m.createMeetingErr
	}
	m.put(meeting)
	return nil
}

func (m *memoryStore) GetMeeting(ctx context.Context, id string) (Meeting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	meeting, ok := m.meetings[id]
	if !ok {
		return Meeting{}, persistence.ErrNotFound
	}
	return meeting, nil
}

func (m *memoryStore) GetMeetingByToken(ctx context.Context, token string) (Meeting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, meeting := range m.meetings {
		if meeting.AttendanceToken == token {
			return meeting, nil
		}
	}
	return Meeting{}, persistence.ErrNotFound
}

func (m *memoryStore) ListMeetings(ctx context.Context, filter MeetingFilter) ([]Meeting, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Meeting
	for _, meeting := range m.meetings {
		if filter.State != "" && meeting.State != filter.State {
			continue
		}
		if filter.Date != nil && meeting.Date.Compare(*filter.Date) != 0 {
			continue
		}
		if filter.DateOnOrBefore != nil && meeting.Date.Compare(*filter.DateOnOrBefore) > 0 {
			continue
		}
		out = append(out, meeting)
	}
	if filter.OrderByStart {
		sort.Slice(out, func(i, j int) bool {
			if c := out[i].Date.Compare(out[j].Date); c != 0 {
				return c < 0
			}
			if c := out[i].StartTime.Compare(out[j].StartTime); c != 0 {
				return c < 0
			}
			return out[i].ID < out[j].ID
		})
	} else {
		sort.Slice(out, func(i, j int) bool {
			if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
				return out[i].CreatedAt.After(out[j].CreatedAt)
			}
			return out[i].ID > out[j].ID
		})
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (m *memoryStore) UpdateMeetingState(ctx context.Context, id string, from, to MeetingState) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	meeting, ok := m.meetings[id]
	if !ok {
		return persistence.ErrNotFound
	}
	if meeting.State != from {
		return fmt.Errorf("%w: %s", persistence.ErrStateConflict, meeting.State)
	}
	meeting.State = to
	m.meetings[id] = meeting
	m.updates = append(m.updates, id+":"+string(to))
	return nil
}

func (m *memoryStore) CreateAttendance(ctx context.Context, attendance Attendance) error {
	if m.createAttendanceErr != nil {
		return m.createAttendanceErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.attendances {
		if a.MeetingID == attendance.MeetingID && a.DocumentID == attendance.DocumentID {
			return persistence.ErrDuplicate
		}
	}
	m.attendances = append(m.attendances, attendance)
	return nil
}

func (m *memoryStore) CountAttendances(ctx context.Context, meetingID string) (int, error) {
	if m.countErr != nil {
		return 0, m.countErr
	}
	return m.countFor(meetingID, ""), nil
}

func (m *memoryStore) AttendanceExists(ctx context.Context, meetingID, documentID string) (bool, error) {
	return m.countFor(meetingID, documentID) > 0, nil
}

func (m *memoryStore) ListAttendances(ctx context.Context, meetingID string) ([]Attendance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Attendance
	for _, a := range m.attendances {
		if a.MeetingID == meetingID {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ConfirmedAt.Before(out[j].ConfirmedAt) })
	return out, nil
}

func (m *memoryStore) ListParticipantsByRoles(ctx context.Context, roles []Role) ([]Participant, error) {
	if m.directoryErr != nil {
		return nil, m.directoryErr
	}
	var out []Participant
	for _, p := range m.participants {
		if slices.Contains(roles, p.Role) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memoryStore) ListParticipantsByDocumentIDs(ctx context.Context, ids []string) ([]Participant, error) {
	if m.directoryErr != nil {
		return nil, m.directoryErr
	}
	var out []Participant
	for _, p := range m.participants {
		if slices.Contains(ids, p.DocumentID) {
			out = append(out, p)
		}
	}
	return out, nil
}

// senderStub records sent messages and fails for the configured addresses.
type senderStub struct {
	mu     sync.Mutex
	sent   []mailer.Message
	failOn map[string]bool
}

func (s *senderStub) Send(ctx context.Context, msg mailer.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, to := range msg.To {
		if s.failOn[to.Address] {
			return fmt.Errorf("smtp: rejected %s", to.Address)
		}
	}
	s.sent = append(s.sent, msg)
	return nil
}

func (s *senderStub) recipients() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, msg := range s.sent {
		for _, to := range msg.To {
			out = append(out, to.Address)
		}
	}
	return out
}

func scheduledMeeting(id, date, start, end string) Meeting {
	return Meeting{
		ID:              id,
		Type:            MeetingTypeTraining,
		Description:     "Manejo defensivo",
		Date:            mustDate(date),
		StartTime:       mustTime(start),
		EndTime:         mustTime(end),
		Modality:        ModalityInPerson,
		Audience:        AudienceEveryone,
		CreatorID:       adminPrincipal.DocumentID,
		AttendanceToken: "token-" + id,
		State:           MeetingStateScheduled,
		CreatedAt:       referenceNow.Add(-24 * time.Hour),
	}
}

func directoryFixture() []Participant {
	return []Participant{
		{DocumentID: "100", Name: "Ana", Email: "ana@example.com", Role: RoleInstructor},
		{DocumentID: "200", Name: "Luis", Email: "luis@example.com", Role: RoleAdministrative},
		{DocumentID: "300", Name: "Marta", Email: "", Role: RoleInstructor},
		{DocumentID: "100", Name: "Ana", Email: "ana@example.com", Role: RoleInstructor},
		{DocumentID: "900", Name: "Directora", Email: "dir@example.com", Role: RoleAdmin},
	}
}
