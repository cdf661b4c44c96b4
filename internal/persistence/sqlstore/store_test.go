package sqlstore

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/example/drivingschool/internal/persistence"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "store.db") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	store, err := Open(context.Background(), Config{Driver: DriverSQLite, DSN: dsn}, nil)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	if _, err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to migrate store: %v", err)
	}
	return store
}

func sampleMeeting(id, date, start, end string) persistence.Meeting {
	return persistence.Meeting{
		ID:              id,
		Type:            "training",
		Description:     "Defensive driving refresher",
		ScheduledDate:   date,
		StartTime:       start,
		EndTime:         end,
		Modality:        "in_person",
		Audience:        "everyone",
		CreatorID:       "1001",
		AttendanceToken: "token-" + id,
		State:           "scheduled",
		CreatedAt:       time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	t.Parallel()

	if _, err := Open(context.Background(), Config{Driver: "mysql"}, nil); err == nil {
		t.Fatalf("expected error for unsupported driver")
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	applied, err := store.Migrate(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if applied != 0 {
		t.Fatalf("expected no pending migrations, got %d", applied)
	}
}

func TestMeetingRepositoryRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewMeetingRepository(openTestStore(t))

	location := "Aula 2"
	meeting := sampleMeeting("m-1", "2024-05-15", "09:00", "10:00")
	meeting.Location = &location

	if err := repo.CreateMeeting(ctx, meeting); err != nil {
		t.Fatalf("failed to create meeting: %v", err)
	}

	got, err := repo.GetMeeting(ctx, "m-1")
	if err != nil {
		t.Fatalf("failed to get meeting: %v", err)
	}
	if got.Location == nil || *got.Location != location || got.Responsible != nil {
		t.Fatalf("unexpected optional fields: %+v", got)
	}
	if !got.CreatedAt.Equal(meeting.CreatedAt) {
		t.Fatalf("expected created_at %v, got %v", meeting.CreatedAt, got.CreatedAt)
	}

	byToken, err := repo.GetMeetingByToken(ctx, "token-m-1")
	if err != nil || byToken.ID != "m-1" {
		t.Fatalf("expected lookup by token, got %+v, %v", byToken, err)
	}

	if _, err := repo.GetMeeting(ctx, "missing"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := repo.GetMeetingByToken(ctx, ""); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for empty token, got %v", err)
	}
}

func TestMeetingRepositoryRejectsInvalidRows(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewMeetingRepository(openTestStore(t))

	inverted := sampleMeeting("m-1", "2024-05-15", "10:00", "09:00")
	if err := repo.CreateMeeting(ctx, inverted); !errors.Is(err, persistence.ErrConstraintViolation) {
		t.Fatalf("expected constraint violation for inverted times, got %v", err)
	}

	if err := repo.CreateMeeting(ctx, sampleMeeting("m-2", "2024-05-15", "09:00", "10:00")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	clash := sampleMeeting("m-3", "2024-05-15", "09:00", "10:00")
	clash.AttendanceToken = "token-m-2"
	if err := repo.CreateMeeting(ctx, clash); !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("expected duplicate token error, got %v", err)
	}
}

func TestListMeetingsFilters(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewMeetingRepository(openTestStore(t))

	fixtures := []persistence.Meeting{
		sampleMeeting("a", "2024-05-14", "08:00", "09:00"),
		sampleMeeting("b", "2024-05-15", "11:00", "12:00"),
		sampleMeeting("c", "2024-05-15", "07:00", "08:00"),
		sampleMeeting("d", "2024-05-16", "08:00", "09:00"),
	}
	for i := range fixtures {
		fixtures[i].CreatedAt = fixtures[i].CreatedAt.Add(time.Duration(i) * time.Minute)
		if err := repo.CreateMeeting(ctx, fixtures[i]); err != nil {
			t.Fatalf("failed to create %s: %v", fixtures[i].ID, err)
		}
	}
	if err := repo.UpdateMeetingState(ctx, "a", "scheduled", "cancelled"); err != nil {
		t.Fatalf("failed to cancel: %v", err)
	}

	recent, err := repo.ListMeetings(ctx, persistence.MeetingFilter{Limit: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recent) != 2 || recent[0].ID != "d" || recent[1].ID != "c" {
		t.Fatalf("expected most recent first, got %v", meetingIDs(recent))
	}

	today, err := repo.ListMeetings(ctx, persistence.MeetingFilter{State: "scheduled", Date: "2024-05-15", OrderByStart: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ids := meetingIDs(today); len(ids) != 2 || ids[0] != "c" || ids[1] != "b" {
		t.Fatalf("expected start order c,b got %v", ids)
	}

	due, err := repo.ListMeetings(ctx, persistence.MeetingFilter{State: "scheduled", DateOnOrBefore: "2024-05-15"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(due) != 2 {
		t.Fatalf("expected cancelled and future meetings excluded, got %v", meetingIDs(due))
	}
}

func TestUpdateMeetingStateIsConditional(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewMeetingRepository(openTestStore(t))
	if err := repo.CreateMeeting(ctx, sampleMeeting("m-1", "2024-05-15", "09:00", "10:00")); err != nil {
		t.Fatalf("failed to create: %v", err)
	}

	if err := repo.UpdateMeetingState(ctx, "m-1", "scheduled", "executed"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.UpdateMeetingState(ctx, "m-1", "scheduled", "cancelled"); !errors.Is(err, persistence.ErrStateConflict) {
		t.Fatalf("expected ErrStateConflict, got %v", err)
	}
	if err := repo.UpdateMeetingState(ctx, "missing", "scheduled", "cancelled"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	got, err := repo.GetMeeting(ctx, "m-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.State != "executed" {
		t.Fatalf("expected executed to stick, got %s", got.State)
	}
}

func TestAttendanceRepository(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := openTestStore(t)
	meetings := NewMeetingRepository(store)
	attendances := NewAttendanceRepository(store)

	if err := meetings.CreateMeeting(ctx, sampleMeeting("m-1", "2024-05-15", "09:00", "10:00")); err != nil {
		t.Fatalf("failed to create meeting: %v", err)
	}

	first := persistence.Attendance{ID: "a-2", MeetingID: "m-1", DocumentID: "200", ParticipantName: "Ana", ParticipantRole: "instructor", ConfirmedAt: "2024-05-15 09:10:00"}
	second := persistence.Attendance{ID: "a-1", MeetingID: "m-1", DocumentID: "100", ParticipantName: "Luis", ParticipantRole: "administrative", ConfirmedAt: "2024-05-15 09:20:00"}
	for _, a := range []persistence.Attendance{first, second} {
		if err := attendances.CreateAttendance(ctx, a); err != nil {
			t.Fatalf("failed to create attendance: %v", err)
		}
	}

	duplicate := first
	duplicate.ID = "a-3"
	if err := attendances.CreateAttendance(ctx, duplicate); !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	orphan := persistence.Attendance{ID: "a-4", MeetingID: "nope", DocumentID: "1", ParticipantName: "X", ParticipantRole: "instructor", ConfirmedAt: "2024-05-15 09:20:00"}
	if err := attendances.CreateAttendance(ctx, orphan); !errors.Is(err, persistence.ErrConstraintViolation) {
		t.Fatalf("expected foreign key violation, got %v", err)
	}

	count, err := attendances.CountAttendances(ctx, "m-1")
	if err != nil || count != 2 {
		t.Fatalf("expected 2 attendances, got %d (%v)", count, err)
	}

	exists, err := attendances.AttendanceExists(ctx, "m-1", "200")
	if err != nil || !exists {
		t.Fatalf("expected attendance to exist, got %v (%v)", exists, err)
	}
	exists, err = attendances.AttendanceExists(ctx, "m-1", "999")
	if err != nil || exists {
		t.Fatalf("expected no attendance, got %v (%v)", exists, err)
	}

	list, err := attendances.ListAttendances(ctx, "m-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 2 || list[0].DocumentID != "200" || list[1].DocumentID != "100" {
		t.Fatalf("expected confirmation order, got %+v", list)
	}
}

func TestConcurrentDuplicateAttendanceKeepsOneRow(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := openTestStore(t)
	if err := NewMeetingRepository(store).CreateMeeting(ctx, sampleMeeting("m-1", "2024-05-15", "09:00", "10:00")); err != nil {
		t.Fatalf("failed to create meeting: %v", err)
	}
	attendances := NewAttendanceRepository(store)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = attendances.CreateAttendance(ctx, persistence.Attendance{
				ID:              "a-" + string(rune('a'+i)),
				MeetingID:       "m-1",
				DocumentID:      "200",
				ParticipantName: "Ana",
				ParticipantRole: "instructor",
				ConfirmedAt:     "2024-05-15 09:10:00",
			})
		}(i)
	}
	wg.Wait()

	count, err := attendances.CountAttendances(ctx, "m-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly one attendance, got %d", count)
	}
}

func TestDirectoryRepository(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewDirectoryRepository(openTestStore(t))

	entries := []persistence.Participant{
		{DocumentID: "1", Name: "Carla", Email: "carla@example.com", Role: "instructor"},
		{DocumentID: "2", Name: "Beto", Email: "beto@example.com", Role: "administrative"},
		{DocumentID: "3", Name: "Ana", Email: "ana@example.com", Role: "admin"},
	}
	for _, p := range entries {
		if err := repo.UpsertParticipant(ctx, p); err != nil {
			t.Fatalf("failed to upsert %s: %v", p.DocumentID, err)
		}
	}

	updated := entries[0]
	updated.Email = "carla@school.example"
	if err := repo.UpsertParticipant(ctx, updated); err != nil {
		t.Fatalf("failed to update participant: %v", err)
	}

	staff, err := repo.ListParticipantsByRoles(ctx, []string{"admin", "administrative"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(staff) != 2 || staff[0].Name != "Ana" || staff[1].Name != "Beto" {
		t.Fatalf("unexpected staff %+v", staff)
	}

	byID, err := repo.ListParticipantsByDocumentIDs(ctx, []string{"1", "404"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(byID) != 1 || byID[0].Email != "carla@school.example" {
		t.Fatalf("unexpected lookup result %+v", byID)
	}

	none, err := repo.ListParticipantsByRoles(ctx, nil)
	if err != nil || none != nil {
		t.Fatalf("expected empty result for no roles, got %v (%v)", none, err)
	}

	invalid := persistence.Participant{DocumentID: "9", Name: "Zoe", Role: "student"}
	if err := repo.UpsertParticipant(ctx, invalid); !errors.Is(err, persistence.ErrConstraintViolation) {
		t.Fatalf("expected role check violation, got %v", err)
	}
}

func meetingIDs(meetings []persistence.Meeting) []string {
	ids := make([]string, 0, len(meetings))
	for _, m := range meetings {
		ids = append(ids, m.ID)
	}
	return ids
}
