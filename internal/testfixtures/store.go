package testfixtures

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/example/drivingschool/internal/persistence"
	"github.com/example/drivingschool/internal/persistence/sqlstore"
)

// StoreHarness exposes migrated repositories over a temporary SQLite file.
type StoreHarness struct {
	// DSN lets other components open the same database file.
	DSN         string
	Store       *sqlstore.Store
	Meetings    *sqlstore.MeetingRepository
	Attendances *sqlstore.AttendanceRepository
	Directory   *sqlstore.DirectoryRepository
}

// NewStoreHarness opens and migrates a fresh database. It is closed through tb.Cleanup.
func NewStoreHarness(tb testing.TB) *StoreHarness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "drivingschool.db")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store, err := sqlstore.Open(context.Background(), sqlstore.Config{Driver: sqlstore.DriverSQLite, DSN: path}, logger)
	if err != nil {
		tb.Fatalf("failed to open store: %v", err)
	}
	tb.Cleanup(func() { _ = store.Close() })

	if _, err := store.Migrate(context.Background()); err != nil {
		tb.Fatalf("failed to migrate store: %v", err)
	}

	return &StoreHarness{
		DSN:         path,
		Store:       store,
		Meetings:    sqlstore.NewMeetingRepository(store),
		Attendances: sqlstore.NewAttendanceRepository(store),
		Directory:   sqlstore.NewDirectoryRepository(store),
	}
}

// SeedMeetings inserts meetings or fails the test.
func (h *StoreHarness) SeedMeetings(tb testing.TB, meetings ...persistence.Meeting) {
	tb.Helper()
	for _, m := range meetings {
		if err := h.Meetings.CreateMeeting(context.Background(), m); err != nil {
			tb.Fatalf("failed to seed meeting %s: %v", m.ID, err)
		}
	}
}

// SeedParticipants upserts directory entries or fails the test.
func (h *StoreHarness) SeedParticipants(tb testing.TB, participants ...persistence.Participant) {
	tb.Helper()
	for _, p := range participants {
		if err := h.Directory.UpsertParticipant(context.Background(), p); err != nil {
			tb.Fatalf("failed to seed participant %s: %v", p.DocumentID, err)
		}
	}
}

// MeetingState reads back a meeting's stored state.
func (h *StoreHarness) MeetingState(tb testing.TB, id string) string {
	tb.Helper()
	m, err := h.Meetings.GetMeeting(context.Background(), id)
	if err != nil {
		tb.Fatalf("failed to load meeting %s: %v", id, err)
	}
	return m.State
}
