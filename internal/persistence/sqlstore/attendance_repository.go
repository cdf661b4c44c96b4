package sqlstore

import (
	"context"

	"github.com/example/drivingschool/internal/persistence"
)

// AttendanceRepository implements persistence.AttendanceRepository.
type AttendanceRepository struct {
	store *Store
}

// NewAttendanceRepository creates an attendance repository backed by store.
func NewAttendanceRepository(store *Store) *AttendanceRepository {
	return &AttendanceRepository{store: store}
}

// CreateAttendance inserts a confirmation. A second confirmation for the same
// meeting and document id fails with persistence.ErrDuplicate.
func (r *AttendanceRepository) CreateAttendance(ctx context.Context, attendance persistence.Attendance) error {
	if attendance.ID == "" || attendance.MeetingID == "" || attendance.DocumentID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO attendances (id, meeting_id, document_id, participant_name, participant_role, confirmed_at)
		VALUES (:id, :meeting_id, :document_id, :participant_name, :participant_role, :confirmed_at)
	`
	return r.store.retry.WithRetry(ctx, func() error {
		_, err := r.store.db.NamedExecContext(ctx, query, attendance)
		return err
	})
}

// CountAttendances returns the number of confirmations for a meeting.
func (r *AttendanceRepository) CountAttendances(ctx context.Context, meetingID string) (int, error) {
	db := r.store.db
	var count int
	if err := db.GetContext(ctx, &count, db.Rebind(`SELECT COUNT(*) FROM attendances WHERE meeting_id = ?`), meetingID); err != nil {
		return 0, r.store.mapper.MapError(err)
	}
	return count, nil
}

// AttendanceExists reports whether the participant already confirmed for the meeting.
func (r *AttendanceRepository) AttendanceExists(ctx context.Context, meetingID, documentID string) (bool, error) {
	db := r.store.db
	var count int
	query := db.Rebind(`SELECT COUNT(*) FROM attendances WHERE meeting_id = ? AND document_id = ?`)
	if err := db.GetContext(ctx, &count, query, meetingID, documentID); err != nil {
		return false, r.store.mapper.MapError(err)
	}
	return count > 0, nil
}

// ListAttendances returns confirmations ordered by confirmation time.
func (r *AttendanceRepository) ListAttendances(ctx context.Context, meetingID string) ([]persistence.Attendance, error) {
	db := r.store.db
	query := db.Rebind(`
		SELECT id, meeting_id, document_id, participant_name, participant_role, confirmed_at
		FROM attendances
		WHERE meeting_id = ?
		ORDER BY confirmed_at ASC, id ASC
	`)

	var attendances []persistence.Attendance
	if err := db.SelectContext(ctx, &attendances, query, meetingID); err != nil {
		return nil, r.store.mapper.MapError(err)
	}
	return attendances, nil
}
