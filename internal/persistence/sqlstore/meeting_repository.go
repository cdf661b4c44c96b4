package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/example/drivingschool/internal/persistence"
)

const meetingColumns = `id, type, description, scheduled_date, start_time, end_time, modality,
	responsible, audience, location, creator_id, attendance_token, state, created_at`

type meetingRow struct {
	ID              string         `db:"id"`
	Type            string         `db:"type"`
	Description     string         `db:"description"`
	ScheduledDate   string         `db:"scheduled_date"`
	StartTime       string         `db:"start_time"`
	EndTime         string         `db:"end_time"`
	Modality        string         `db:"modality"`
	Responsible     sql.NullString `db:"responsible"`
	Audience        string         `db:"audience"`
	Location        sql.NullString `db:"location"`
	CreatorID       string         `db:"creator_id"`
	AttendanceToken string         `db:"attendance_token"`
	State           string         `db:"state"`
	CreatedAt       string         `db:"created_at"`
}

func newMeetingRow(m persistence.Meeting) meetingRow {
	return meetingRow{
		ID:              m.ID,
		Type:            m.Type,
		Description:     m.Description,
		ScheduledDate:   m.ScheduledDate,
		StartTime:       m.StartTime,
		EndTime:         m.EndTime,
		Modality:        m.Modality,
		Responsible:     nullString(m.Responsible),
		Audience:        m.Audience,
		Location:        nullString(m.Location),
		CreatorID:       m.CreatorID,
		AttendanceToken: m.AttendanceToken,
		State:           m.State,
		CreatedAt:       formatTimestamp(m.CreatedAt),
	}
}

func (r meetingRow) toMeeting() (persistence.Meeting, error) {
	createdAt, err := parseTimestamp(r.CreatedAt)
	if err != nil {
		return persistence.Meeting{}, fmt.Errorf("sqlstore: meeting %s has invalid created_at: %w", r.ID, err)
	}
	return persistence.Meeting{
		ID:              r.ID,
		Type:            r.Type,
		Description:     r.Description,
		ScheduledDate:   r.ScheduledDate,
		StartTime:       r.StartTime,
		EndTime:         r.EndTime,
		Modality:        r.Modality,
		Responsible:     stringPtr(r.Responsible),
		Audience:        r.Audience,
		Location:        stringPtr(r.Location),
		CreatorID:       r.CreatorID,
		AttendanceToken: r.AttendanceToken,
		State:           r.State,
		CreatedAt:       createdAt,
	}, nil
}

// MeetingRepository implements persistence.MeetingRepository.
type MeetingRepository struct {
	store *Store
}

// NewMeetingRepository creates a meeting repository backed by store.
func NewMeetingRepository(store *Store) *MeetingRepository {
	return &MeetingRepository{store: store}
}

// CreateMeeting inserts a new meeting.
func (r *MeetingRepository) CreateMeeting(ctx context.Context, meeting persistence.Meeting) error {
	if meeting.ID == "" || meeting.AttendanceToken == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO meetings (` + meetingColumns + `)
		VALUES (:id, :type, :description, :scheduled_date, :start_time, :end_time, :modality,
			:responsible, :audience, :location, :creator_id, :attendance_token, :state, :created_at)
	`
	return r.store.retry.WithRetry(ctx, func() error {
		_, err := r.store.db.NamedExecContext(ctx, query, newMeetingRow(meeting))
		return err
	})
}

// GetMeeting retrieves a meeting by id.
func (r *MeetingRepository) GetMeeting(ctx context.Context, id string) (persistence.Meeting, error) {
	return r.getBy(ctx, "id", id)
}

// GetMeetingByToken retrieves a meeting by its attendance-link token.
func (r *MeetingRepository) GetMeetingByToken(ctx context.Context, token string) (persistence.Meeting, error) {
	return r.getBy(ctx, "attendance_token", token)
}

func (r *MeetingRepository) getBy(ctx context.Context, column, value string) (persistence.Meeting, error) {
	if strings.TrimSpace(value) == "" {
		return persistence.Meeting{}, persistence.ErrNotFound
	}

	db := r.store.db
	query := db.Rebind(`SELECT ` + meetingColumns + ` FROM meetings WHERE ` + column + ` = ?`)

	var row meetingRow
	if err := db.GetContext(ctx, &row, query, value); err != nil {
		return persistence.Meeting{}, r.store.mapper.MapError(err)
	}
	return row.toMeeting()
}

// ListMeetings returns meetings matching filter.
func (r *MeetingRepository) ListMeetings(ctx context.Context, filter persistence.MeetingFilter) ([]persistence.Meeting, error) {
	var (
		conditions []string
		args       []any
	)
	if filter.State != "" {
		conditions = append(conditions, "state = ?")
		args = append(args, filter.State)
	}
	if filter.Date != "" {
		conditions = append(conditions, "scheduled_date = ?")
		args = append(args, filter.Date)
	}
	if filter.DateOnOrBefore != "" {
		conditions = append(conditions, "scheduled_date <= ?")
		args = append(args, filter.DateOnOrBefore)
	}

	var b strings.Builder
	b.WriteString(`SELECT ` + meetingColumns + ` FROM meetings`)
	if len(conditions) > 0 {
		b.WriteString(` WHERE ` + strings.Join(conditions, " AND "))
	}
	if filter.OrderByStart {
		b.WriteString(` ORDER BY scheduled_date ASC, start_time ASC, id ASC`)
	} else {
		b.WriteString(` ORDER BY created_at DESC, id DESC`)
	}
	if filter.Limit > 0 {
		b.WriteString(` LIMIT ?`)
		args = append(args, filter.Limit)
	}

	db := r.store.db
	var rows []meetingRow
	if err := db.SelectContext(ctx, &rows, db.Rebind(b.String()), args...); err != nil {
		return nil, r.store.mapper.MapError(err)
	}

	meetings := make([]persistence.Meeting, 0, len(rows))
	for _, row := range rows {
		meeting, err := row.toMeeting()
		if err != nil {
			return nil, err
		}
		meetings = append(meetings, meeting)
	}
	return meetings, nil
}

// UpdateMeetingState performs a compare-and-set on the meeting state.
func (r *MeetingRepository) UpdateMeetingState(ctx context.Context, id, from, to string) error {
	return r.store.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx,
			tx.Rebind(`UPDATE meetings SET state = ? WHERE id = ? AND state = ?`),
			to, id, from,
		)
		if err != nil {
			return r.store.mapper.MapError(err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if affected > 0 {
			return nil
		}

		var current string
		err = tx.GetContext(ctx, &current, tx.Rebind(`SELECT state FROM meetings WHERE id = ?`), id)
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.ErrNotFound
		}
		if err != nil {
			return r.store.mapper.MapError(err)
		}
		return fmt.Errorf("%w: meeting %s is %s, expected %s", persistence.ErrStateConflict, id, current, from)
	})
}

func nullString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}

func stringPtr(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	s := value.String
	return &s
}
