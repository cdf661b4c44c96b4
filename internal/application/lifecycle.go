package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/drivingschool/internal/persistence"
)

// finalizer promotes finished meetings with recorded attendance to executed.
// It is shared by the sweep and by attendance submission.
type finalizer struct {
	meetings    MeetingRepository
	attendances AttendanceRepository
}

// finalize reports whether meeting moved to executed. A meeting that changed
// state concurrently is left alone.
func (f finalizer) finalize(ctx context.Context, meeting Meeting, now time.Time) (bool, error) {
	if meeting.State != MeetingStateScheduled || !meeting.Finished(now) {
		return false, nil
	}
	if f.meetings == nil || f.attendances == nil {
		return false, fmt.Errorf("meeting lifecycle repositories not configured")
	}

	count, err := f.attendances.CountAttendances(ctx, meeting.ID)
	if err != nil {
		return false, mapRepoError(err)
	}
	if count == 0 {
		return false, nil
	}

	err = f.meetings.UpdateMeetingState(ctx, meeting.ID, MeetingStateScheduled, MeetingStateExecuted)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, persistence.ErrStateConflict), errors.Is(err, persistence.ErrNotFound):
		return false, nil
	default:
		return false, mapRepoError(err)
	}
}

func mapRepoError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, persistence.ErrStateConflict):
		return fmt.Errorf("%w: %w", ErrInvalidTransition, err)
	case errors.Is(err, ErrPersistence):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	}
	return fmt.Errorf("%w: %w", ErrPersistence, err)
}
