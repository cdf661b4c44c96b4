package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/example/drivingschool/internal/civil"
)

const (
	// DefaultListLimit is used when a listing does not specify a limit.
	DefaultListLimit = 50
	// MaxListLimit caps listing sizes.
	MaxListLimit = 500
)

// MeetingNotifier sends the emails triggered by meeting lifecycle changes.
type MeetingNotifier interface {
	MeetingScheduled(ctx context.Context, meeting Meeting) NotificationReport
	MeetingCancelled(ctx context.Context, meeting Meeting) NotificationReport
}

// MeetingService owns creation, cancellation, listing and the expiry sweep of meetings.
type MeetingService struct {
	meetings    MeetingRepository
	attendances AttendanceRepository
	notifier    MeetingNotifier
	finalizer   finalizer
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewMeetingService constructs a meeting service with the provided dependencies.
func NewMeetingService(meetings MeetingRepository, attendances AttendanceRepository, notifier MeetingNotifier, idGenerator func() string, now func() time.Time) *MeetingService {
	return NewMeetingServiceWithLogger(meetings, attendances, notifier, idGenerator, now, nil)
}

// NewMeetingServiceWithLogger constructs a meeting service with a specified logger.
func NewMeetingServiceWithLogger(meetings MeetingRepository, attendances AttendanceRepository, notifier MeetingNotifier, idGenerator func() string, now func() time.Time, logger *slog.Logger) *MeetingService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &MeetingService{
		meetings:    meetings,
		attendances: attendances,
		notifier:    notifier,
		finalizer:   finalizer{meetings: meetings, attendances: attendances},
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *MeetingService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "MeetingService", operation, attrs...)
}

// CreateMeeting validates input, persists a scheduled meeting and notifies its audience.
func (s *MeetingService) CreateMeeting(ctx context.Context, params CreateMeetingParams) (result CreateMeetingResult, err error) {
	if s == nil {
		err = fmt.Errorf("MeetingService is nil")
		return
	}

	ctx, span := startSpan(ctx, "MeetingService.CreateMeeting")
	logger := s.loggerWith(ctx, "CreateMeeting",
		"principal_id", params.Principal.DocumentID,
	)
	defer func() {
		endSpan(span, err)
		if err != nil {
			logger.ErrorContext(ctx, "failed to create meeting", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With(
			"meeting_id", result.Meeting.ID,
			"notified", result.Notifications.Sent,
			"notification_failures", result.Notifications.Failed,
		).InfoContext(ctx, "meeting created")
	}()

	if !params.Principal.CanManageMeetings() {
		err = ErrUnauthorized
		return
	}

	input, date, start, end, vErr := validateMeetingInput(params.Input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	if s.meetings == nil {
		err = fmt.Errorf("meeting repository not configured")
		return
	}

	meeting := Meeting{
		ID:              s.idGenerator(),
		Type:            MeetingType(input.Type),
		Description:     input.Description,
		Date:            date,
		StartTime:       start,
		EndTime:         end,
		Modality:        ModalityInPerson,
		Responsible:     input.Responsible,
		Audience:        AudienceEveryone,
		Location:        input.Location,
		CreatorID:       params.Principal.DocumentID,
		AttendanceToken: s.idGenerator(),
		State:           MeetingStateScheduled,
		CreatedAt:       s.now(),
	}
	if input.Modality != "" {
		meeting.Modality = Modality(input.Modality)
	}
	if input.Audience != "" {
		meeting.Audience = Audience(input.Audience)
	}
	span.SetAttributes(attribute.String("meeting.id", meeting.ID))

	if err = s.meetings.CreateMeeting(ctx, meeting); err != nil {
		err = mapRepoError(err)
		return
	}

	result.Meeting = meeting
	if s.notifier != nil {
		result.Notifications = s.notifier.MeetingScheduled(ctx, meeting)
	}
	return
}

// CancelMeeting moves a scheduled meeting to cancelled and notifies its audience.
// A meeting that already finished with recorded attendance is finalized
// instead and reported as ErrInvalidTransition.
func (s *MeetingService) CancelMeeting(ctx context.Context, params CancelMeetingParams) (result CancelMeetingResult, err error) {
	if s == nil {
		err = fmt.Errorf("MeetingService is nil")
		return
	}

	ctx, span := startSpan(ctx, "MeetingService.CancelMeeting", attribute.String("meeting.id", params.MeetingID))
	logger := s.loggerWith(ctx, "CancelMeeting",
		"principal_id", params.Principal.DocumentID,
		"meeting_id", params.MeetingID,
	)
	defer func() {
		endSpan(span, err)
		if err != nil {
			logger.ErrorContext(ctx, "failed to cancel meeting", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With(
			"notified", result.Notifications.Sent,
			"notification_failures", result.Notifications.Failed,
		).InfoContext(ctx, "meeting cancelled")
	}()

	if !params.Principal.CanManageMeetings() {
		err = ErrUnauthorized
		return
	}
	if s.meetings == nil {
		err = fmt.Errorf("meeting repository not configured")
		return
	}

	var meeting Meeting
	meeting, err = s.meetings.GetMeeting(ctx, params.MeetingID)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	if meeting.State != MeetingStateScheduled {
		err = fmt.Errorf("%w: meeting is %s", ErrInvalidTransition, meeting.State)
		return
	}

	var finalized bool
	finalized, err = s.finalizer.finalize(ctx, meeting, s.now())
	if err != nil {
		return
	}
	if finalized {
		err = fmt.Errorf("%w: meeting is %s", ErrInvalidTransition, MeetingStateExecuted)
		return
	}

	if err = s.meetings.UpdateMeetingState(ctx, meeting.ID, MeetingStateScheduled, MeetingStateCancelled); err != nil {
		err = mapRepoError(err)
		return
	}
	meeting.State = MeetingStateCancelled

	result.Meeting = meeting
	if s.notifier != nil {
		result.Notifications = s.notifier.MeetingCancelled(ctx, meeting)
	}
	return
}

// SweepExpired promotes every finished scheduled meeting with at least one
// attendance to executed. Meetings without attendance stay scheduled.
// Failures on one meeting do not stop the pass; they are joined into err.
func (s *MeetingService) SweepExpired(ctx context.Context) (result SweepResult, err error) {
	if s == nil {
		err = fmt.Errorf("MeetingService is nil")
		return
	}
	if s.meetings == nil {
		err = fmt.Errorf("meeting repository not configured")
		return
	}

	ctx, span := startSpan(ctx, "MeetingService.SweepExpired")
	logger := s.loggerWith(ctx, "SweepExpired")
	defer func() {
		endSpan(span, err)
		if err != nil {
			logger.ErrorContext(ctx, "expiry sweep failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		if len(result.Finalized) > 0 {
			logger.InfoContext(ctx, "meetings finalized", "examined", result.Examined, "finalized", result.Finalized)
		}
	}()

	now := s.now()
	today := civil.DateOf(now)

	var candidates []Meeting
	candidates, err = s.meetings.ListMeetings(ctx, MeetingFilter{
		State:          MeetingStateScheduled,
		DateOnOrBefore: &today,
		OrderByStart:   true,
	})
	if err != nil {
		err = mapRepoError(err)
		return
	}

	var errs []error
	for _, meeting := range candidates {
		result.Examined++
		finalized, ferr := s.finalizer.finalize(ctx, meeting, now)
		if ferr != nil {
			errs = append(errs, fmt.Errorf("meeting %s: %w", meeting.ID, ferr))
			continue
		}
		if finalized {
			result.Finalized = append(result.Finalized, meeting.ID)
		}
	}
	err = errors.Join(errs...)
	return
}

// sweepBeforeRead runs the expiry sweep ahead of a read. A failed sweep does
// not block the read.
func (s *MeetingService) sweepBeforeRead(ctx context.Context) {
	_, _ = s.SweepExpired(ctx)
}

// ListMeetings returns the most recently created meetings, newest first.
func (s *MeetingService) ListMeetings(ctx context.Context, limit int) (meetings []Meeting, err error) {
	if s == nil {
		err = fmt.Errorf("MeetingService is nil")
		return
	}
	if s.meetings == nil {
		err = fmt.Errorf("meeting repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "ListMeetings", "limit", limit)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list meetings", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	s.sweepBeforeRead(ctx)

	meetings, err = s.meetings.ListMeetings(ctx, MeetingFilter{Limit: clampLimit(limit)})
	if err != nil {
		err = mapRepoError(err)
		return
	}
	return
}

// GetMeeting returns a meeting by id, finalizing it first when it is due.
func (s *MeetingService) GetMeeting(ctx context.Context, id string) (Meeting, error) {
	if s == nil || s.meetings == nil {
		return Meeting{}, fmt.Errorf("meeting repository not configured")
	}
	meeting, err := s.meetings.GetMeeting(ctx, id)
	if err != nil {
		return Meeting{}, mapRepoError(err)
	}
	return s.refresh(ctx, meeting), nil
}

// GetMeetingByToken resolves an attendance link to its meeting.
func (s *MeetingService) GetMeetingByToken(ctx context.Context, token string) (Meeting, error) {
	if s == nil || s.meetings == nil {
		return Meeting{}, fmt.Errorf("meeting repository not configured")
	}
	meeting, err := s.meetings.GetMeetingByToken(ctx, token)
	if err != nil {
		return Meeting{}, mapRepoError(err)
	}
	return s.refresh(ctx, meeting), nil
}

func (s *MeetingService) refresh(ctx context.Context, meeting Meeting) Meeting {
	finalized, err := s.finalizer.finalize(ctx, meeting, s.now())
	if err != nil {
		s.loggerWith(ctx, "Finalize", "meeting_id", meeting.ID).
			WarnContext(ctx, "failed to finalize meeting", "error", err, "error_kind", ErrorKind(err))
		return meeting
	}
	if finalized {
		meeting.State = MeetingStateExecuted
	}
	return meeting
}

// ActiveMeeting returns today's scheduled meeting in progress, or nil when there is none.
func (s *MeetingService) ActiveMeeting(ctx context.Context) (active *Meeting, err error) {
	if s == nil {
		err = fmt.Errorf("MeetingService is nil")
		return
	}
	if s.meetings == nil {
		err = fmt.Errorf("meeting repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "ActiveMeeting")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to resolve active meeting", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	s.sweepBeforeRead(ctx)

	now := s.now()
	today := civil.DateOf(now)

	var meetings []Meeting
	meetings, err = s.meetings.ListMeetings(ctx, MeetingFilter{
		State:        MeetingStateScheduled,
		Date:         &today,
		OrderByStart: true,
	})
	if err != nil {
		err = mapRepoError(err)
		return
	}

	for i := range meetings {
		if meetings[i].InProgress(now) {
			active = &meetings[i]
			return
		}
	}
	return
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultListLimit
	case limit > MaxListLimit:
		return MaxListLimit
	default:
		return limit
	}
}
