package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/example/drivingschool/internal/persistence"
)

// AttendanceService accepts attendance confirmations and exposes meeting rosters.
type AttendanceService struct {
	meetings    MeetingRepository
	attendances AttendanceRepository
	directory   ParticipantDirectory
	finalizer   finalizer
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewAttendanceService constructs an attendance service with the provided dependencies.
func NewAttendanceService(meetings MeetingRepository, attendances AttendanceRepository, directory ParticipantDirectory, idGenerator func() string, now func() time.Time) *AttendanceService {
	return NewAttendanceServiceWithLogger(meetings, attendances, directory, idGenerator, now, nil)
}

// NewAttendanceServiceWithLogger constructs an attendance service with a specified logger.
func NewAttendanceServiceWithLogger(meetings MeetingRepository, attendances AttendanceRepository, directory ParticipantDirectory, idGenerator func() string, now func() time.Time, logger *slog.Logger) *AttendanceService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &AttendanceService{
		meetings:    meetings,
		attendances: attendances,
		directory:   directory,
		finalizer:   finalizer{meetings: meetings, attendances: attendances},
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *AttendanceService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AttendanceService", operation, attrs...)
}

// SubmitAttendance records a participant's confirmation for the meeting behind
// an attendance link. Cancelled meetings and repeated confirmations yield a
// warning outcome rather than an error.
func (s *AttendanceService) SubmitAttendance(ctx context.Context, params SubmitAttendanceParams) (outcome AttendanceOutcome, err error) {
	if s == nil {
		err = fmt.Errorf("AttendanceService is nil")
		return
	}

	ctx, span := startSpan(ctx, "AttendanceService.SubmitAttendance")
	logger := s.loggerWith(ctx, "SubmitAttendance",
		"document_id", params.Participant.DocumentID,
	)
	defer func() {
		endSpan(span, err)
		if err != nil {
			logger.ErrorContext(ctx, "failed to submit attendance", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With(
			"meeting_id", outcome.Meeting.ID,
			"status", string(outcome.Status),
			"finalized", outcome.Finalized,
		).InfoContext(ctx, "attendance processed")
	}()

	token, tokenErr := validateAttendanceToken(params.Token)
	participant, vErr := validateParticipantInput(params.Participant)
	vErr.merge(tokenErr)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	if s.meetings == nil || s.attendances == nil {
		err = fmt.Errorf("attendance repositories not configured")
		return
	}

	var meeting Meeting
	meeting, err = s.meetings.GetMeetingByToken(ctx, token)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	outcome.Meeting = meeting
	span.SetAttributes(attribute.String("meeting.id", meeting.ID))

	if meeting.State == MeetingStateCancelled {
		outcome.Status = AttendanceMeetingCancelled
		return
	}

	var exists bool
	exists, err = s.attendances.AttendanceExists(ctx, meeting.ID, participant.DocumentID)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	if exists {
		outcome.Status = AttendanceAlreadyRegistered
		return
	}

	now := s.now()
	attendance := Attendance{
		ID:              s.idGenerator(),
		MeetingID:       meeting.ID,
		DocumentID:      participant.DocumentID,
		ParticipantName: participant.Name,
		ParticipantRole: Role(participant.Role),
		ConfirmedAt:     now,
	}
	if err = s.attendances.CreateAttendance(ctx, attendance); err != nil {
		// The unique index caught a concurrent confirmation.
		if errors.Is(err, persistence.ErrDuplicate) {
			err = nil
			outcome.Status = AttendanceAlreadyRegistered
			return
		}
		err = mapRepoError(err)
		return
	}
	outcome.Status = AttendanceRecorded
	outcome.Attendance = &attendance

	finalized, ferr := s.finalizer.finalize(ctx, meeting, now)
	if ferr != nil {
		logger.WarnContext(ctx, "failed to finalize meeting after attendance", "error", ferr, "error_kind", ErrorKind(ferr))
		return
	}
	if finalized {
		outcome.Finalized = true
		outcome.Meeting.State = MeetingStateExecuted
	}
	return
}

// ListAttendances returns a meeting's confirmations ordered by confirmation time.
func (s *AttendanceService) ListAttendances(ctx context.Context, principal Principal, meetingID string) (attendances []Attendance, err error) {
	if s == nil {
		err = fmt.Errorf("AttendanceService is nil")
		return
	}

	logger := s.loggerWith(ctx, "ListAttendances",
		"principal_id", principal.DocumentID,
		"meeting_id", meetingID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list attendances", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	if !principal.CanManageMeetings() {
		err = ErrUnauthorized
		return
	}
	if s.meetings == nil || s.attendances == nil {
		err = fmt.Errorf("attendance repositories not configured")
		return
	}

	if _, err = s.meetings.GetMeeting(ctx, meetingID); err != nil {
		err = mapRepoError(err)
		return
	}

	attendances, err = s.attendances.ListAttendances(ctx, meetingID)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	return
}

// Attendees returns the meeting together with its attendances enriched with
// directory emails. Attendees missing from the directory keep an empty email.
func (s *AttendanceService) Attendees(ctx context.Context, principal Principal, meetingID string) (meeting Meeting, attendees []Attendee, err error) {
	if s == nil {
		err = fmt.Errorf("AttendanceService is nil")
		return
	}

	ctx, span := startSpan(ctx, "AttendanceService.Attendees", attribute.String("meeting.id", meetingID))
	logger := s.loggerWith(ctx, "Attendees",
		"principal_id", principal.DocumentID,
		"meeting_id", meetingID,
	)
	defer func() {
		endSpan(span, err)
		if err != nil {
			logger.ErrorContext(ctx, "failed to load attendees", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	if !principal.CanManageMeetings() {
		err = ErrUnauthorized
		return
	}
	if s.meetings == nil || s.attendances == nil {
		err = fmt.Errorf("attendance repositories not configured")
		return
	}

	meeting, err = s.meetings.GetMeeting(ctx, meetingID)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	var attendances []Attendance
	attendances, err = s.attendances.ListAttendances(ctx, meetingID)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	emails := make(map[string]string, len(attendances))
	if s.directory != nil && len(attendances) > 0 {
		ids := make([]string, 0, len(attendances))
		for _, a := range attendances {
			ids = append(ids, a.DocumentID)
		}
		var participants []Participant
		participants, err = s.directory.ListParticipantsByDocumentIDs(ctx, ids)
		if err != nil {
			err = mapRepoError(err)
			return
		}
		for _, p := range participants {
			emails[p.DocumentID] = p.Email
		}
	}

	attendees = make([]Attendee, 0, len(attendances))
	for _, a := range attendances {
		attendees = append(attendees, Attendee{Attendance: a, Email: emails[a.DocumentID]})
	}
	return
}
