package http

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/drivingschool/internal/application"
	"github.com/example/drivingschool/internal/civil"
	"github.com/example/drivingschool/internal/export"
)

const (
	msgAttendanceRecorded = "Asistencia registrada."
	msgAlreadyRegistered  = "Ya registró su asistencia a esta reunión."
	msgMeetingCancelled   = "La reunión fue cancelada; no se registró la asistencia."
)

type attendanceService interface {
	SubmitAttendance(ctx context.Context, params application.SubmitAttendanceParams) (application.AttendanceOutcome, error)
	ListAttendances(ctx context.Context, principal application.Principal, meetingID string) ([]application.Attendance, error)
	Attendees(ctx context.Context, principal application.Principal, meetingID string) (application.Meeting, []application.Attendee, error)
}

// AttendanceHandler serves attendance confirmation, listing and the roster export.
type AttendanceHandler struct {
	service   attendanceService
	responder responder
	logger    *slog.Logger
}

// NewAttendanceHandler constructs an AttendanceHandler. A nil logger falls back to slog.Default.
func NewAttendanceHandler(service attendanceService, logger *slog.Logger) *AttendanceHandler {
	base := defaultLogger(logger)
	return &AttendanceHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *AttendanceHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "AttendanceHandler", operation, attrs...)
}

func (h *AttendanceHandler) ready(w http.ResponseWriter) bool {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return false
	}
	return true
}

// Submit handles POST /attendances. Missing participant fields are taken from
// the authenticated principal.
func (h *AttendanceHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	ctx := r.Context()
	principal, _ := PrincipalFromContext(ctx)

	var req attendanceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.log(ctx, "Submit", "error_kind", "bad_request").WarnContext(ctx, "failed to decode attendance request", "error", err)
		h.responder.writeError(ctx, w, http.StatusBadRequest, msgBadRequestBody)
		return
	}

	participant := req.Participant.withDefaults(principal)
	logger := h.log(ctx, "Submit", "document_id", participant.DocumentID)

	outcome, err := h.service.SubmitAttendance(ctx, application.SubmitAttendanceParams{
		Token:       req.Token,
		Participant: participant,
	})
	if err != nil {
		logger.WarnContext(ctx, "attendance submission failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	resp := attendanceResponse{
		Status:    string(outcome.Status),
		MeetingID: outcome.Meeting.ID,
		Finalized: outcome.Finalized,
	}
	if outcome.Attendance != nil {
		dto := toAttendanceDTO(*outcome.Attendance)
		resp.Attendance = &dto
	}

	logger.With("meeting_id", outcome.Meeting.ID, "status", resp.Status).InfoContext(ctx, "attendance processed")
	switch outcome.Status {
	case application.AttendanceRecorded:
		h.responder.success(ctx, w, http.StatusCreated, msgAttendanceRecorded, resp)
	case application.AttendanceAlreadyRegistered:
		h.responder.warning(ctx, w, http.StatusOK, msgAlreadyRegistered, resp)
	case application.AttendanceMeetingCancelled:
		h.responder.warning(ctx, w, http.StatusOK, msgMeetingCancelled, resp)
	default:
		h.responder.writeError(ctx, w, http.StatusInternalServerError, msgInternal)
	}
}

// List handles GET /meetings/{id}/attendances.
func (h *AttendanceHandler) List(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	ctx := r.Context()
	principal, _ := PrincipalFromContext(ctx)
	meetingID := strings.TrimSpace(r.PathValue("id"))
	logger := h.log(ctx, "List", "principal_id", principal.DocumentID, "meeting_id", meetingID)

	attendances, err := h.service.ListAttendances(ctx, principal, meetingID)
	if err != nil {
		logger.WarnContext(ctx, "attendance list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	dtos := make([]attendanceDTO, 0, len(attendances))
	for _, a := range attendances {
		dtos = append(dtos, toAttendanceDTO(a))
	}
	logger.With("result_count", len(dtos)).InfoContext(ctx, "attendances listed")
	h.responder.success(ctx, w, http.StatusOK, "Asistencias consultadas.", dtos)
}

// Export handles GET /meetings/{id}/attendees-export.
func (h *AttendanceHandler) Export(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	ctx := r.Context()
	principal, _ := PrincipalFromContext(ctx)
	meetingID := strings.TrimSpace(r.PathValue("id"))
	logger := h.log(ctx, "Export", "principal_id", principal.DocumentID, "meeting_id", meetingID)

	meeting, attendees, err := h.service.Attendees(ctx, principal, meetingID)
	if err != nil {
		logger.WarnContext(ctx, "attendee export failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	// Render into a buffer so a failure can still produce a JSON error.
	var buf bytes.Buffer
	if err := export.WriteAttendees(&buf, toRoster(meeting, attendees)); err != nil {
		logger.ErrorContext(ctx, "failed to render attendee workbook", "error", err)
		h.responder.writeError(ctx, w, http.StatusInternalServerError, msgInternal)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="asistentes-%s-%s.xlsx"`, meeting.Date, meeting.ID))
	w.Header().Set("Content-Length", fmt.Sprint(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		logger.WarnContext(ctx, "failed to stream attendee workbook", "error", err)
		return
	}
	logger.With("result_count", len(attendees)).InfoContext(ctx, "attendees exported")
}

var roleLabels = map[application.Role]string{
	application.RoleAdmin:          "Administrador",
	application.RoleAdministrative: "Administrativo",
	application.RoleInstructor:     "Instructor",
}

func toRoster(meeting application.Meeting, attendees []application.Attendee) export.Roster {
	roster := export.Roster{
		Title: fmt.Sprintf("%s: %s", meeting.Type.Label(), meeting.Description),
		Date:  fmt.Sprintf("%s %s-%s", meeting.Date, meeting.StartTime, meeting.EndTime),
		Rows:  make([]export.AttendeeRow, 0, len(attendees)),
	}
	for _, a := range attendees {
		role, ok := roleLabels[a.ParticipantRole]
		if !ok {
			role = string(a.ParticipantRole)
		}
		roster.Rows = append(roster.Rows, export.AttendeeRow{
			DocumentID:  a.DocumentID,
			Name:        a.ParticipantName,
			Role:        role,
			Email:       a.Email,
			ConfirmedAt: civil.FormatDateTime(a.ConfirmedAt),
		})
	}
	return roster
}

type participantRequest struct {
	DocumentID string `json:"document_id"`
	Name       string `json:"name"`
	Role       string `json:"role"`
}

func (p participantRequest) withDefaults(principal application.Principal) application.ParticipantInput {
	in := application.ParticipantInput(p)
	if strings.TrimSpace(in.DocumentID) == "" {
		in.DocumentID = principal.DocumentID
	}
	if strings.TrimSpace(in.Name) == "" {
		in.Name = principal.Name
	}
	if strings.TrimSpace(in.Role) == "" {
		in.Role = string(principal.Role)
	}
	return in
}

type attendanceRequest struct {
	Token       string             `json:"token"`
	Participant participantRequest `json:"participant"`
}

type attendanceDTO struct {
	ID          string `json:"id"`
	MeetingID   string `json:"meeting_id"`
	DocumentID  string `json:"document_id"`
	Name        string `json:"name"`
	Role        string `json:"role"`
	ConfirmedAt string `json:"confirmed_at"`
}

type attendanceResponse struct {
	Status     string         `json:"status"`
	MeetingID  string         `json:"meeting_id"`
	Attendance *attendanceDTO `json:"attendance"`
	Finalized  bool           `json:"finalized"`
}

func toAttendanceDTO(a application.Attendance) attendanceDTO {
	return attendanceDTO{
		ID:          a.ID,
		MeetingID:   a.MeetingID,
		DocumentID:  a.DocumentID,
		Name:        a.ParticipantName,
		Role:        string(a.ParticipantRole),
		ConfirmedAt: civil.FormatDateTime(a.ConfirmedAt),
	}
}
