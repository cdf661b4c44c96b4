package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/example/drivingschool/internal/application"
	"github.com/example/drivingschool/internal/civil"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

type meetingService interface {
	CreateMeeting(ctx context.Context, params application.CreateMeetingParams) (application.CreateMeetingResult, error)
	CancelMeeting(ctx context.Context, params application.CancelMeetingParams) (application.CancelMeetingResult, error)
	ListMeetings(ctx context.Context, limit int) ([]application.Meeting, error)
	GetMeeting(ctx context.Context, id string) (application.Meeting, error)
	GetMeetingByToken(ctx context.Context, token string) (application.Meeting, error)
	ActiveMeeting(ctx context.Context) (*application.Meeting, error)
}

// MeetingHandler serves the meeting resources.
type MeetingHandler struct {
	service   meetingService
	links     func(token string) string
	responder responder
	logger    *slog.Logger
}

// NewMeetingHandler constructs a meeting handler. links, when non-nil, renders
// the attendance link included in meeting payloads.
func NewMeetingHandler(service meetingService, links func(token string) string, logger *slog.Logger) *MeetingHandler {
	base := defaultLogger(logger)
	return &MeetingHandler{service: service, links: links, responder: newResponder(base), logger: base}
}

func (h *MeetingHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "MeetingHandler", operation, attrs...)
}

func (h *MeetingHandler) ready(w http.ResponseWriter) bool {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return false
	}
	return true
}

// Create handles POST /meetings.
func (h *MeetingHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	ctx := r.Context()
	principal, _ := PrincipalFromContext(ctx)

	var req meetingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.log(ctx, "Create", "principal_id", principal.DocumentID, "error_kind", "bad_request").WarnContext(ctx, "failed to decode meeting request", "error", err)
		h.responder.writeError(ctx, w, http.StatusBadRequest, msgBadRequestBody)
		return
	}

	logger := h.log(ctx, "Create", "principal_id", principal.DocumentID)
	result, err := h.service.CreateMeeting(ctx, application.CreateMeetingParams{
		Principal: principal,
		Input:     application.MeetingInput(req),
	})
	if err != nil {
		logger.WarnContext(ctx, "meeting creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	logger.With("meeting_id", result.Meeting.ID, "sent", result.Notifications.Sent, "failed", result.Notifications.Failed).
		InfoContext(ctx, "meeting created")
	h.responder.success(ctx, w, http.StatusCreated, "Reunión creada y convocatoria enviada.", createMeetingResponse{
		Meeting:       h.toDTO(result.Meeting),
		Notifications: toNotificationDTO(result.Notifications),
	})
}

// List handles GET /meetings.
func (h *MeetingHandler) List(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	ctx := r.Context()

	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			h.responder.writeValidation(ctx, w, map[string]string{"limit": "el límite debe ser un entero positivo"})
			return
		}
		limit = n
	}

	logger := h.log(ctx, "List", "limit", limit)
	meetings, err := h.service.ListMeetings(ctx, limit)
	if err != nil {
		logger.WarnContext(ctx, "meeting list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	logger.With("result_count", len(meetings)).InfoContext(ctx, "meetings listed")
	h.responder.success(ctx, w, http.StatusOK, "Reuniones consultadas.", h.toDTOs(meetings))
}

// Active handles GET /meetings/active.
func (h *MeetingHandler) Active(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	ctx := r.Context()

	active, err := h.service.ActiveMeeting(ctx)
	if err != nil {
		h.log(ctx, "Active").WarnContext(ctx, "active meeting lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(ctx, w, err)
		return
	}
	if active == nil {
		h.responder.success(ctx, w, http.StatusOK, "No hay reuniones en curso.", nil)
		return
	}
	h.responder.success(ctx, w, http.StatusOK, "Hay una reunión en curso.", h.toDTO(*active))
}

// Get handles GET /meetings/{id}.
func (h *MeetingHandler) Get(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	ctx := r.Context()
	id := strings.TrimSpace(r.PathValue("id"))

	meeting, err := h.service.GetMeeting(ctx, id)
	if err != nil {
		h.log(ctx, "Get", "meeting_id", id).WarnContext(ctx, "meeting lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(ctx, w, err)
		return
	}
	h.responder.success(ctx, w, http.StatusOK, "Reunión consultada.", h.toDTO(meeting))
}

// UpdateState handles PATCH /meetings/{id}/state. Only cancellation is accepted.
func (h *MeetingHandler) UpdateState(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	ctx := r.Context()
	id := strings.TrimSpace(r.PathValue("id"))
	principal, _ := PrincipalFromContext(ctx)
	logger := h.log(ctx, "UpdateState", "principal_id", principal.DocumentID, "meeting_id", id)

	var req stateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		logger.WarnContext(ctx, "failed to decode state request", "error", err, "error_kind", "bad_request")
		h.responder.writeError(ctx, w, http.StatusBadRequest, msgBadRequestBody)
		return
	}
	if application.MeetingState(strings.TrimSpace(req.State)) != application.MeetingStateCancelled {
		h.responder.writeValidation(ctx, w, map[string]string{"state": "solo se admite el estado cancelled"})
		return
	}

	result, err := h.service.CancelMeeting(ctx, application.CancelMeetingParams{Principal: principal, MeetingID: id})
	if err != nil {
		logger.WarnContext(ctx, "meeting cancellation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	logger.With("sent", result.Notifications.Sent, "failed", result.Notifications.Failed).InfoContext(ctx, "meeting cancelled")
	h.responder.success(ctx, w, http.StatusOK, "Reunión cancelada y aviso enviado.", createMeetingResponse{
		Meeting:       h.toDTO(result.Meeting),
		Notifications: toNotificationDTO(result.Notifications),
	})
}

// ResolveLink handles GET /attendance-links/{token}.
func (h *MeetingHandler) ResolveLink(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	ctx := r.Context()
	token := strings.TrimSpace(r.PathValue("token"))

	meeting, err := h.service.GetMeetingByToken(ctx, token)
	if err != nil {
		h.log(ctx, "ResolveLink").WarnContext(ctx, "attendance link lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(ctx, w, err)
		return
	}
	if meeting.State == application.MeetingStateCancelled {
		h.responder.warning(ctx, w, http.StatusOK, msgMeetingCancelled, h.toDTO(meeting))
		return
	}
	h.responder.success(ctx, w, http.StatusOK, "Enlace de asistencia válido.", h.toDTO(meeting))
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// meetingRequest mirrors application.MeetingInput field for field.
type meetingRequest struct {
	Type        string  `json:"type"`
	Description string  `json:"description"`
	Date        string  `json:"date"`
	StartTime   string  `json:"start_time"`
	EndTime     string  `json:"end_time"`
	Modality    string  `json:"modality"`
	Responsible *string `json:"responsible"`
	Audience    string  `json:"audience"`
	Location    *string `json:"location"`
}

type stateRequest struct {
	State string `json:"state"`
}

type meetingDTO struct {
	ID              string  `json:"id"`
	Type            string  `json:"type"`
	TypeLabel       string  `json:"type_label"`
	Description     string  `json:"description"`
	Date            string  `json:"date"`
	StartTime       string  `json:"start_time"`
	EndTime         string  `json:"end_time"`
	Modality        string  `json:"modality"`
	Responsible     *string `json:"responsible"`
	Audience        string  `json:"audience"`
	Location        *string `json:"location"`
	CreatorID       string  `json:"creator_id"`
	State           string  `json:"state"`
	AttendanceToken string  `json:"attendance_token"`
	AttendanceLink  string  `json:"attendance_link,omitempty"`
	CreatedAt       string  `json:"created_at"`
}

type notificationFailureDTO struct {
	DocumentID string `json:"document_id"`
	Email      string `json:"email"`
	Error      string `json:"error"`
}

type notificationDTO struct {
	Recipients               int                      `json:"recipients"`
	Sent                     int                      `json:"sent"`
	Failed                   int                      `json:"failed"`
	Skipped                  int                      `json:"skipped"`
	Failures                 []notificationFailureDTO `json:"failures,omitempty"`
	DistributionListNotified bool                     `json:"distribution_list_notified"`
}

type createMeetingResponse struct {
	Meeting       meetingDTO      `json:"meeting"`
	Notifications notificationDTO `json:"notifications"`
}

func (h *MeetingHandler) toDTO(m application.Meeting) meetingDTO {
	dto := meetingDTO{
		ID:              m.ID,
		Type:            string(m.Type),
		TypeLabel:       m.Type.Label(),
		Description:     m.Description,
		Date:            m.Date.String(),
		StartTime:       m.StartTime.String(),
		EndTime:         m.EndTime.String(),
		Modality:        string(m.Modality),
		Responsible:     m.Responsible,
		Audience:        string(m.Audience),
		Location:        m.Location,
		CreatorID:       m.CreatorID,
		State:           string(m.State),
		AttendanceToken: m.AttendanceToken,
		CreatedAt:       m.CreatedAt.In(civil.Zone).Format(time.RFC3339),
	}
	if h.links != nil && m.State == application.MeetingStateScheduled {
		dto.AttendanceLink = h.links(m.AttendanceToken)
	}
	return dto
}

func (h *MeetingHandler) toDTOs(meetings []application.Meeting) []meetingDTO {
	out := make([]meetingDTO, 0, len(meetings))
	for _, m := range meetings {
		out = append(out, h.toDTO(m))
	}
	return out
}

func toNotificationDTO(report application.NotificationReport) notificationDTO {
	dto := notificationDTO{
		Recipients:               report.Recipients,
		Sent:                     report.Sent,
		Failed:                   report.Failed,
		Skipped:                  report.Skipped,
		DistributionListNotified: report.DistributionListNotified,
	}
	for _, f := range report.Failures {
		dto.Failures = append(dto.Failures, notificationFailureDTO(f))
	}
	return dto
}
