package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/example/drivingschool/internal/application"
	"github.com/example/drivingschool/internal/civil"
)

var (
	testAdmin      = application.Principal{DocumentID: "900", Name: "Directora", Role: application.RoleAdmin}
	testInstructor = application.Principal{DocumentID: "100", Name: "Ana", Role: application.RoleInstructor}
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// asPrincipal stands in for Authenticate in handler tests.
func asPrincipal(p application.Principal) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), p)))
		})
	}
}

type decodedEnvelope struct {
	Level   Level             `json:"level"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

func serve(t *testing.T, handler http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) decodedEnvelope {
	t.Helper()
	var env decodedEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("failed to decode envelope %q: %v", rec.Body.String(), err)
	}
	return env
}

func sampleMeeting(id string) application.Meeting {
	date, _ := civil.ParseDate("2024-05-15")
	start, _ := civil.ParseTimeOfDay("09:00")
	end, _ := civil.ParseTimeOfDay("10:00")
	return application.Meeting{
		ID:              id,
		Type:            application.MeetingTypeTraining,
		Description:     "Manejo defensivo",
		Date:            date,
		StartTime:       start,
		EndTime:         end,
		Modality:        application.ModalityInPerson,
		Audience:        application.AudienceEveryone,
		CreatorID:       testAdmin.DocumentID,
		AttendanceToken: "token-" + id,
		State:           application.MeetingStateScheduled,
		CreatedAt:       time.Date(2024, time.May, 14, 8, 0, 0, 0, civil.Zone),
	}
}

type meetingServiceStub struct {
	create     func(ctx context.Context, params application.CreateMeetingParams) (application.CreateMeetingResult, error)
	cancel     func(ctx context.Context, params application.CancelMeetingParams) (application.CancelMeetingResult, error)
	list       func(ctx context.Context, limit int) ([]application.Meeting, error)
	get        func(ctx context.Context, id string) (application.Meeting, error)
	getByToken func(ctx context.Context, token string) (application.Meeting, error)
	active     func(ctx context.Context) (*application.Meeting, error)
}

func (s *meetingServiceStub) CreateMeeting(ctx context.Context, params application.CreateMeetingParams) (application.CreateMeetingResult, error) {
	return s.create(ctx, params)
}

func (s *meetingServiceStub) CancelMeeting(ctx context.Context, params application.CancelMeetingParams) (application.CancelMeetingResult, error) {
	return s.cancel(ctx, params)
}

func (s *meetingServiceStub) ListMeetings(ctx context.Context, limit int) ([]application.Meeting, error) {
	return s.list(ctx, limit)
}

func (s *meetingServiceStub) GetMeeting(ctx context.Context, id string) (application.Meeting, error) {
	return s.get(ctx, id)
}

func (s *meetingServiceStub) GetMeetingByToken(ctx context.Context, token string) (application.Meeting, error) {
	return s.getByToken(ctx, token)
}

func (s *meetingServiceStub) ActiveMeeting(ctx context.Context) (*application.Meeting, error) {
	return s.active(ctx)
}

type attendanceServiceStub struct {
	submit    func(ctx context.Context, params application.SubmitAttendanceParams) (application.AttendanceOutcome, error)
	list      func(ctx context.Context, principal application.Principal, meetingID string) ([]application.Attendance, error)
	attendees func(ctx context.Context, principal application.Principal, meetingID string) (application.Meeting, []application.Attendee, error)
}

func (s *attendanceServiceStub) SubmitAttendance(ctx context.Context, params application.SubmitAttendanceParams) (application.AttendanceOutcome, error) {
	return s.submit(ctx, params)
}

func (s *attendanceServiceStub) ListAttendances(ctx context.Context, principal application.Principal, meetingID string) ([]application.Attendance, error) {
	return s.list(ctx, principal, meetingID)
}

func (s *attendanceServiceStub) Attendees(ctx context.Context, principal application.Principal, meetingID string) (application.Meeting, []application.Attendee, error) {
	return s.attendees(ctx, principal, meetingID)
}
