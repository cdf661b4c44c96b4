package application

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"log/slog"
	"net/mail"
	"net/url"
	"strings"
	texttemplate "text/template"

	"github.com/example/drivingschool/internal/mailer"
)

//go:embed templates/*.txt templates/*.html
var templateFiles embed.FS

var (
	textTemplates = texttemplate.Must(texttemplate.ParseFS(templateFiles, "templates/*.txt"))
	htmlTemplates = htmltemplate.Must(htmltemplate.ParseFS(templateFiles, "templates/*.html"))
)

// NotificationFailure records one recipient that could not be notified.
type NotificationFailure struct {
	DocumentID string
	Email      string
	Error      string
}

// NotificationReport collects the outcome of a best-effort notification fan-out.
// Failures are recorded here and never returned as errors.
type NotificationReport struct {
	Recipients int
	Sent       int
	Failed     int
	// Skipped counts recipients without an email address.
	Skipped                  int
	Failures                 []NotificationFailure
	DistributionListNotified bool
	// ResolveError is set when the audience could not be loaded from the directory.
	ResolveError string
}

// NotifierConfig configures the notification fan-out.
type NotifierConfig struct {
	// DistributionList receives the aggregate and cancellation notices. Empty disables them.
	DistributionList []mail.Address
	// AttendanceBaseURL prefixes the attendance token in notification links.
	AttendanceBaseURL string
}

// Notifier emails a meeting's audience about lifecycle changes.
type Notifier struct {
	directory ParticipantDirectory
	sender    mailer.Sender
	config    NotifierConfig
	logger    *slog.Logger
}

// NewNotifier constructs a notifier that resolves recipients from directory and sends through sender.
func NewNotifier(directory ParticipantDirectory, sender mailer.Sender, config NotifierConfig, logger *slog.Logger) *Notifier {
	return &Notifier{directory: directory, sender: sender, config: config, logger: defaultLogger(logger)}
}

type meetingView struct {
	TypeLabel     string
	Description   string
	Date          string
	StartTime     string
	EndTime       string
	ModalityLabel string
	AudienceLabel string
	Location      string
	Responsible   string
}

type notificationData struct {
	Recipient Participant
	Meeting   meetingView
	Link      string
	Notified  []Participant
}

var audienceLabels = map[Audience]string{
	AudienceEveryone:       "Todo el personal",
	AudienceInstructors:    "Instructores",
	AudienceAdministrative: "Personal administrativo",
}

func newMeetingView(m Meeting) meetingView {
	view := meetingView{
		TypeLabel:     m.Type.Label(),
		Description:   m.Description,
		Date:          m.Date.String(),
		StartTime:     m.StartTime.String(),
		EndTime:       m.EndTime.String(),
		ModalityLabel: m.Modality.Label(),
		AudienceLabel: audienceLabels[m.Audience],
	}
	if m.Location != nil {
		view.Location = *m.Location
	}
	if m.Responsible != nil {
		view.Responsible = *m.Responsible
	}
	return view
}

// AttendanceLink returns the URL participants follow to confirm attendance.
func (n *Notifier) AttendanceLink(token string) string {
	if n == nil || n.config.AttendanceBaseURL == "" || token == "" {
		return ""
	}
	return strings.TrimRight(n.config.AttendanceBaseURL, "/") + "/" + url.PathEscape(token)
}

// MeetingScheduled emails every audience member and then sends the distribution
// list a summary of who was notified.
func (n *Notifier) MeetingScheduled(ctx context.Context, meeting Meeting) NotificationReport {
	subject := fmt.Sprintf("Nueva %s: %s (%s)", strings.ToLower(meeting.Type.Label()), meeting.Description, meeting.Date)
	report, notified := n.fanOut(ctx, meeting, "scheduled", subject)

	data := notificationData{Meeting: newMeetingView(meeting), Notified: notified}
	report.DistributionListNotified = n.notifyDistributionList(ctx, meeting, "summary", "Resumen de notificación: "+meeting.Description, data)
	return report
}

// MeetingCancelled emails every audience member and the distribution list a cancellation notice.
func (n *Notifier) MeetingCancelled(ctx context.Context, meeting Meeting) NotificationReport {
	subject := fmt.Sprintf("Cancelada: %s (%s)", meeting.Description, meeting.Date)
	report, _ := n.fanOut(ctx, meeting, "cancelled", subject)

	data := notificationData{Recipient: Participant{Name: "equipo"}, Meeting: newMeetingView(meeting)}
	report.DistributionListNotified = n.notifyDistributionList(ctx, meeting, "cancelled", subject, data)
	return report
}

// fanOut sends one message per resolved recipient. It detaches from the
// caller's cancellation so an aborted request does not cut the fan-out short.
func (n *Notifier) fanOut(ctx context.Context, meeting Meeting, templateName, subject string) (NotificationReport, []Participant) {
	var report NotificationReport
	if n == nil || n.sender == nil {
		return report, nil
	}
	ctx = context.WithoutCancel(ctx)
	logger := serviceLogger(ctx, n.logger, "Notifier", templateName, "meeting_id", meeting.ID)

	recipients, err := n.recipients(ctx, meeting.Audience)
	if err != nil {
		report.ResolveError = err.Error()
		logger.WarnContext(ctx, "failed to resolve notification recipients", "error", err)
		return report, nil
	}
	report.Recipients = len(recipients)

	view := newMeetingView(meeting)
	link := n.AttendanceLink(meeting.AttendanceToken)
	var notified []Participant
	for _, recipient := range recipients {
		if recipient.Email == "" {
			report.Skipped++
			continue
		}

		data := notificationData{Recipient: recipient, Meeting: view}
		if meeting.State == MeetingStateScheduled {
			data.Link = link
		}
		msg, err := renderMessage(templateName, subject, data)
		if err == nil {
			msg.To = []mail.Address{{Name: recipient.Name, Address: recipient.Email}}
			err = n.sender.Send(ctx, msg)
		}
		if err != nil {
			report.Failed++
			report.Failures = append(report.Failures, NotificationFailure{
				DocumentID: recipient.DocumentID,
				Email:      recipient.Email,
				Error:      err.Error(),
			})
			logger.WarnContext(ctx, "failed to notify participant",
				"document_id", recipient.DocumentID,
				"error", err,
			)
			continue
		}
		report.Sent++
		notified = append(notified, recipient)
	}
	return report, notified
}

func (n *Notifier) notifyDistributionList(ctx context.Context, meeting Meeting, templateName, subject string, data notificationData) bool {
	if n == nil || n.sender == nil || len(n.config.DistributionList) == 0 {
		return false
	}
	ctx = context.WithoutCancel(ctx)
	logger := serviceLogger(ctx, n.logger, "Notifier", templateName, "meeting_id", meeting.ID)

	msg, err := renderMessage(templateName, subject, data)
	if err == nil {
		msg.To = append([]mail.Address(nil), n.config.DistributionList...)
		err = n.sender.Send(ctx, msg)
	}
	if err != nil {
		logger.WarnContext(ctx, "failed to notify distribution list", "error", err)
		return false
	}
	return true
}

// recipients resolves the audience against the directory, de-duplicated by document id.
func (n *Notifier) recipients(ctx context.Context, audience Audience) ([]Participant, error) {
	if n.directory == nil {
		return nil, nil
	}
	participants, err := n.directory.ListParticipantsByRoles(ctx, audience.Roles())
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(participants))
	out := make([]Participant, 0, len(participants))
	for _, p := range participants {
		if _, dup := seen[p.DocumentID]; dup {
			continue
		}
		seen[p.DocumentID] = struct{}{}
		out = append(out, p)
	}
	return out, nil
}

func renderMessage(name, subject string, data notificationData) (mailer.Message, error) {
	var text, html bytes.Buffer
	if err := textTemplates.ExecuteTemplate(&text, name+".txt", data); err != nil {
		return mailer.Message{}, fmt.Errorf("render %s text: %w", name, err)
	}
	if err := htmlTemplates.ExecuteTemplate(&html, name+".html", data); err != nil {
		return mailer.Message{}, fmt.Errorf("render %s html: %w", name, err)
	}
	return mailer.Message{Subject: subject, TextBody: text.String(), HTMLBody: html.String()}, nil
}
