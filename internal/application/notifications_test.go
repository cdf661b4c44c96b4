package application

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/example/drivingschool/internal/mailer"
)

func TestNotifier_AttendanceLink(t *testing.T) {
	t.Parallel()

	n := NewNotifier(nil, nil, NotifierConfig{AttendanceBaseURL: "https://escuela.example/a/"}, nil)
	if got := n.AttendanceLink("tok en"); got != "https://escuela.example/a/tok%20en" {
		t.Fatalf("unexpected link %q", got)
	}
	if got := NewNotifier(nil, nil, NotifierConfig{}, nil).AttendanceLink("tok"); got != "" {
		t.Fatalf("expected no link without a base URL, got %q", got)
	}
}

func TestNotifier_DirectoryFailureIsReported(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	store.directoryErr = errors.New("directory offline")
	sender := &senderStub{}
	n := NewNotifier(store, sender, NotifierConfig{}, nil)

	report := n.MeetingScheduled(context.Background(), scheduledMeeting("m1", "2024-05-20", "09:00", "10:00"))
	if report.ResolveError == "" {
		t.Fatalf("expected resolve error in report")
	}
	if len(sender.sent) != 0 {
		t.Fatalf("expected no messages, got %d", len(sender.sent))
	}
}

func TestNotifier_SurvivesCancelledContext(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	store.participants = directoryFixture()
	sender := &senderStub{}
	n := NewNotifier(store, sender, NotifierConfig{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var observed []error
	n.sender = mailer.SenderFunc(func(ctx context.Context, msg mailer.Message) error {
		observed = append(observed, ctx.Err())
		return sender.Send(ctx, msg)
	})

	report := n.MeetingCancelled(ctx, scheduledMeeting("m1", "2024-05-20", "09:00", "10:00"))
	if report.Sent != 3 {
		t.Fatalf("expected 3 sends, got %+v", report)
	}
	for _, err := range observed {
		if err != nil {
			t.Fatalf("expected detached context, got %v", err)
		}
	}
}

func TestRenderMessage(t *testing.T) {
	t.Parallel()

	meeting := scheduledMeeting("m1", "2024-05-20", "09:00", "10:00")
	responsible := "Inspector <Gómez>"
	meeting.Responsible = &responsible

	msg, err := renderMessage("scheduled", "asunto", notificationData{
		Recipient: Participant{Name: "Ana"},
		Meeting:   newMeetingView(meeting),
		Link:      "https://escuela.example/a/tok",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(msg.TextBody, "Hola Ana") || !strings.Contains(msg.TextBody, "09:00 - 10:00") {
		t.Fatalf("unexpected text body %q", msg.TextBody)
	}
	if !strings.Contains(msg.TextBody, "Responsable: Inspector <Gómez>") {
		t.Fatalf("expected raw responsible in text body, got %q", msg.TextBody)
	}
	if !strings.Contains(msg.HTMLBody, "Inspector &lt;Gómez&gt;") {
		t.Fatalf("expected escaped responsible in html body, got %q", msg.HTMLBody)
	}
	if !strings.Contains(msg.HTMLBody, `href="https://escuela.example/a/tok"`) {
		t.Fatalf("expected link in html body, got %q", msg.HTMLBody)
	}
}
