package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestValidateMeetingInput(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		mutate func(*MeetingInput)
		fields []string
	}{
		{
			name: "missing mandatory fields",
			mutate: func(in *MeetingInput) {
				*in = MeetingInput{Description: "   "}
			},
			fields: []string{"type", "description", "date", "start_time", "end_time"},
		},
		{
			name:   "unknown type",
			mutate: func(in *MeetingInput) { in.Type = "party" },
			fields: []string{"type"},
		},
		{
			name:   "malformed date",
			mutate: func(in *MeetingInput) { in.Date = "20/05/2024" },
			fields: []string{"date"},
		},
		{
			name:   "malformed time",
			mutate: func(in *MeetingInput) { in.StartTime = "9am" },
			fields: []string{"start_time"},
		},
		{
			name:   "equal start and end",
			mutate: func(in *MeetingInput) { in.EndTime = in.StartTime },
			fields: []string{"end_time"},
		},
		{
			name: "unknown modality and audience",
			mutate: func(in *MeetingInput) {
				in.Modality = "hybrid"
				in.Audience = "drivers"
			},
			fields: []string{"modality", "audience"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			input := validMeetingInput()
			tc.mutate(&input)

			_, _, _, _, vErr := validateMeetingInput(input)
			if !vErr.HasErrors() {
				t.Fatalf("expected validation errors")
			}
			for _, field := range tc.fields {
				msg, ok := vErr.FieldErrors[field]
				if !ok {
					t.Fatalf("expected %s error, got %v", field, vErr.FieldErrors)
				}
				if strings.TrimSpace(msg) == "" {
					t.Fatalf("expected a message for %s", field)
				}
			}
			if len(vErr.FieldErrors) != len(tc.fields) {
				t.Fatalf("expected only %v, got %v", tc.fields, vErr.FieldErrors)
			}
		})
	}
}

func TestValidateMeetingInputParsesCalendarFields(t *testing.T) {
	t.Parallel()

	input := validMeetingInput()
	input.StartTime = "09:00:00"
	_, date, start, end, vErr := validateMeetingInput(input)
	if vErr.HasErrors() {
		t.Fatalf("expected no errors, got %v", vErr.FieldErrors)
	}
	if date.String() != "2024-05-20" || start.String() != "09:00" || end.String() != "10:00" {
		t.Fatalf("unexpected parsed values %s %s %s", date, start, end)
	}
}

func TestEndBeforeStartMessageIsLocalized(t *testing.T) {
	t.Parallel()

	input := validMeetingInput()
	input.EndTime = "08:00"
	_, _, _, _, vErr := validateMeetingInput(input)
	if got := vErr.FieldErrors["end_time"]; got != customMessages[afterStartTag] {
		t.Fatalf("expected %q, got %q", customMessages[afterStartTag], got)
	}
}

func TestErrorKind(t *testing.T) {
	t.Parallel()

	cases := map[string]error{
		"":                   nil,
		"unauthorized":       ErrUnauthorized,
		"not_found":          fmt.Errorf("wrap: %w", ErrNotFound),
		"invalid_transition": fmt.Errorf("%w: executed", ErrInvalidTransition),
		"persistence":        mapRepoError(errors.New("connection reset")),
		"validation":         &ValidationError{FieldErrors: map[string]string{"type": "requerido"}},
		"canceled":           context.Canceled,
		"unexpected":         errors.New("boom"),
	}

	for want, err := range cases {
		if got := ErrorKind(err); got != want {
			t.Fatalf("ErrorKind(%v): expected %q, got %q", err, want, got)
		}
	}
}

func TestValidationErrorMessage(t *testing.T) {
	t.Parallel()

	vErr := &ValidationError{}
	vErr.add("start_time", "a")
	vErr.add("date", "b")
	vErr.add("date", "ignored")
	if got := vErr.Error(); got != "validation failed: date, start_time" {
		t.Fatalf("unexpected message %q", got)
	}
	if vErr.FieldErrors["date"] != "b" {
		t.Fatalf("expected first message to win, got %q", vErr.FieldErrors["date"])
	}
}

func TestValidationErrorMergeKeepsExistingMessages(t *testing.T) {
	t.Parallel()

	vErr := &ValidationError{}
	vErr.add("name", "first")
	other := &ValidationError{}
	other.add("name", "second")
	other.add("token", "missing")

	vErr.merge(other)
	vErr.merge(nil)
	if vErr.FieldErrors["name"] != "first" || vErr.FieldErrors["token"] != "missing" {
		t.Fatalf("unexpected merged errors %v", vErr.FieldErrors)
	}
}

func TestValidateParticipantInputRestrictsRole(t *testing.T) {
	t.Parallel()

	_, vErr := validateParticipantInput(ParticipantInput{DocumentID: "100", Name: "Ana", Role: "secretaria"})
	if _, ok := vErr.FieldErrors["role"]; !ok {
		t.Fatalf("expected role error, got %v", vErr.FieldErrors)
	}
	for _, role := range AllRoles {
		if _, vErr := validateParticipantInput(ParticipantInput{DocumentID: "100", Name: "Ana", Role: " " + string(role)}); vErr.HasErrors() {
			t.Fatalf("expected %s to be accepted, got %v", role, vErr.FieldErrors)
		}
	}
}
