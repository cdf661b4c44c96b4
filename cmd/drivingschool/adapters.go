package main

import (
	"context"
	"fmt"

	"github.com/example/drivingschool/internal/application"
	"github.com/example/drivingschool/internal/civil"
	"github.com/example/drivingschool/internal/persistence"
)

type meetingRepositoryAdapter struct {
	repo persistence.MeetingRepository
}

func newMeetingRepositoryAdapter(repo persistence.MeetingRepository) *meetingRepositoryAdapter {
	return &meetingRepositoryAdapter{repo: repo}
}

func (a *meetingRepositoryAdapter) CreateMeeting(ctx context.Context, meeting application.Meeting) error {
	return a.repo.CreateMeeting(ctx, toPersistenceMeeting(meeting))
}

func (a *meetingRepositoryAdapter) GetMeeting(ctx context.Context, id string) (application.Meeting, error) {
	stored, err := a.repo.GetMeeting(ctx, id)
	if err != nil {
		return application.Meeting{}, err
	}
	return toApplicationMeeting(stored)
}

func (a *meetingRepositoryAdapter) GetMeetingByToken(ctx context.Context, token string) (application.Meeting, error) {
	stored, err := a.repo.GetMeetingByToken(ctx, token)
	if err != nil {
		return application.Meeting{}, err
	}
	return toApplicationMeeting(stored)
}

func (a *meetingRepositoryAdapter) ListMeetings(ctx context.Context, filter application.MeetingFilter) ([]application.Meeting, error) {
	pf := persistence.MeetingFilter{
		State:        string(filter.State),
		OrderByStart: filter.OrderByStart,
		Limit:        filter.Limit,
	}
	if filter.Date != nil {
		pf.Date = filter.Date.String()
	}
	if filter.DateOnOrBefore != nil {
		pf.DateOnOrBefore = filter.DateOnOrBefore.String()
	}

	stored, err := a.repo.ListMeetings(ctx, pf)
	if err != nil {
		return nil, err
	}
	meetings := make([]application.Meeting, 0, len(stored))
	for _, m := range stored {
		meeting, err := toApplicationMeeting(m)
		if err != nil {
			return nil, err
		}
		meetings = append(meetings, meeting)
	}
	return meetings, nil
}

func (a *meetingRepositoryAdapter) UpdateMeetingState(ctx context.Context, id string, from, to application.MeetingState) error {
	return a.repo.UpdateMeetingState(ctx, id, string(from), string(to))
}

type attendanceRepositoryAdapter struct {
	repo persistence.AttendanceRepository
}

func newAttendanceRepositoryAdapter(repo persistence.AttendanceRepository) *attendanceRepositoryAdapter {
	return &attendanceRepositoryAdapter{repo: repo}
}

func (a *attendanceRepositoryAdapter) CreateAttendance(ctx context.Context, attendance application.Attendance) error {
	return a.repo.CreateAttendance(ctx, persistence.Attendance{
		ID:              attendance.ID,
		MeetingID:       attendance.MeetingID,
		DocumentID:      attendance.DocumentID,
		ParticipantName: attendance.ParticipantName,
		ParticipantRole: string(attendance.ParticipantRole),
		ConfirmedAt:     civil.FormatDateTime(attendance.ConfirmedAt),
	})
}

func (a *attendanceRepositoryAdapter) CountAttendances(ctx context.Context, meetingID string) (int, error) {
	return a.repo.CountAttendances(ctx, meetingID)
}

func (a *attendanceRepositoryAdapter) AttendanceExists(ctx context.Context, meetingID, documentID string) (bool, error) {
	return a.repo.AttendanceExists(ctx, meetingID, documentID)
}

func (a *attendanceRepositoryAdapter) ListAttendances(ctx context.Context, meetingID string) ([]application.Attendance, error) {
	stored, err := a.repo.ListAttendances(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	attendances := make([]application.Attendance, 0, len(stored))
	for _, s := range stored {
		confirmedAt, err := civil.ParseDateTime(s.ConfirmedAt)
		if err != nil {
			return nil, fmt.Errorf("decode attendance %s confirmed_at: %w", s.ID, err)
		}
		attendances = append(attendances, application.Attendance{
			ID:              s.ID,
			MeetingID:       s.MeetingID,
			DocumentID:      s.DocumentID,
			ParticipantName: s.ParticipantName,
			ParticipantRole: application.Role(s.ParticipantRole),
			ConfirmedAt:     confirmedAt,
		})
	}
	return attendances, nil
}

type participantDirectoryAdapter struct {
	repo persistence.DirectoryRepository
}

func newParticipantDirectoryAdapter(repo persistence.DirectoryRepository) *participantDirectoryAdapter {
	return &participantDirectoryAdapter{repo: repo}
}

func (a *participantDirectoryAdapter) ListParticipantsByRoles(ctx context.Context, roles []application.Role) ([]application.Participant, error) {
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, string(r))
	}
	stored, err := a.repo.ListParticipantsByRoles(ctx, names)
	if err != nil {
		return nil, err
	}
	return toApplicationParticipants(stored), nil
}

func (a *participantDirectoryAdapter) ListParticipantsByDocumentIDs(ctx context.Context, documentIDs []string) ([]application.Participant, error) {
	stored, err := a.repo.ListParticipantsByDocumentIDs(ctx, documentIDs)
	if err != nil {
		return nil, err
	}
	return toApplicationParticipants(stored), nil
}

func toApplicationParticipants(stored []persistence.Participant) []application.Participant {
	out := make([]application.Participant, 0, len(stored))
	for _, p := range stored {
		out = append(out, application.Participant{
			DocumentID: p.DocumentID,
			Name:       p.Name,
			Email:      p.Email,
			Role:       application.Role(p.Role),
		})
	}
	return out
}

func toApplicationMeeting(model persistence.Meeting) (application.Meeting, error) {
	date, err := civil.ParseDate(model.ScheduledDate)
	if err != nil {
		return application.Meeting{}, fmt.Errorf("decode meeting %s date: %w", model.ID, err)
	}
	start, err := civil.ParseTimeOfDay(model.StartTime)
	if err != nil {
		return application.Meeting{}, fmt.Errorf("decode meeting %s start_time: %w", model.ID, err)
	}
	end, err := civil.ParseTimeOfDay(model.EndTime)
	if err != nil {
		return application.Meeting{}, fmt.Errorf("decode meeting %s end_time: %w", model.ID, err)
	}
	return application.Meeting{
		ID:              model.ID,
		Type:            application.MeetingType(model.Type),
		Description:     model.Description,
		Date:            date,
		StartTime:       start,
		EndTime:         end,
		Modality:        application.Modality(model.Modality),
		Responsible:     cloneString(model.Responsible),
		Audience:        application.Audience(model.Audience),
		Location:        cloneString(model.Location),
		CreatorID:       model.CreatorID,
		AttendanceToken: model.AttendanceToken,
		State:           application.MeetingState(model.State),
		CreatedAt:       model.CreatedAt,
	}, nil
}

func toPersistenceMeeting(meeting application.Meeting) persistence.Meeting {
	return persistence.Meeting{
		ID:              meeting.ID,
		Type:            string(meeting.Type),
		Description:     meeting.Description,
		ScheduledDate:   meeting.Date.String(),
		StartTime:       meeting.StartTime.String(),
		EndTime:         meeting.EndTime.String(),
		Modality:        string(meeting.Modality),
		Responsible:     cloneString(meeting.Responsible),
		Audience:        string(meeting.Audience),
		Location:        cloneString(meeting.Location),
		CreatorID:       meeting.CreatorID,
		AttendanceToken: meeting.AttendanceToken,
		State:           string(meeting.State),
		CreatedAt:       meeting.CreatedAt,
	}
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}
