// Package http exposes the meeting lifecycle over a JSON API.
//
// Every response body is an envelope {"level","message","data","errors"} where
// level is one of success, warning or error and message is a Spanish sentence
// the UI shows as a toast. Binary exports are the only exception.
//
// The router exposes the following endpoints, all behind a bearer token:
//   - POST /meetings: creates a meeting and notifies its audience. Body is the
//     `meetingRequest` payload defined in meeting_handler.go. 201 on success.
//   - GET /meetings?limit=N: lists meetings, newest first, after an expiry sweep.
//   - GET /meetings/active: the meeting in progress right now, or null.
//   - GET /meetings/{id}: a single meeting.
//   - PATCH /meetings/{id}/state: body {"state":"cancelled"} cancels a scheduled
//     meeting and notifies its audience.
//   - GET /meetings/{id}/attendances: confirmations ordered by time.
//   - GET /meetings/{id}/attendees-export: xlsx roster enriched with directory emails.
//   - POST /attendances: body {"token","participant":{"document_id","name","role"}}.
//     201 when recorded, 200 with a warning when already registered or the
//     meeting was cancelled.
//   - GET /attendance-links/{token}: the meeting behind an attendance link.
//
// GET /healthz is served without authentication.
package http
