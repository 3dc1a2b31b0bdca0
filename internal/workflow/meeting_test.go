package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"

	"github.com/freelancehub/backend/internal/models"
)

func TestApproveMeetingRequestCreatesOneMeeting(t *testing.T) {
	gdb, mock := newMockDB(t)
	w := NewMeetingWorkflow(gdb, nil)

	requestID := uuid.New()
	projectID := uuid.New()
	applicationID := uuid.New()
	requesterID := uuid.New()
	approverID := uuid.New() // the application's freelancer
	meetingID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "meeting_requests" WHERE id = .+ FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "project_id", "application_id", "requester_id", "requester_type", "status"}).
			AddRow(requestID.String(), projectID.String(), applicationID.String(), requesterID.String(), "CLIENT", "PENDING"))
	// counterpart lookup: client asked, so the freelancer answers
	mock.ExpectQuery(`SELECT \* FROM "applications" WHERE id = `).
		WillReturnRows(sqlmock.NewRows([]string{"id", "project_id", "freelancer_id", "status"}).
			AddRow(applicationID.String(), projectID.String(), approverID.String(), "PENDING"))
	mock.ExpectQuery(`INSERT INTO "meetings"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(meetingID.String()))
	mock.ExpectExec(`UPDATE "meeting_requests" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	mr, meeting, err := w.Approve(context.Background(), requestID, approverID, MeetingScheduleInput{
		ScheduledDate:  time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		ScheduledTime:  "14:30",
		GoogleMeetLink: "https://meet.google.com/abc-defg-hij",
	})
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if mr.Status != models.MeetingRequestStatusApproved {
		t.Fatalf("expected APPROVED, got %s", mr.Status)
	}
	if mr.CreatedMeetingID == nil || *mr.CreatedMeetingID != meeting.ID {
		t.Fatal("expected created_meeting_id to reference the new meeting")
	}
	if meeting.Status != models.MeetingStatusScheduled {
		t.Fatalf("expected SCHEDULED meeting, got %s", meeting.Status)
	}
	expectationsMet(t, mock)
}

func TestApproveNonPendingRequestFails(t *testing.T) {
	gdb, mock := newMockDB(t)
	w := NewMeetingWorkflow(gdb, nil)

	requestID := uuid.New()

	// Already approved once: the second approve sees APPROVED and must not
	// create a second meeting.
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "meeting_requests" WHERE id = .+ FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "project_id", "application_id", "requester_id", "status"}).
			AddRow(requestID.String(), uuid.New().String(), uuid.New().String(), uuid.New().String(), "APPROVED"))
	mock.ExpectRollback()

	_, _, err := w.Approve(context.Background(), requestID, uuid.New(), MeetingScheduleInput{
		ScheduledDate: time.Now(),
	})
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	expectationsMet(t, mock)
}

func TestRequesterCannotApproveOwnRequest(t *testing.T) {
	gdb, mock := newMockDB(t)
	w := NewMeetingWorkflow(gdb, nil)

	requestID := uuid.New()
	applicationID := uuid.New()
	requesterID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "meeting_requests" WHERE id = .+ FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "project_id", "application_id", "requester_id", "requester_type", "status"}).
			AddRow(requestID.String(), uuid.New().String(), applicationID.String(), requesterID.String(), "CLIENT", "PENDING"))
	mock.ExpectQuery(`SELECT \* FROM "applications" WHERE id = `).
		WillReturnRows(sqlmock.NewRows([]string{"id", "freelancer_id"}).
			AddRow(applicationID.String(), uuid.New().String()))
	mock.ExpectRollback()

	_, _, err := w.Approve(context.Background(), requestID, requesterID, MeetingScheduleInput{
		ScheduledDate: time.Now(),
	})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	expectationsMet(t, mock)
}

func TestOutsiderCannotAnswerMeetingRequest(t *testing.T) {
	gdb, mock := newMockDB(t)
	w := NewMeetingWorkflow(gdb, nil)

	// A freelancer asked to meet, so only the project's client may answer.
	// An unrelated authenticated user must be turned away on both paths.
	requestID := uuid.New()
	projectID := uuid.New()
	strangerID := uuid.New()

	requestRows := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{"id", "project_id", "application_id", "requester_id", "requester_type", "status"}).
			AddRow(requestID.String(), projectID.String(), uuid.New().String(), uuid.New().String(), "FREELANCER", "PENDING")
	}
	projectRows := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{"id", "client_id", "status"}).
			AddRow(projectID.String(), uuid.New().String(), "ASSIGNED")
	}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "meeting_requests" WHERE id = .+ FOR UPDATE`).
		WillReturnRows(requestRows())
	mock.ExpectQuery(`SELECT \* FROM "projects" WHERE id = `).
		WillReturnRows(projectRows())
	mock.ExpectRollback()

	_, _, err := w.Approve(context.Background(), requestID, strangerID, MeetingScheduleInput{
		ScheduledDate: time.Now(),
	})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("Approve by outsider: expected ErrForbidden, got %v", err)
	}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "meeting_requests" WHERE id = .+ FOR UPDATE`).
		WillReturnRows(requestRows())
	mock.ExpectQuery(`SELECT \* FROM "projects" WHERE id = `).
		WillReturnRows(projectRows())
	mock.ExpectRollback()

	_, err = w.Reject(context.Background(), requestID, strangerID, "not your meeting")
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("Reject by outsider: expected ErrForbidden, got %v", err)
	}
	expectationsMet(t, mock)
}

func TestCancelByNonRequesterForbidden(t *testing.T) {
	gdb, mock := newMockDB(t)
	w := NewMeetingWorkflow(gdb, nil)

	requestID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "meeting_requests" WHERE id = .+ FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "project_id", "application_id", "requester_id", "status"}).
			AddRow(requestID.String(), uuid.New().String(), uuid.New().String(), uuid.New().String(), "PENDING"))
	mock.ExpectRollback()

	_, err := w.Cancel(context.Background(), requestID, uuid.New())
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	expectationsMet(t, mock)
}

func TestRequestByOutsiderForbidden(t *testing.T) {
	gdb, mock := newMockDB(t)
	w := NewMeetingWorkflow(gdb, nil)

	projectID := uuid.New()
	applicationID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "applications" WHERE id = `).
		WillReturnRows(sqlmock.NewRows([]string{"id", "project_id", "freelancer_id", "status"}).
			AddRow(applicationID.String(), projectID.String(), uuid.New().String(), "PENDING"))
	mock.ExpectQuery(`SELECT \* FROM "projects" WHERE id = `).
		WillReturnRows(sqlmock.NewRows([]string{"id", "client_id", "status", "assigned_to"}).
			AddRow(projectID.String(), uuid.New().String(), "OPEN", nil))
	mock.ExpectRollback()

	_, err := w.Request(context.Background(), uuid.New(), MeetingRequestInput{
		ProjectID:     projectID,
		ApplicationID: applicationID,
		Reason:        "scope call",
	})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	expectationsMet(t, mock)
}
