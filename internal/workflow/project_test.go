package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"

	"github.com/freelancehub/backend/internal/models"
)

func TestApproveCompletionIncrementsCounter(t *testing.T) {
	gdb, mock := newMockDB(t)
	w := NewProjectWorkflow(gdb, nil)

	projectID := uuid.New()
	clientID := uuid.New()
	freelancerID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "projects" WHERE id = .+ FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "client_id", "status", "assigned_to"}).
			AddRow(projectID.String(), clientID.String(), "PENDING_COMPLETION", freelancerID.String()))
	mock.ExpectExec(`UPDATE "projects" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "freelancer_profiles" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	p, err := w.ApproveCompletion(context.Background(), projectID, clientID)
	if err != nil {
		t.Fatalf("ApproveCompletion: %v", err)
	}
	if p.Status != models.ProjectStatusCompleted {
		t.Fatalf("expected COMPLETED, got %s", p.Status)
	}
	expectationsMet(t, mock)
}

func TestRejectCompletionReturnsToAssigned(t *testing.T) {
	gdb, mock := newMockDB(t)
	w := NewProjectWorkflow(gdb, nil)

	projectID := uuid.New()
	clientID := uuid.New()
	freelancerID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "projects" WHERE id = .+ FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "client_id", "status", "assigned_to"}).
			AddRow(projectID.String(), clientID.String(), "PENDING_COMPLETION", freelancerID.String()))
	mock.ExpectExec(`UPDATE "projects" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	p, err := w.RejectCompletion(context.Background(), projectID, clientID, "missing deliverables")
	if err != nil {
		t.Fatalf("RejectCompletion: %v", err)
	}
	if p.Status != models.ProjectStatusAssigned {
		t.Fatalf("expected ASSIGNED, got %s", p.Status)
	}
	if p.AssignedTo == nil || *p.AssignedTo != freelancerID {
		t.Fatal("expected assignment to survive a rejected completion")
	}
	expectationsMet(t, mock)
}

func TestRejectCompletionRequiresReason(t *testing.T) {
	gdb, _ := newMockDB(t)
	w := NewProjectWorkflow(gdb, nil)

	_, err := w.RejectCompletion(context.Background(), uuid.New(), uuid.New(), "")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestTransitionFromTerminalStateFails(t *testing.T) {
	gdb, mock := newMockDB(t)
	w := NewProjectWorkflow(gdb, nil)

	projectID := uuid.New()
	clientID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "projects" WHERE id = .+ FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "client_id", "status", "assigned_to"}).
			AddRow(projectID.String(), clientID.String(), "COMPLETED", uuid.New().String()))
	mock.ExpectRollback()

	_, err := w.ApproveCompletion(context.Background(), projectID, clientID)
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	expectationsMet(t, mock)
}

func TestRequestCompletionByWrongFreelancerForbidden(t *testing.T) {
	gdb, mock := newMockDB(t)
	w := NewProjectWorkflow(gdb, nil)

	projectID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "projects" WHERE id = .+ FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "client_id", "status", "assigned_to"}).
			AddRow(projectID.String(), uuid.New().String(), "ASSIGNED", uuid.New().String()))
	mock.ExpectRollback()

	_, err := w.RequestCompletion(context.Background(), projectID, uuid.New(), "done")
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	expectationsMet(t, mock)
}

func TestAdminApproveOpensProject(t *testing.T) {
	gdb, mock := newMockDB(t)
	w := NewProjectWorkflow(gdb, nil)

	projectID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "projects" WHERE id = .+ FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "client_id", "status", "assigned_to"}).
			AddRow(projectID.String(), uuid.New().String(), "ADMIN_VERIFICATION", nil))
	mock.ExpectExec(`UPDATE "projects" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	p, err := w.AdminApprove(context.Background(), projectID)
	if err != nil {
		t.Fatalf("AdminApprove: %v", err)
	}
	if p.Status != models.ProjectStatusOpen {
		t.Fatalf("expected OPEN, got %s", p.Status)
	}
	expectationsMet(t, mock)
}

func TestGuardedUpdateLostRaceFailsWithConflict(t *testing.T) {
	gdb, mock := newMockDB(t)
	w := NewProjectWorkflow(gdb, nil)

	projectID := uuid.New()

	// Row lock acquired, but the guarded UPDATE matches nothing: a
	// competing transaction changed the status between our read and write.
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "projects" WHERE id = .+ FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "client_id", "status", "assigned_to"}).
			AddRow(projectID.String(), uuid.New().String(), "ADMIN_VERIFICATION", nil))
	mock.ExpectExec(`UPDATE "projects" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := w.AdminApprove(context.Background(), projectID)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	expectationsMet(t, mock)
}
