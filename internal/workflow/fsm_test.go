package workflow

import (
	"testing"

	"github.com/freelancehub/backend/internal/models"
)

func TestCanTransition(t *testing.T) {
	if !CanTransition(models.ProjectStatusAdminVerification, models.ProjectStatusOpen) {
		t.Fatal("expected ADMIN_VERIFICATION -> OPEN to be allowed")
	}
	if !CanTransition(models.ProjectStatusOpen, models.ProjectStatusAssigned) {
		t.Fatal("expected OPEN -> ASSIGNED to be allowed")
	}
	if !CanTransition(models.ProjectStatusAssigned, models.ProjectStatusPendingCompletion) {
		t.Fatal("expected ASSIGNED -> PENDING_COMPLETION to be allowed")
	}
	if !CanTransition(models.ProjectStatusPendingCompletion, models.ProjectStatusCompleted) {
		t.Fatal("expected PENDING_COMPLETION -> COMPLETED to be allowed")
	}
	if !CanTransition(models.ProjectStatusPendingCompletion, models.ProjectStatusAssigned) {
		t.Fatal("expected PENDING_COMPLETION -> ASSIGNED (rejected completion) to be allowed")
	}
	if CanTransition(models.ProjectStatusAdminVerification, models.ProjectStatusAssigned) {
		t.Fatal("unexpected ADMIN_VERIFICATION -> ASSIGNED allowed")
	}
	if CanTransition(models.ProjectStatusOpen, models.ProjectStatusCompleted) {
		t.Fatal("unexpected OPEN -> COMPLETED allowed")
	}
}

func TestTerminalStatesHaveNoExits(t *testing.T) {
	terminals := []models.ProjectStatus{
		models.ProjectStatusCompleted,
		models.ProjectStatusCancelled,
		models.ProjectStatusRejectedCompletion,
	}
	all := []models.ProjectStatus{
		models.ProjectStatusAdminVerification,
		models.ProjectStatusOpen,
		models.ProjectStatusAssigned,
		models.ProjectStatusPendingCompletion,
		models.ProjectStatusCompleted,
		models.ProjectStatusRejectedCompletion,
		models.ProjectStatusCancelled,
	}
	for _, from := range terminals {
		if !IsTerminal(from) {
			t.Fatalf("expected %s to be terminal", from)
		}
		for _, to := range all {
			if CanTransition(from, to) {
				t.Fatalf("unexpected transition %s -> %s allowed", from, to)
			}
		}
	}
}

func TestRequiresAssignee(t *testing.T) {
	cases := []struct {
		status models.ProjectStatus
		want   bool
	}{
		{models.ProjectStatusAdminVerification, false},
		{models.ProjectStatusOpen, false},
		{models.ProjectStatusAssigned, true},
		{models.ProjectStatusPendingCompletion, true},
		{models.ProjectStatusCompleted, true},
		{models.ProjectStatusRejectedCompletion, true},
		{models.ProjectStatusCancelled, false},
	}
	for _, c := range cases {
		if got := RequiresAssignee(c.status); got != c.want {
			t.Fatalf("RequiresAssignee(%s) = %v, want %v", c.status, got, c.want)
		}
	}
}
