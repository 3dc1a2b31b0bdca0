package workflow

import "github.com/freelancehub/backend/internal/models"

// Legal project status transitions. Everything not listed here fails with
// ErrInvalidState; terminal states have no outgoing edges.
var projectTransitions = map[models.ProjectStatus]map[models.ProjectStatus]struct{}{
	models.ProjectStatusAdminVerification: {
		models.ProjectStatusOpen:               {},
		models.ProjectStatusCancelled:          {},
		models.ProjectStatusRejectedCompletion: {},
	},
	models.ProjectStatusOpen: {
		models.ProjectStatusAssigned:  {},
		models.ProjectStatusCancelled: {},
	},
	models.ProjectStatusAssigned: {
		models.ProjectStatusPendingCompletion: {},
	},
	models.ProjectStatusPendingCompletion: {
		models.ProjectStatusCompleted:          {},
		models.ProjectStatusAssigned:           {}, // completion rejected, work resumes
		models.ProjectStatusRejectedCompletion: {},
	},
	models.ProjectStatusCompleted:          {},
	models.ProjectStatusRejectedCompletion: {},
	models.ProjectStatusCancelled:          {},
}

// CanTransition reports whether a project may move from one status to
// another.
func CanTransition(from, to models.ProjectStatus) bool {
	allowed, ok := projectTransitions[from]
	if !ok {
		return false
	}
	_, ok = allowed[to]
	return ok
}

// IsTerminal reports whether a status has no outgoing transitions.
func IsTerminal(s models.ProjectStatus) bool {
	return len(projectTransitions[s]) == 0
}

// assignedStatuses are the statuses during which Project.AssignedTo must be
// set; everywhere else it must be null.
var assignedStatuses = map[models.ProjectStatus]struct{}{
	models.ProjectStatusAssigned:           {},
	models.ProjectStatusPendingCompletion:  {},
	models.ProjectStatusCompleted:          {},
	models.ProjectStatusRejectedCompletion: {},
}

// RequiresAssignee reports whether the status implies a non-null AssignedTo.
func RequiresAssignee(s models.ProjectStatus) bool {
	_, ok := assignedStatuses[s]
	return ok
}
