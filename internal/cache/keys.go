package cache

import (
	"fmt"

	"github.com/google/uuid"
)

// Cache key builders. Keys are parameterized by query (page, filter), tags
// are not: a view cached under any key shape still registers the plain
// entity tags, which is what mutations invalidate by.

func ProjectKey(id uuid.UUID) string {
	return "project:" + id.String()
}

func ProjectListKey(category string, page, limit int) string {
	return fmt.Sprintf("projects:list:%s:%d:%d", category, page, limit)
}

func UserProfileKey(id uuid.UUID) string {
	return "profile:" + id.String()
}

func DashboardKey(userID uuid.UUID) string {
	return "dashboard:" + userID.String()
}

// Tags

func ProjectTag(id uuid.UUID) string {
	return "tag:project:" + id.String()
}

func UserTag(id uuid.UUID) string {
	return "tag:user:" + id.String()
}

func ApplicationTag(id uuid.UUID) string {
	return "tag:application:" + id.String()
}

func MeetingRequestTag(id uuid.UUID) string {
	return "tag:meeting_request:" + id.String()
}

// ProjectListTag covers every cached public listing page regardless of its
// pagination or filter parameters.
const ProjectListTag = "tag:projects:list"
