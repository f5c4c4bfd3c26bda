package manager

import (
	"github.com/pkg/errors"

	"github.com/trezcool/attendance/core"
)

// Managing roles
const (
	RoleTeachingAssistant = "TEACHING_ASSISTANT"
	RoleCourseCoordinator = "COURSE_COORDINATOR"
)

var ManagingRoles = []string{RoleTeachingAssistant, RoleCourseCoordinator}

// RoleName is the label shown for a managing role.
func RoleName(role string) string {
	switch role {
	case RoleTeachingAssistant:
		return "Teaching Assistant"
	case RoleCourseCoordinator:
		return "Course Coordinator"
	}
	return role
}

func IsManagingRole(role string) bool {
	for _, r := range ManagingRoles {
		if r == role {
			return true
		}
	}
	return false
}

// Record is one staged class group manager.
type Record struct {
	UserID       string `json:"user_id"`
	ClassGroupID int    `json:"class_group_id"`
	ManagingRole string `json:"managing_role"`
}

// CheckRecords rejects staged records the API would refuse to commit.
func CheckRecords(records []Record) error {
	type assignment struct {
		UserID       string
		ClassGroupID int
	}
	seen := make(map[assignment]bool, len(records))
	for i, rec := range records {
		if !IsManagingRole(rec.ManagingRole) {
			return core.NewValidationError(errors.Errorf("row %d: unknown managing role %q", i+1, rec.ManagingRole))
		}
		key := assignment{UserID: rec.UserID, ClassGroupID: rec.ClassGroupID}
		if seen[key] {
			return core.NewValidationError(errors.Errorf(
				"row %d: user %s already manages class group %d", i+1, rec.UserID, rec.ClassGroupID))
		}
		seen[key] = true
	}
	return nil
}
