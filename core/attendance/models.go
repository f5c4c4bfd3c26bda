// Package attendance describes the resources served by the attendance API.
package attendance

import "time"

type (
	// User IDs are opaque strings issued by the identity provider.
	User struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
		Role  string `json:"role"`
	}

	Class struct {
		ID          int    `json:"id"`
		Code        string `json:"code"`
		Name        string `json:"name"`
		Description string `json:"description"`
	}

	ClassGroup struct {
		ID        int    `json:"id"`
		ClassID   int    `json:"class_id"`
		Name      string `json:"name"`
		ClassType string `json:"class_type"`
	}

	ClassGroupSession struct {
		ID           int       `json:"id"`
		ClassGroupID int       `json:"class_group_id"`
		StartTime    time.Time `json:"start_time"`
		EndTime      time.Time `json:"end_time"`
		Venue        string    `json:"venue"`
	}

	SessionEnrollment struct {
		ID        int    `json:"id"`
		SessionID int    `json:"session_id"`
		UserID    string `json:"user_id"`
		Attended  bool   `json:"attended"`
	}

	ClassAttendanceRule struct {
		ID          int    `json:"id"`
		ClassID     int    `json:"class_id"`
		Title       string `json:"title"`
		Description string `json:"description"`
		RuleType    string `json:"rule_type"`
	}

	ClassGroupManager struct {
		ID           int    `json:"id"`
		UserID       string `json:"user_id"`
		ClassGroupID int    `json:"class_group_id"`
		ManagingRole string `json:"managing_role"`
	}

	// Attendance is one row of the attendance sheet of an upcoming session.
	Attendance struct {
		SessionEnrollment
		Name  string `json:"name"`
		Email string `json:"email"`
	}

	// UpcomingSession is a class group session whose attendance can still be taken.
	UpcomingSession struct {
		Session     ClassGroupSession `json:"class_group_session"`
		Attendances []Attendance      `json:"attendances"`
	}
)

// Resource describes a listable API resource.
type Resource struct {
	Path    string   // URL path segment, eg. "class-groups"
	ListKey string   // envelope key of list responses
	ItemKey string   // envelope key of single-entity responses
	Title   string   // page title
	Columns []string // JSON fields shown in tables
}

var (
	Users = Resource{
		Path: "users", ListKey: "users", ItemKey: "user", Title: "Users",
		Columns: []string{"id", "name", "email", "role"},
	}
	Classes = Resource{
		Path: "classes", ListKey: "classes", ItemKey: "class", Title: "Classes",
		Columns: []string{"id", "code", "name", "description"},
	}
	ClassGroups = Resource{
		Path: "class-groups", ListKey: "class_groups", ItemKey: "class_group", Title: "Class Groups",
		Columns: []string{"id", "class_id", "name", "class_type"},
	}
	ClassGroupSessions = Resource{
		Path: "class-group-sessions", ListKey: "class_group_sessions", ItemKey: "class_group_session", Title: "Class Group Sessions",
		Columns: []string{"id", "class_group_id", "start_time", "end_time", "venue"},
	}
	SessionEnrollments = Resource{
		Path: "session-enrollments", ListKey: "session_enrollments", ItemKey: "session_enrollment", Title: "Session Enrollments",
		Columns: []string{"id", "session_id", "user_id", "attended"},
	}
	ClassAttendanceRules = Resource{
		Path: "class-attendance-rules", ListKey: "class_attendance_rules", ItemKey: "class_attendance_rule", Title: "Class Attendance Rules",
		Columns: []string{"id", "class_id", "title", "rule_type"},
	}
	ClassGroupManagers = Resource{
		Path: "class-group-managers", ListKey: "class_group_managers", ItemKey: "class_group_manager", Title: "Class Group Managers",
		Columns: []string{"id", "user_id", "class_group_id", "managing_role"},
	}

	Resources = []Resource{
		Users, Classes, ClassGroups, ClassGroupSessions, SessionEnrollments, ClassAttendanceRules, ClassGroupManagers,
	}
)

// LookupResource finds a resource by its path segment.
func LookupResource(path string) (Resource, bool) {
	for _, res := range Resources {
		if res.Path == path {
			return res, true
		}
	}
	return Resource{}, false
}

// Pagination defaults
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Page selects a slice of a paginated list.
type Page struct {
	Offset int `query:"offset"`
	Limit  int `query:"limit"`
}

// Clean applies the pagination defaults and bounds.
func (p *Page) Clean() {
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
}

func (p Page) Next() Page { return Page{Offset: p.Offset + p.Limit, Limit: p.Limit} }

func (p Page) Prev() Page {
	prev := Page{Offset: p.Offset - p.Limit, Limit: p.Limit}
	if prev.Offset < 0 {
		prev.Offset = 0
	}
	return prev
}

// Meta is the pagination metadata of list responses.
type Meta struct {
	Total int `json:"total"`
}

func (m Meta) HasNext(p Page) bool { return p.Offset+p.Limit < m.Total }
