package session

// Roles
const (
	RoleUser        = "USER"
	RoleSystemAdmin = "SYSTEM_ADMIN"
)

type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (u User) IsSystemAdmin() bool { return u.Role == RoleSystemAdmin }

// Capabilities are derived by the API from the user's class-group managing roles.
type Capabilities struct {
	CanManageClassGroups bool `json:"can_manage_class_groups"`
	IsCourseCoordinator  bool `json:"is_course_coordinator"`
}

// Session is who is logged in and what they may do.
type Session struct {
	User         User         `json:"user"`
	Capabilities Capabilities `json:"capabilities"`
}

func (s *Session) IsSystemAdmin() bool {
	return s != nil && s.User.IsSystemAdmin()
}
