package authz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/attendance/core/session"
)

func TestGate_Decide(t *testing.T) {
	user := &session.Session{User: session.User{ID: "U2", Role: session.RoleUser}}
	ta := &session.Session{
		User:         session.User{ID: "U3", Role: session.RoleUser},
		Capabilities: session.Capabilities{CanManageClassGroups: true},
	}
	coordinator := &session.Session{
		User:         session.User{ID: "U4", Role: session.RoleUser},
		Capabilities: session.Capabilities{CanManageClassGroups: true, IsCourseCoordinator: true},
	}
	admin := &session.Session{User: session.User{ID: "U1", Role: session.RoleSystemAdmin}}

	tests := []struct {
		name string
		gate Gate
		sess *session.Session
		want Decision
	}{
		{name: "logged in: anonymous", gate: NewGate(LoggedIn), sess: nil, want: Deny},
		{name: "logged in: user", gate: NewGate(LoggedIn), sess: user, want: Allow},
		{name: "admin role: anonymous", gate: NewGate(HasRole(session.RoleSystemAdmin)), sess: nil, want: Deny},
		{name: "admin role: user", gate: NewGate(HasRole(session.RoleSystemAdmin)), sess: user, want: Deny},
		{name: "admin role: admin", gate: NewGate(HasRole(session.RoleSystemAdmin)), sess: admin, want: Allow},
		{name: "manage class groups: user", gate: NewGate(CanManageClassGroups), sess: user, want: Deny},
		{name: "manage class groups: ta", gate: NewGate(CanManageClassGroups), sess: ta, want: Allow},
		{name: "coordinator: ta", gate: NewGate(IsCourseCoordinator), sess: ta, want: Deny},
		{name: "coordinator: coordinator", gate: NewGate(IsCourseCoordinator), sess: coordinator, want: Allow},
		{name: "all: coordinator", gate: NewGate(All(LoggedIn, CanManageClassGroups, IsCourseCoordinator)), sess: coordinator, want: Allow},
		{name: "all: ta", gate: NewGate(All(LoggedIn, IsCourseCoordinator)), sess: ta, want: Deny},
		{name: "any: admin", gate: NewGate(Any(IsCourseCoordinator, HasRole(session.RoleSystemAdmin))), sess: admin, want: Allow},
		{name: "no predicate", gate: Gate{}, sess: nil, want: Allow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := session.NewResolvedStore(tt.sess)
			// same inputs, same outcome
			for i := 0; i < 3; i++ {
				assert.Equal(t, tt.want, tt.gate.Decide(st))
			}
			assert.Equal(t, tt.want, tt.gate.Evaluate(tt.sess))
		})
	}
}

func TestGate_Decide_loading(t *testing.T) {
	st := session.NewStore(func(context.Context) (session.Session, error) {
		return session.Session{User: session.User{Role: session.RoleSystemAdmin}}, nil
	}, nil)
	gate := NewGate(LoggedIn, FallbackRedirect)

	assert.Equal(t, Loading, gate.Decide(st))
	st.Bootstrap(context.Background())
	assert.Equal(t, Allow, gate.Decide(st))
	assert.Equal(t, FallbackRedirect, gate.Fallback)
}
