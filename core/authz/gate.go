// Package authz decides whether a view may render for the current session.
// Gates never fetch: they only read an already-resolved session.Store.
package authz

import "github.com/trezcool/attendance/core/session"

// Predicate reports whether a session holds a capability. sess may be nil (not logged in).
type Predicate func(sess *session.Session) bool

// Decision is the outcome of evaluating a Gate.
type Decision int

const (
	Loading Decision = iota // the session store has not settled yet
	Allow
	Deny
)

func (d Decision) String() string {
	switch d {
	case Loading:
		return "loading"
	case Allow:
		return "allow"
	case Deny:
		return "deny"
	}
	return "unknown"
}

// Fallback is what a denied gate renders instead of the protected view.
type Fallback int

const (
	FallbackNotFound Fallback = iota
	FallbackRedirect
)

type Gate struct {
	Require  Predicate
	Fallback Fallback
}

func NewGate(require Predicate, fallback ...Fallback) Gate {
	g := Gate{Require: require}
	if len(fallback) > 0 {
		g.Fallback = fallback[0]
	}
	return g
}

// Decide evaluates the gate against the store.
func (g Gate) Decide(st *session.Store) Decision {
	if st == nil {
		return g.Evaluate(nil)
	}
	sess, resolved := st.Current()
	if !resolved {
		return Loading
	}
	return g.Evaluate(sess)
}

// Evaluate is the pure part of Decide, for a settled session value.
func (g Gate) Evaluate(sess *session.Session) Decision {
	if g.Require == nil || g.Require(sess) {
		return Allow
	}
	return Deny
}

// Predicates

func LoggedIn(sess *session.Session) bool { return sess != nil }

func HasRole(role string) Predicate {
	return func(sess *session.Session) bool {
		return sess != nil && sess.User.Role == role
	}
}

func CanManageClassGroups(sess *session.Session) bool {
	return sess != nil && sess.Capabilities.CanManageClassGroups
}

func IsCourseCoordinator(sess *session.Session) bool {
	return sess != nil && sess.Capabilities.IsCourseCoordinator
}

// All holds when every predicate holds.
func All(preds ...Predicate) Predicate {
	return func(sess *session.Session) bool {
		for _, pred := range preds {
			if !pred(sess) {
				return false
			}
		}
		return true
	}
}

// Any holds when at least one predicate holds.
func Any(preds ...Predicate) Predicate {
	return func(sess *session.Session) bool {
		for _, pred := range preds {
			if pred(sess) {
				return true
			}
		}
		return false
	}
}
