package batch

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// Class types
const (
	ClassTypeLecture  = "LECTURE"
	ClassTypeTutorial = "TUTORIAL"
	ClassTypeLab      = "LAB"
)

var ClassTypes = []string{ClassTypeLecture, ClassTypeTutorial, ClassTypeLab}

type Class struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type ClassGroup struct {
	Name      string `json:"name"`
	ClassType string `json:"class_type"`
}

// ClassGroupSession is one scheduled meeting of a class group.
// ClassGroupID is the position of the class group within its Record.
type ClassGroupSession struct {
	ClassGroupID int       `json:"class_group_id"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	Venue        string    `json:"venue"`
}

// SessionEnrollment enrolls a student in every session of a class group.
// ClassGroupID is the position of the class group within its Record.
type SessionEnrollment struct {
	ClassGroupID int    `json:"class_group_id"`
	UserID       string `json:"user_id"`
	Name         string `json:"name"`
}

// Record is one staged batch, as previewed by the API and sent back on commit.
type Record struct {
	Class              Class               `json:"class"`
	ClassGroups        []ClassGroup        `json:"class_groups"`
	ClassGroupSessions []ClassGroupSession `json:"class_group_sessions"`
	SessionEnrollments []SessionEnrollment `json:"session_enrollments"`
}

// Clone copies r, including its slices.
func (r Record) Clone() Record {
	r.ClassGroups = cloneSlice(r.ClassGroups)
	r.ClassGroupSessions = cloneSlice(r.ClassGroupSessions)
	r.SessionEnrollments = cloneSlice(r.SessionEnrollments)
	return r
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	return append(make([]T, 0, len(s)), s...)
}

// Group is a class group with the sessions and students that point at it.
type Group struct {
	ClassGroup
	Sessions []ClassGroupSession
	Students []SessionEnrollment
}

// Grouped is the nested view of a Record used for rendering.
type Grouped struct {
	Class  Class
	Groups []Group
}

// SessionCount is the number of sessions across every group.
func (g Grouped) SessionCount() int {
	var n int
	for _, grp := range g.Groups {
		n += len(grp.Sessions)
	}
	return n
}

// StudentCount is the number of distinct students across every group.
func (g Grouped) StudentCount() int {
	seen := make(map[string]bool)
	for _, grp := range g.Groups {
		for _, st := range grp.Students {
			seen[st.UserID] = true
		}
	}
	return len(seen)
}

type indexError struct {
	kind  string
	pos   int
	index int
	len   int
}

func (e indexError) Error() string {
	return fmt.Sprintf("%s #%d refers to class group %d but the batch has %d class groups",
		e.kind, e.pos, e.index, e.len)
}

// Regroup nests the sessions and students of a Record under their class group.
// Order is preserved within each group.
func Regroup(rec Record) (Grouped, error) {
	grouped := Grouped{Class: rec.Class, Groups: make([]Group, len(rec.ClassGroups))}
	for i, cg := range rec.ClassGroups {
		grouped.Groups[i] = Group{ClassGroup: cg}
	}
	for pos, sess := range rec.ClassGroupSessions {
		if sess.ClassGroupID < 0 || sess.ClassGroupID >= len(rec.ClassGroups) {
			return Grouped{}, indexError{kind: "session", pos: pos, index: sess.ClassGroupID, len: len(rec.ClassGroups)}
		}
		grp := &grouped.Groups[sess.ClassGroupID]
		grp.Sessions = append(grp.Sessions, sess)
	}
	for pos, enr := range rec.SessionEnrollments {
		if enr.ClassGroupID < 0 || enr.ClassGroupID >= len(rec.ClassGroups) {
			return Grouped{}, indexError{kind: "enrollment", pos: pos, index: enr.ClassGroupID, len: len(rec.ClassGroups)}
		}
		grp := &grouped.Groups[enr.ClassGroupID]
		grp.Students = append(grp.Students, enr)
	}
	return grouped, nil
}

// Flatten is the inverse of Regroup: class group positions become the foreign keys.
func Flatten(grouped Grouped) Record {
	rec := Record{
		Class:              grouped.Class,
		ClassGroups:        make([]ClassGroup, 0, len(grouped.Groups)),
		ClassGroupSessions: []ClassGroupSession{},
		SessionEnrollments: []SessionEnrollment{},
	}
	for i, grp := range grouped.Groups {
		rec.ClassGroups = append(rec.ClassGroups, grp.ClassGroup)
		for _, sess := range grp.Sessions {
			sess.ClassGroupID = i
			rec.ClassGroupSessions = append(rec.ClassGroupSessions, sess)
		}
		for _, enr := range grp.Students {
			enr.ClassGroupID = i
			rec.SessionEnrollments = append(rec.SessionEnrollments, enr)
		}
	}
	return rec
}

// RegroupAll regroups every record, failing on the first inconsistent one.
func RegroupAll(records []Record) ([]Grouped, error) {
	all := make([]Grouped, 0, len(records))
	for i, rec := range records {
		grouped, err := Regroup(rec)
		if err != nil {
			return nil, errors.Wrapf(err, "batch #%d (%s)", i, rec.Class.Code)
		}
		all = append(all, grouped)
	}
	return all, nil
}
