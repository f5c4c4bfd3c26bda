package batch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleGrouped() Grouped {
	monday := time.Date(2026, time.August, 10, 10, 0, 0, 0, time.UTC)
	sess := func(day int, venue string) ClassGroupSession {
		start := monday.AddDate(0, 0, day)
		return ClassGroupSession{StartTime: start, EndTime: start.Add(2 * time.Hour), Venue: venue}
	}
	return Grouped{
		Class: Class{Code: "CS1010", Name: "Programming Methodology"},
		Groups: []Group{
			{
				ClassGroup: ClassGroup{Name: "L1", ClassType: ClassTypeLecture},
				Sessions:   []ClassGroupSession{sess(0, "LT19"), sess(7, "LT19")},
				Students:   []SessionEnrollment{{UserID: "e0000001", Name: "Ada"}, {UserID: "e0000002", Name: "Linus"}},
			},
			{
				ClassGroup: ClassGroup{Name: "T01", ClassType: ClassTypeTutorial},
				Sessions:   []ClassGroupSession{sess(2, "COM1-0208")},
				Students:   []SessionEnrollment{{UserID: "e0000001", Name: "Ada"}},
			},
			{
				ClassGroup: ClassGroup{Name: "B05", ClassType: ClassTypeLab},
				Students:   []SessionEnrollment{{UserID: "e0000002", Name: "Linus"}},
			},
		},
	}
}

// withIDs sets the positional ids a regrouped view carries.
func withIDs(g Grouped) Grouped {
	for i := range g.Groups {
		for j := range g.Groups[i].Sessions {
			g.Groups[i].Sessions[j].ClassGroupID = i
		}
		for j := range g.Groups[i].Students {
			g.Groups[i].Students[j].ClassGroupID = i
		}
	}
	return g
}

func TestFlattenRegroup(t *testing.T) {
	grouped := sampleGrouped()

	rec := Flatten(grouped)
	assert.Len(t, rec.ClassGroups, 3)
	assert.Len(t, rec.ClassGroupSessions, 3)
	assert.Len(t, rec.SessionEnrollments, 4)
	for _, sess := range rec.ClassGroupSessions {
		if sess.Venue == "COM1-0208" {
			assert.Equal(t, 1, sess.ClassGroupID)
		} else {
			assert.Equal(t, 0, sess.ClassGroupID)
		}
	}

	back, err := Regroup(rec)
	require.NoError(t, err)
	assert.Equal(t, withIDs(sampleGrouped()), back)
	assert.Equal(t, 3, back.SessionCount())
	assert.Equal(t, 2, back.StudentCount())

	// flattening the regrouped view gives the same wire record back
	assert.Equal(t, rec, Flatten(back))
}

func TestRegroup_interleaved(t *testing.T) {
	rec := Record{
		Class:       Class{Code: "MA1521"},
		ClassGroups: []ClassGroup{{Name: "L1", ClassType: ClassTypeLecture}, {Name: "T1", ClassType: ClassTypeTutorial}},
		ClassGroupSessions: []ClassGroupSession{
			{ClassGroupID: 1, Venue: "S16"},
			{ClassGroupID: 0, Venue: "LT27"},
			{ClassGroupID: 1, Venue: "S17"},
		},
		SessionEnrollments: []SessionEnrollment{
			{ClassGroupID: 1, UserID: "a"},
			{ClassGroupID: 0, UserID: "b"},
		},
	}
	grouped, err := Regroup(rec)
	require.NoError(t, err)
	require.Len(t, grouped.Groups, 2)

	var venues0, venues1 []string
	for _, s := range grouped.Groups[0].Sessions {
		venues0 = append(venues0, s.Venue)
	}
	for _, s := range grouped.Groups[1].Sessions {
		venues1 = append(venues1, s.Venue)
	}
	assert.Equal(t, []string{"LT27"}, venues0)
	assert.Equal(t, []string{"S16", "S17"}, venues1)
	assert.Equal(t, "b", grouped.Groups[0].Students[0].UserID)
	assert.Equal(t, "a", grouped.Groups[1].Students[0].UserID)
}

func TestRegroup_outOfRange(t *testing.T) {
	tests := []struct {
		name    string
		rec     Record
		wantErr string
	}{
		{
			name:    "session",
			rec:     Record{ClassGroups: []ClassGroup{{Name: "L1"}}, ClassGroupSessions: []ClassGroupSession{{ClassGroupID: 0}, {ClassGroupID: 1}}},
			wantErr: "session #1 refers to class group 1 but the batch has 1 class groups",
		},
		{
			name:    "enrollment",
			rec:     Record{SessionEnrollments: []SessionEnrollment{{ClassGroupID: -1}}},
			wantErr: "enrollment #0 refers to class group -1 but the batch has 0 class groups",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Regroup(tt.rec)
			require.Error(t, err)
			assert.Equal(t, tt.wantErr, err.Error())
		})
	}

	_, err := RegroupAll([]Record{Flatten(sampleGrouped()), tests[0].rec})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch #1")
}
