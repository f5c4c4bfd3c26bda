package workspace

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/attendance/core/batch"
	"github.com/trezcool/attendance/core/manager"
	"github.com/trezcool/attendance/core/session"
	"github.com/trezcool/attendance/core/upload"
)

type fakeGateway struct {
	sessionCalls int
}

func (gw *fakeGateway) GetSession(context.Context) (session.Session, error) {
	gw.sessionCalls++
	return session.Session{User: session.User{ID: "U1", Role: session.RoleSystemAdmin}}, nil
}

func (gw *fakeGateway) SubmitBatchFiles(context.Context, []upload.File, int) ([]batch.Record, error) {
	return []batch.Record{{Class: batch.Class{Code: "CS101"}}}, nil
}

func (gw *fakeGateway) ConfirmBatches(context.Context, []batch.Record) ([]int, error) {
	return []int{1}, nil
}

func (gw *fakeGateway) SubmitManagerFiles(context.Context, []upload.File) ([]manager.Record, error) {
	return nil, nil
}

func (gw *fakeGateway) ConfirmManagers(context.Context, []manager.Record) error { return nil }

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

func TestWorkspace(t *testing.T) {
	gw := new(fakeGateway)
	ws := New(gw, nopLogger{}, Options{Limits: upload.Limits{MaxFiles: 2}, DefaultStartWeek: 5})

	_, resolved := ws.Session.Current()
	assert.False(t, resolved)

	ws.Session.Bootstrap(context.Background())
	ws.Session.Bootstrap(context.Background())
	sess, resolved := ws.Session.Current()
	require.True(t, resolved)
	require.NotNil(t, sess)
	assert.True(t, sess.IsSystemAdmin())
	assert.Equal(t, 1, gw.sessionCalls)

	assert.Equal(t, 5, ws.Batch.StartWeek())

	// workflow notifications land in the workspace queue
	require.NoError(t, ws.Batch.SelectFiles([]upload.File{{Name: "a.xlsx", Data: []byte("x")}}))
	_, err := ws.Batch.Advance(context.Background())
	require.NoError(t, err)
	_, err = ws.Batch.Advance(context.Background())
	require.NoError(t, err)
	notes := ws.Notices.Drain()
	require.Len(t, notes, 1)
	assert.Equal(t, "1 class created", notes[0].Message)
}

func TestRegistry(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	reg := NewRegistry(time.Hour)
	reg.now = func() time.Time { return now }

	created := 0
	factory := func() *Workspace {
		created++
		return New(new(fakeGateway), nopLogger{}, Options{})
	}

	ws := reg.Open("a", factory)
	assert.Same(t, ws, reg.Open("a", factory))
	assert.Equal(t, 1, created)

	got, ok := reg.Get("a")
	require.True(t, ok)
	assert.Same(t, ws, got)

	_, ok = reg.Get("b")
	assert.False(t, ok)

	// idle workspaces expire
	now = now.Add(2 * time.Hour)
	_, ok = reg.Get("a")
	assert.False(t, ok)
	assert.NotSame(t, ws, reg.Open("a", factory))
	assert.Equal(t, 2, created)

	reg.Drop("a")
	assert.Equal(t, 0, reg.Len())
}
