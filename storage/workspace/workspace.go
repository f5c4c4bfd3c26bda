// Package workspace keeps the state of each browser session between requests:
// the resolved API session, the upload wizards and the pending notifications.
package workspace

import (
	"context"
	"sync"
	"time"

	"github.com/trezcool/attendance/core"
	"github.com/trezcool/attendance/core/batch"
	"github.com/trezcool/attendance/core/manager"
	"github.com/trezcool/attendance/core/notify"
	"github.com/trezcool/attendance/core/session"
	"github.com/trezcool/attendance/core/upload"
)

// Gateway is the part of the API a workspace drives.
type Gateway interface {
	batch.Gateway
	manager.Gateway
	GetSession(ctx context.Context) (session.Session, error)
}

type Options struct {
	Limits           upload.Limits
	ActionTimeout    time.Duration
	DefaultStartWeek int
}

type Workspace struct {
	Session  *session.Store
	Batch    *batch.Workflow
	Managers *manager.Workflow
	Notices  *notify.Queue

	mu       sync.Mutex
	lastSeen time.Time
}

func New(gw Gateway, logger core.Logger, opts Options) *Workspace {
	notices := notify.NewQueue()
	return &Workspace{
		Session: session.NewStore(gw.GetSession, logger),
		Batch: batch.NewWorkflow(gw, notices, batch.Options{
			StartWeek:     opts.DefaultStartWeek,
			Limits:        opts.Limits,
			ActionTimeout: opts.ActionTimeout,
		}),
		Managers: manager.NewWorkflow(gw, notices, manager.Options{
			Limits:        opts.Limits,
			ActionTimeout: opts.ActionTimeout,
		}),
		Notices:  notices,
		lastSeen: time.Now(),
	}
}

func (ws *Workspace) touch(now time.Time) {
	ws.mu.Lock()
	ws.lastSeen = now
	ws.mu.Unlock()
}

func (ws *Workspace) idleSince(now time.Time) time.Duration {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return now.Sub(ws.lastSeen)
}

// Factory builds the workspace of a new browser session.
type Factory func() *Workspace

// Registry holds one Workspace per browser-session ID and forgets the ones idle for longer than ttl.
type Registry struct {
	mu     sync.Mutex
	ttl    time.Duration
	spaces map[string]*Workspace
	now    func() time.Time
}

func NewRegistry(ttl time.Duration) *Registry {
	return &Registry{ttl: ttl, spaces: make(map[string]*Workspace), now: time.Now}
}

// Open returns the workspace of a browser session, creating it with newWs on first use.
func (r *Registry) Open(id string, newWs Factory) *Workspace {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if ws, ok := r.spaces[id]; ok && !r.expired(ws, now) {
		ws.touch(now)
		return ws
	}
	r.purge(now)

	ws := newWs()
	ws.touch(now)
	r.spaces[id] = ws
	return ws
}

// Get returns the live workspace of a browser session, if any.
func (r *Registry) Get(id string) (*Workspace, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	ws, ok := r.spaces[id]
	if !ok || r.expired(ws, now) {
		return nil, false
	}
	ws.touch(now)
	return ws, true
}

// Drop forgets the workspace of a browser session (logout).
func (r *Registry) Drop(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ws, ok := r.spaces[id]; ok {
		ws.Session.Clear()
		delete(r.spaces, id)
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.spaces)
}

func (r *Registry) expired(ws *Workspace, now time.Time) bool {
	return r.ttl > 0 && ws.idleSince(now) >= r.ttl
}

// purge drops the expired workspaces. The caller must hold the lock.
func (r *Registry) purge(now time.Time) {
	for id, ws := range r.spaces {
		if r.expired(ws, now) {
			delete(r.spaces, id)
		}
	}
}
