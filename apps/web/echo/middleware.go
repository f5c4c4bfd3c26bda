package echoweb

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/attendance/core/authz"
	"github.com/trezcool/attendance/core/session"
	"github.com/trezcool/attendance/services/gateway"
	"github.com/trezcool/attendance/storage/sessions"
	"github.com/trezcool/attendance/storage/workspace"
)

const (
	contextSessionIDKey = "sessionID"
	contextClientKey    = "apiClient"
	contextWorkspaceKey = "workspace"
)

var anonymous = session.NewResolvedStore(nil)

func (s *server) openWorkspace(rec sessions.Record) *workspace.Workspace {
	return s.Workspaces.Open(rec.ID, func() *workspace.Workspace {
		return workspace.New(s.Gateway.WithToken(rec.Token), s.Logger, workspace.Options{
			Limits:           s.uploadLimits(),
			ActionTimeout:    s.Conf.Wizard.ActionTimeout,
			DefaultStartWeek: s.Conf.Batch.DefaultStartWeek,
		})
	})
}

// sessionMiddleware loads the browser session of the cookie, if any, and bootstraps its session store
// before any handler reads it.
func (s *server) sessionMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		cookie, err := ctx.Cookie(cookieName)
		if err != nil || cookie.Value == "" {
			return next(ctx)
		}

		id, err := parseToken(s.Conf.Server.SecretKey, cookie.Value)
		if err != nil {
			s.clearSessionCookie(ctx)
			return next(ctx)
		}
		rec, err := s.Sessions.Get(ctx.Request().Context(), id)
		if err != nil {
			if errors.Cause(err) != sessions.ErrNotFound {
				return errors.Wrap(err, "loading session")
			}
			s.Workspaces.Drop(id)
			s.clearSessionCookie(ctx)
			return next(ctx)
		}

		ws := s.openWorkspace(rec)
		ws.Session.Bootstrap(ctx.Request().Context())

		ctx.Set(contextSessionIDKey, rec.ID)
		ctx.Set(contextClientKey, s.Gateway.WithToken(rec.Token))
		ctx.Set(contextWorkspaceKey, ws)
		return next(ctx)
	}
}

// gate protects a route with an authz.Gate. Denied requests get the gate's fallback, never an error toast.
func (s *server) gate(g authz.Gate) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			switch g.Decide(contextStore(ctx)) {
			case authz.Allow:
				return next(ctx)
			case authz.Loading:
				ctx.Response().Header().Set("Refresh", "1")
				return s.page(ctx, http.StatusOK, "loading.gohtml", "Loading", nil)
			}
			if g.Fallback == authz.FallbackRedirect {
				return ctx.Redirect(http.StatusSeeOther, "/login")
			}
			return errHttpNotFound
		}
	}
}

func contextSessionID(ctx echo.Context) string {
	id, _ := ctx.Get(contextSessionIDKey).(string)
	return id
}

func contextWorkspace(ctx echo.Context) *workspace.Workspace {
	ws, _ := ctx.Get(contextWorkspaceKey).(*workspace.Workspace)
	return ws
}

func contextStore(ctx echo.Context) *session.Store {
	if ws := contextWorkspace(ctx); ws != nil {
		return ws.Session
	}
	return anonymous
}

func contextSession(ctx echo.Context) *session.Session {
	sess, _ := contextStore(ctx).Current()
	return sess
}

// contextClient is the API client bound to the request's credential.
func contextClient(ctx echo.Context) (*gateway.Client, error) {
	if client, ok := ctx.Get(contextClientKey).(*gateway.Client); ok {
		return client, nil
	}
	return nil, errUnauthorized
}
