package echoweb

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/attendance/core"
	"github.com/trezcool/attendance/core/attendance"
	"github.com/trezcool/attendance/core/authz"
	"github.com/trezcool/attendance/core/session"
	"github.com/trezcool/attendance/core/upload"
	"github.com/trezcool/attendance/services/gateway"
)

var (
	dashboardGate   = authz.NewGate(authz.LoggedIn, authz.FallbackRedirect)
	loggedInGate    = authz.NewGate(authz.LoggedIn)
	systemAdminGate = authz.NewGate(authz.HasRole(session.RoleSystemAdmin))
	managerGate     = authz.NewGate(authz.CanManageClassGroups)
	coordinatorGate = authz.NewGate(authz.IsCourseCoordinator)
)

type dashboard struct {
	Resources []attendance.Resource
}

func (s *server) registerPageRoutes() {
	s.app.GET("/", s.dashboard, s.gate(dashboardGate))
	s.app.GET("/me", s.profile, s.gate(loggedInGate))
}

func (s *server) dashboard(ctx echo.Context) error {
	return s.page(ctx, http.StatusOK, "dashboard.gohtml", "Dashboard", dashboard{Resources: attendance.Resources})
}

// profile shows the user as the API currently knows them.
func (s *server) profile(ctx echo.Context) error {
	client, err := contextClient(ctx)
	if err != nil {
		return err
	}
	usr, err := client.GetMe(ctx.Request().Context())
	if err != nil {
		return err
	}
	return s.page(ctx, http.StatusOK, "me.gohtml", "My profile", usr)
}

func (s *server) uploadLimits() upload.Limits {
	return upload.Limits{MaxFiles: s.Conf.Upload.MaxFiles, MaxFileSize: s.Conf.Upload.MaxFileSize}
}

// notifyFailure turns a failed API call into an error toast so the handler can re-render its page.
// Failures that must not render the page (not found, expired credentials) are returned as is.
func notifyFailure(ctx echo.Context, err error) error {
	switch gateway.StatusCode(err) {
	case http.StatusNotFound, http.StatusUnauthorized, http.StatusForbidden:
		return err
	}
	ws := contextWorkspace(ctx)
	if ws == nil {
		return err
	}
	ws.Notices.Error(core.ErrorMessage(err, core.GenericErrorMessage))
	return nil
}

// back redirects to the referring page of this site, or to the dashboard.
func back(ctx echo.Context) error {
	to := "/"
	if ref := ctx.Request().Referer(); ref != "" {
		if u, err := ctx.Request().URL.Parse(ref); err == nil && u.Host == ctx.Request().Host {
			to = u.RequestURI()
		}
	}
	return ctx.Redirect(http.StatusSeeOther, to)
}
