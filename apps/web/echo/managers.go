package echoweb

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/attendance/core"
	"github.com/trezcool/attendance/core/manager"
)

const managersPath = "/class-group-managers/upload"

type managerRow struct {
	manager.Record
	RoleName string
}

type managersView struct {
	wizardView
	Preview []managerRow
}

func (s *server) registerManagerRoutes() {
	g := s.app.Group(managersPath, s.gate(systemAdminGate))
	g.GET("", s.managersPage)
	g.POST("/files", s.managersSelectFiles)
	g.POST("/advance", s.managersAdvance)
	g.POST("/retreat", s.managersRetreat)
	g.POST("/reset", s.managersReset)
}

func (s *server) renderManagers(ctx echo.Context, code int, fieldErrs map[string]string) error {
	wf := contextWorkspace(ctx).Managers
	view := managersView{
		wizardView: newWizardView(managersPath, manager.AttachmentsField, wf.Sequencer, wf.Files),
	}
	for _, rec := range wf.Staged.Data() {
		view.Preview = append(view.Preview, managerRow{Record: rec, RoleName: manager.RoleName(rec.ManagingRole)})
	}
	return s.page(ctx, code, "managers.gohtml", "Class group managers upload", view, fieldErrs)
}

func (s *server) managersPage(ctx echo.Context) error {
	return s.renderManagers(ctx, http.StatusOK, nil)
}

func (s *server) managersSelectFiles(ctx echo.Context) error {
	files, err := readFiles(ctx, manager.AttachmentsField, s.uploadLimits())
	if err != nil {
		return err
	}
	ws := contextWorkspace(ctx)
	if err = ws.Managers.SelectFiles(files); err != nil {
		if core.IsValidationError(err) {
			return s.renderManagers(ctx, http.StatusBadRequest, core.FieldErrors(err, s.Translator))
		}
		if err = stepFailure(ws, err); err != nil {
			return err
		}
	}
	return ctx.Redirect(http.StatusSeeOther, managersPath)
}

func (s *server) managersAdvance(ctx echo.Context) error {
	ws := contextWorkspace(ctx)
	if _, err := ws.Managers.Advance(ctx.Request().Context()); err != nil {
		if err = stepFailure(ws, err); err != nil {
			return err
		}
	}
	return ctx.Redirect(http.StatusSeeOther, managersPath)
}

func (s *server) managersRetreat(ctx echo.Context) error {
	contextWorkspace(ctx).Managers.Retreat()
	return ctx.Redirect(http.StatusSeeOther, managersPath)
}

func (s *server) managersReset(ctx echo.Context) error {
	ws := contextWorkspace(ctx)
	if err := ws.Managers.Reset(); err != nil {
		if err = stepFailure(ws, err); err != nil {
			return err
		}
	}
	return ctx.Redirect(http.StatusSeeOther, managersPath)
}
