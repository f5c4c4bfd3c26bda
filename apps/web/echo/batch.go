package echoweb

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/attendance/core"
	"github.com/trezcool/attendance/core/batch"
	"github.com/trezcool/attendance/core/wizard"
)

const batchPath = "/batch"

type batchView struct {
	wizardView
	StartWeek    int
	MinStartWeek int
	MaxStartWeek int
	Preview      []batch.Grouped
	Committed    []int
}

func (s *server) registerBatchRoutes() {
	g := s.app.Group(batchPath, s.gate(systemAdminGate))
	g.GET("", s.batchPage)
	g.POST("/files", s.batchSelectFiles)
	g.POST("/advance", s.batchAdvance)
	g.POST("/retreat", s.batchRetreat)
	g.POST("/reset", s.batchReset)
}

func (s *server) renderBatch(ctx echo.Context, code int, fieldErrs map[string]string) error {
	wf := contextWorkspace(ctx).Batch
	view := batchView{
		wizardView:   newWizardView(batchPath, batch.AttachmentsField, wf.Sequencer, wf.Files),
		StartWeek:    wf.StartWeek(),
		MinStartWeek: batch.MinStartWeek,
		MaxStartWeek: batch.MaxStartWeek,
		Committed:    wf.Committed(),
	}
	preview, err := wf.Grouped()
	if err != nil {
		return err
	}
	view.Preview = preview
	return s.page(ctx, code, "batch.gohtml", "Batch upload", view, fieldErrs)
}

func (s *server) batchPage(ctx echo.Context) error {
	return s.renderBatch(ctx, http.StatusOK, nil)
}

func (s *server) batchSelectFiles(ctx echo.Context) error {
	files, err := readFiles(ctx, batch.AttachmentsField, s.uploadLimits())
	if err != nil {
		return err
	}
	ws := contextWorkspace(ctx)
	if err = ws.Batch.SelectFiles(files); err != nil {
		if core.IsValidationError(err) {
			return s.renderBatch(ctx, http.StatusBadRequest, core.FieldErrors(err, s.Translator))
		}
		if err = stepFailure(ws, err); err != nil {
			return err
		}
	}
	return ctx.Redirect(http.StatusSeeOther, batchPath)
}

func (s *server) batchAdvance(ctx echo.Context) error {
	ws := contextWorkspace(ctx)
	wf := ws.Batch

	if raw := ctx.FormValue("start_week"); raw != "" && wf.Current() == wizard.StepSelecting {
		week, _ := strconv.Atoi(raw)
		if err := wf.SetStartWeek(week); err != nil {
			return s.renderBatch(ctx, http.StatusBadRequest, core.FieldErrors(err, s.Translator))
		}
	}
	if _, err := wf.Advance(ctx.Request().Context()); err != nil {
		if err = stepFailure(ws, err); err != nil {
			return err
		}
	}
	return ctx.Redirect(http.StatusSeeOther, batchPath)
}

func (s *server) batchRetreat(ctx echo.Context) error {
	contextWorkspace(ctx).Batch.Retreat()
	return ctx.Redirect(http.StatusSeeOther, batchPath)
}

func (s *server) batchReset(ctx echo.Context) error {
	ws := contextWorkspace(ctx)
	if err := ws.Batch.Reset(); err != nil {
		if err = stepFailure(ws, err); err != nil {
			return err
		}
	}
	return ctx.Redirect(http.StatusSeeOther, batchPath)
}
