package echoweb

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/attendance/core"
	"github.com/trezcool/attendance/core/attendance"
)

type upcomingView struct {
	attendance.UpcomingSession
	Present int
}

func (s *server) registerAttendanceRoutes() {
	g := s.app.Group("/upcoming-class-group-sessions/:id", s.gate(managerGate))
	g.GET("", s.upcomingSession)
	g.POST("/attendances/:enrollmentId", s.updateAttendance)
}

func pathID(ctx echo.Context, name string) (int, error) {
	id, err := strconv.Atoi(ctx.Param(name))
	if err != nil || id <= 0 {
		return 0, errHttpNotFound
	}
	return id, nil
}

func (s *server) renderUpcoming(ctx echo.Context, code, sessionID int, fieldErrs map[string]string) error {
	client, err := contextClient(ctx)
	if err != nil {
		return err
	}
	us, err := client.GetUpcomingSession(ctx.Request().Context(), sessionID)
	if err != nil {
		return err
	}

	view := upcomingView{UpcomingSession: us}
	for _, att := range us.Attendances {
		if att.Attended {
			view.Present++
		}
	}
	title := fmt.Sprintf("Attendance: session %d", sessionID)
	return s.page(ctx, code, "upcoming.gohtml", title, view, fieldErrs)
}

func (s *server) upcomingSession(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	return s.renderUpcoming(ctx, http.StatusOK, id, nil)
}

func (s *server) updateAttendance(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	enrollmentID, err := pathID(ctx, "enrollmentId")
	if err != nil {
		return err
	}

	var form attendance.AttendanceUpdate
	if err = ctx.Bind(&form); err != nil {
		return errBadRequest
	}
	if err = form.Validate(s.Validate); err != nil {
		if fieldErrs := core.FieldErrors(err, s.Translator); fieldErrs != nil {
			return s.renderUpcoming(ctx, http.StatusBadRequest, id, fieldErrs)
		}
		return errors.Wrap(err, "validating attendance")
	}

	client, err := contextClient(ctx)
	if err != nil {
		return err
	}
	ws := contextWorkspace(ctx)
	attended, err := client.UpdateAttendance(ctx.Request().Context(), id, enrollmentID, form)
	if err != nil {
		if err = notifyFailure(ctx, err); err != nil {
			return err
		}
	} else if attended {
		ws.Notices.Success("Marked present.")
	} else {
		ws.Notices.Success("Marked absent.")
	}
	return ctx.Redirect(http.StatusSeeOther, fmt.Sprintf("/upcoming-class-group-sessions/%d", id))
}
