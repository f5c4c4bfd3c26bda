package echoweb

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/attendance/core"
	"github.com/trezcool/attendance/core/attendance"
)

type ruleView struct {
	ClassID   int
	Form      attendance.RuleForm
	RuleTypes []string
}

func (s *server) registerRuleRoutes() {
	g := s.app.Group("/coordinating-classes/:id/rules", s.gate(coordinatorGate))
	g.GET("/new", s.newRule)
	g.POST("", s.createRule)
}

func (s *server) renderRule(ctx echo.Context, code, classID int, form attendance.RuleForm, fieldErrs map[string]string) error {
	view := ruleView{ClassID: classID, Form: form, RuleTypes: attendance.RuleTypes}
	return s.page(ctx, code, "rule_new.gohtml", "New attendance rule", view, fieldErrs)
}

func (s *server) newRule(ctx echo.Context) error {
	classID, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	form := attendance.RuleForm{RuleType: attendance.RuleTypeConsecutive, ConsecutiveLimit: 3}
	return s.renderRule(ctx, http.StatusOK, classID, form, nil)
}

func (s *server) createRule(ctx echo.Context) error {
	classID, err := pathID(ctx, "id")
	if err != nil {
		return err
	}

	var form attendance.RuleForm
	if err = ctx.Bind(&form); err != nil {
		return errBadRequest
	}
	rule := form.NewRule()
	if err = rule.Validate(s.Validate); err != nil {
		if fieldErrs := core.FieldErrors(err, s.Translator); fieldErrs != nil {
			return s.renderRule(ctx, http.StatusBadRequest, classID, form, fieldErrs)
		}
		return errors.Wrap(err, "validating rule")
	}

	client, err := contextClient(ctx)
	if err != nil {
		return err
	}
	created, err := client.CreateRule(ctx.Request().Context(), classID, rule)
	if err != nil {
		if err = notifyFailure(ctx, err); err != nil {
			return err
		}
		// keep what was typed
		return s.renderRule(ctx, http.StatusOK, classID, form, nil)
	}

	contextWorkspace(ctx).Notices.Success(fmt.Sprintf("Rule %q created.", created.Title))
	return ctx.Redirect(http.StatusSeeOther, fmt.Sprintf("/coordinating-classes/%d/rules/new", classID))
}
