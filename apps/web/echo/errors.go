package echoweb

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/attendance/core"
	"github.com/trezcool/attendance/core/session"
	"github.com/trezcool/attendance/services/gateway"
)

var (
	errUnauthorized = echo.NewHTTPError(http.StatusUnauthorized, "not signed in")
	errBadRequest   = echo.NewHTTPError(http.StatusBadRequest, "invalid request")
	errHttpNotFound = echo.NewHTTPError(http.StatusNotFound, "not found")
)

type errorPage struct {
	Code    int
	Message string
	Fields  map[string]string
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that renders our errors as pages.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		page := errorPage{}
		tmpl := "error.gohtml"

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			page.Code = origErr.Code
			if msg, ok := origErr.Message.(string); ok {
				page.Message = msg
			} else {
				page.Message = http.StatusText(origErr.Code)
			}
		case *gateway.Error:
			switch origErr.StatusCode {
			case http.StatusNotFound:
				page.Code = http.StatusNotFound
			case http.StatusUnauthorized:
				// the API no longer accepts the credential: sign in again
				if ws := contextWorkspace(ctx); ws != nil {
					ws.Session.Clear()
				}
				if !ctx.Response().Committed {
					_ = ctx.Redirect(http.StatusSeeOther, "/login")
				}
				return
			case http.StatusForbidden:
				page.Code = http.StatusNotFound
			default:
				page.Code = http.StatusBadGateway
				page.Message = gateway.Message(err, core.GenericErrorMessage)
				logger.Warn("api error", err, contextUser(ctx))
			}
		case validator.ValidationErrors:
			page.Code = http.StatusBadRequest
			page.Message = "Please correct the errors below."
			page.Fields = core.FieldErrors(origErr, translator)
		case *core.ValidationError:
			page.Code = http.StatusBadRequest
			page.Message = origErr.Error()
			if len(origErr.Fields) > 0 {
				page.Fields = origErr.FieldMap()
			}
		default: // any other error is a server error
			page.Code = http.StatusInternalServerError
			page.Message = core.GenericErrorMessage
			logger.Error(http.StatusText(http.StatusInternalServerError), errors.Wrap(err, "unhandled"), contextUser(ctx))

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if page.Code == http.StatusNotFound {
			tmpl = "not_found.gohtml"
			page.Message = "The page you are looking for does not exist."
		} else if ctx.Echo().Debug && page.Code >= http.StatusInternalServerError {
			page.Message = err.Error()
		}

		// Send response
		if ctx.Response().Committed {
			return
		}
		if ctx.Request().Method == http.MethodHead { // Issue #608
			err = ctx.NoContent(page.Code)
		} else {
			err = ctx.Render(page.Code, tmpl, errorData(ctx, page))
		}
		if err != nil {
			ctx.Echo().Logger.Error(err)
			_ = ctx.String(page.Code, page.Message)
		}
	}
}

func errorData(ctx echo.Context, page errorPage) pageData {
	pd := pageData{
		Title:   http.StatusText(page.Code),
		Path:    ctx.Request().URL.Path,
		Session: contextSession(ctx),
		Errors:  page.Fields,
		Data:    page,
	}
	if srv, ok := ctx.Echo().Renderer.(*renderer); ok {
		pd.AppName = srv.conf.AppName
	}
	if ws := contextWorkspace(ctx); ws != nil {
		pd.Notices = ws.Notices.Drain()
	}
	return pd
}

func contextUser(ctx echo.Context) session.User {
	if sess := contextSession(ctx); sess != nil {
		return sess.User
	}
	return session.User{}
}
