package echoweb

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/attendance/core"
	"github.com/trezcool/attendance/core/notify"
	"github.com/trezcool/attendance/core/session"
)

//go:embed templates/*.gohtml
var templateFS embed.FS

type (
	// pageData is what every template receives.
	pageData struct {
		AppName string
		Title   string
		Path    string
		Session *session.Session
		Notices []notify.Notification
		Errors  map[string]string // field → message
		Data    interface{}
	}

	renderer struct {
		conf  *core.Config
		once  sync.Once
		cache map[string]*template.Template // {page name: base + page}
		err   error
	}
)

var _ echo.Renderer = (*renderer)(nil)

func newRenderer(conf *core.Config) *renderer {
	return &renderer{conf: conf}
}

var templateFuncs = template.FuncMap{
	"cell":     cell,
	"datetime": func(t time.Time) string { return t.Local().Format("Mon 02 Jan 2006 15:04") },
	"inc":      func(i int) int { return i + 1 },
}

// cell formats a JSON value of a generic resource table.
func cell(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		if val {
			return "yes"
		}
		return "no"
	case string:
		return val
	}
	return fmt.Sprint(v)
}

func (r *renderer) parse() {
	r.cache = make(map[string]*template.Template)

	names, err := fs.Glob(templateFS, "templates/*.gohtml")
	if err != nil {
		r.err = errors.Wrap(err, "listing templates")
		return
	}
	for _, name := range names {
		fname := path.Base(name)
		if strings.HasPrefix(fname, "_") {
			continue
		}
		tmpl, err := template.New(fname).Funcs(templateFuncs).ParseFS(templateFS, "templates/_*.gohtml", name)
		if err != nil {
			r.err = errors.Wrapf(err, "parsing %s", fname)
			return
		}
		if r.conf.Debug || r.conf.TestMode {
			tmpl = tmpl.Option("missingkey=error")
		}
		r.cache[fname] = tmpl
	}
}

// Render renders a page inside the base layout, or alone for partial (HX-Request) requests.
func (r *renderer) Render(w io.Writer, name string, data interface{}, ctx echo.Context) error {
	r.once.Do(r.parse)
	if r.err != nil {
		return r.err
	}
	tmpl, ok := r.cache[name]
	if !ok {
		return errors.Errorf("template %s not found", name)
	}

	layout := "base"
	if ctx != nil && ctx.Request().Header.Get("HX-Request") == "true" {
		layout = "partial"
	}

	// render into a buffer so a failing template never sends half a page
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, layout, data); err != nil {
		return errors.Wrapf(err, "rendering %s", name)
	}
	_, err := buf.WriteTo(w)
	return err
}

// page renders a full page with the request's session and pending notifications.
func (s *server) page(ctx echo.Context, code int, name, title string, data interface{}, fieldErrs ...map[string]string) error {
	pd := pageData{
		AppName: s.Conf.AppName,
		Title:   title,
		Path:    ctx.Request().URL.Path,
		Session: contextSession(ctx),
		Data:    data,
	}
	if ws := contextWorkspace(ctx); ws != nil {
		pd.Notices = ws.Notices.Drain()
	}
	if len(fieldErrs) > 0 {
		pd.Errors = fieldErrs[0]
	}
	return ctx.Render(code, name, pd)
}
