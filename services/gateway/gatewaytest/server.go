// Package gatewaytest provides an in-memory attendance API for tests.
package gatewaytest

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/attendance/core/attendance"
	"github.com/trezcool/attendance/core/batch"
	"github.com/trezcool/attendance/core/manager"
	"github.com/trezcool/attendance/core/session"
)

type (
	// Call is a request received by the server.
	Call struct {
		Method string
		Path   string
		Token  string
	}

	// Upload is a multipart request received by the server.
	Upload struct {
		Files  map[string][]byte // file name → content
		Fields map[string]string
	}

	// File is served by the download endpoints.
	File struct {
		Name        string
		ContentType string
		Body        []byte
		Disposition string // overrides the Content-Disposition header built from Name
	}

	failure struct {
		status int
		msg    string
		raw    bool
	}

	heldRequest struct {
		arrived chan struct{}
		release chan struct{}
	}
)

type Server struct {
	*httptest.Server

	mu        sync.Mutex
	sessions  map[string]session.Session // bearer token → session
	items     map[string][]interface{}   // resource path → entities
	preview   []batch.Record
	managers  []manager.Record
	upcoming  map[int]attendance.UpcomingSession
	downloads map[string]File // request path → file
	failures  map[string]failure
	holds     map[string]*heldRequest
	calls     []Call
	nextID    int

	BatchUploads      []Upload
	ManagerUploads    []Upload
	ConfirmedBatches  [][]batch.Record
	ConfirmedManagers [][]manager.Record
	AttendanceUpdates []attendance.AttendanceUpdate
	Rules             []attendance.NewRule
}

func NewServer() *Server {
	s := &Server{
		sessions:  make(map[string]session.Session),
		items:     make(map[string][]interface{}),
		upcoming:  make(map[int]attendance.UpcomingSession),
		downloads: make(map[string]File),
		failures:  make(map[string]failure),
		holds:     make(map[string]*heldRequest),
		nextID:    1,
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(s.record, s.hold, s.fail, s.authenticate)

	e.GET("/session", s.getSession)
	e.GET("/users/me", s.getMe)
	for _, res := range attendance.Resources {
		res := res
		e.GET("/"+res.Path, func(c echo.Context) error { return s.list(c, res) })
		e.GET("/"+res.Path+"/:id", func(c echo.Context) error { return s.get(c, res) })
	}
	e.POST("/batch", s.submitBatch)
	e.PUT("/batch", s.confirmBatch)
	e.POST("/class-group-managers", s.submitManagers)
	e.PUT("/class-group-managers", s.confirmManagers)
	e.GET("/upcoming-class-group-sessions/:id", s.getUpcoming)
	e.PATCH("/upcoming-class-group-sessions/:id/attendances/:enrollmentId", s.updateAttendance)
	e.POST("/coordinating-classes/:id/rules", s.createRule)
	e.GET("/coordinating-classes/:id/report", s.download)
	e.GET("/data-export", s.download)

	s.Server = httptest.NewServer(e)
	return s
}

// AddSession makes token a valid credential for sess.
func (s *Server) AddSession(token string, sess session.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = sess
}

// Seed appends entities to a listable resource. Entities must marshal to objects with an "id".
func (s *Server) Seed(res attendance.Resource, items ...interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[res.Path] = append(s.items[res.Path], items...)
}

// SetBatchPreview sets the records returned by POST /batch.
func (s *Server) SetBatchPreview(records []batch.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.preview = records
}

// SetManagerPreview sets the records returned by POST /class-group-managers.
func (s *Server) SetManagerPreview(records []manager.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.managers = records
}

func (s *Server) SetUpcoming(id int, us attendance.UpcomingSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upcoming[id] = us
}

// SetDownload serves f at path.
func (s *Server) SetDownload(path string, f File) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.downloads[path] = f
}

// Fail makes requests to method+path answer status with the {"error": msg} envelope.
func (s *Server) Fail(method, path string, status int, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = failure{status: status, msg: msg}
}

// FailRaw makes requests to method+path answer status with a non-envelope body.
func (s *Server) FailRaw(method, path string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = failure{status: status, msg: body, raw: true}
}

func (s *Server) Recover(method, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, method+" "+path)
}

// Hold blocks the next request to method+path until release is called.
// arrived is closed once that request is received.
func (s *Server) Hold(method, path string) (arrived <-chan struct{}, release func()) {
	h := &heldRequest{arrived: make(chan struct{}), release: make(chan struct{})}
	s.mu.Lock()
	s.holds[method+" "+path] = h
	s.mu.Unlock()

	var once sync.Once
	return h.arrived, func() { once.Do(func() { close(h.release) }) }
}

func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	calls := make([]Call, len(s.calls))
	copy(calls, s.calls)
	return calls
}

// CallCount counts the requests received for method+path.
func (s *Server) CallCount(method, path string) int {
	n := 0
	for _, call := range s.Calls() {
		if call.Method == method && call.Path == path {
			n++
		}
	}
	return n
}

func (s *Server) record(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		s.mu.Lock()
		s.calls = append(s.calls, Call{
			Method: req.Method,
			Path:   req.URL.Path,
			Token:  strings.TrimPrefix(req.Header.Get("Authorization"), "Bearer "),
		})
		s.mu.Unlock()
		return next(c)
	}
}

func (s *Server) hold(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		key := c.Request().Method + " " + c.Request().URL.Path
		s.mu.Lock()
		h, ok := s.holds[key]
		delete(s.holds, key)
		s.mu.Unlock()
		if ok {
			close(h.arrived)
			<-h.release
		}
		return next(c)
	}
}

func (s *Server) fail(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		s.mu.Lock()
		f, ok := s.failures[req.Method+" "+req.URL.Path]
		s.mu.Unlock()
		if !ok {
			return next(c)
		}
		if f.raw {
			return c.String(f.status, f.msg)
		}
		return c.JSON(f.status, echo.Map{"error": f.msg})
	}
}

func (s *Server) authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, ok := s.session(c); !ok {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired credentials"})
		}
		return next(c)
	}
}

func (s *Server) session(c echo.Context) (session.Session, bool) {
	auth := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return session.Session{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[strings.TrimPrefix(auth, "Bearer ")]
	return sess, ok
}

func notFound(c echo.Context) error {
	return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}

func (s *Server) getSession(c echo.Context) error {
	sess, _ := s.session(c)
	return c.JSON(http.StatusOK, sess)
}

func (s *Server) getMe(c echo.Context) error {
	sess, _ := s.session(c)
	return c.JSON(http.StatusOK, echo.Map{"user": sess.User})
}

func (s *Server) list(c echo.Context, res attendance.Resource) error {
	var page attendance.Page
	if err := c.Bind(&page); err != nil {
		return badRequest(c, "invalid pagination")
	}
	page.Clean()

	s.mu.Lock()
	all := s.items[res.Path]
	s.mu.Unlock()

	items := make([]interface{}, 0)
	if page.Offset < len(all) {
		end := page.Offset + page.Limit
		if end > len(all) {
			end = len(all)
		}
		items = all[page.Offset:end]
	}
	return c.JSON(http.StatusOK, echo.Map{
		res.ListKey: items,
		"meta":      attendance.Meta{Total: len(all)},
	})
}

func (s *Server) get(c echo.Context, res attendance.Resource) error {
	id := c.Param("id")
	s.mu.Lock()
	all := s.items[res.Path]
	s.mu.Unlock()

	for _, item := range all {
		data, _ := json.Marshal(item)
		var ident struct {
			ID interface{} `json:"id"`
		}
		if json.Unmarshal(data, &ident) == nil && ident.ID != nil && fmt.Sprint(ident.ID) == id {
			return c.JSON(http.StatusOK, echo.Map{res.ItemKey: item})
		}
	}
	return notFound(c)
}

func readUpload(c echo.Context, field string) (Upload, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return Upload{}, err
	}
	up := Upload{Files: make(map[string][]byte), Fields: make(map[string]string)}
	for name, vals := range form.Value {
		if len(vals) > 0 {
			up.Fields[name] = vals[0]
		}
	}
	for _, fh := range form.File[field] {
		f, err := fh.Open()
		if err != nil {
			return Upload{}, err
		}
		data, err := ioutil.ReadAll(f)
		f.Close()
		if err != nil {
			return Upload{}, err
		}
		up.Files[fh.Filename] = data
	}
	return up, nil
}

func (s *Server) submitBatch(c echo.Context) error {
	up, err := readUpload(c, batch.AttachmentsField)
	if err != nil || len(up.Files) == 0 {
		return badRequest(c, "no batch attachments")
	}
	if _, err := strconv.Atoi(up.Fields["start_week"]); err != nil {
		return badRequest(c, "start_week must be a number")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.BatchUploads = append(s.BatchUploads, up)
	return c.JSON(http.StatusOK, echo.Map{"batches": s.preview})
}

func (s *Server) confirmBatch(c echo.Context) error {
	var req struct {
		Batches []batch.Record `json:"batches"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid batches")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ConfirmedBatches = append(s.ConfirmedBatches, req.Batches)
	ids := make([]int, len(req.Batches))
	for i := range ids {
		ids[i] = s.nextID
		s.nextID++
	}
	return c.JSON(http.StatusOK, echo.Map{"class_ids": ids})
}

func (s *Server) submitManagers(c echo.Context) error {
	up, err := readUpload(c, manager.AttachmentsField)
	if err != nil || len(up.Files) == 0 {
		return badRequest(c, "no manager attachments")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ManagerUploads = append(s.ManagerUploads, up)
	return c.JSON(http.StatusOK, echo.Map{"class_group_managers": s.managers})
}

func (s *Server) confirmManagers(c echo.Context) error {
	var req struct {
		Managers []manager.Record `json:"class_group_managers"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid class group managers")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ConfirmedManagers = append(s.ConfirmedManagers, req.Managers)
	return c.JSON(http.StatusOK, echo.Map{"class_group_managers": req.Managers})
}

func (s *Server) getUpcoming(c echo.Context) error {
	id, _ := strconv.Atoi(c.Param("id"))
	s.mu.Lock()
	us, ok := s.upcoming[id]
	s.mu.Unlock()
	if !ok {
		return notFound(c)
	}
	return c.JSON(http.StatusOK, us)
}

func (s *Server) updateAttendance(c echo.Context) error {
	id, _ := strconv.Atoi(c.Param("id"))
	enrollmentID, _ := strconv.Atoi(c.Param("enrollmentId"))
	var update attendance.AttendanceUpdate
	if err := c.Bind(&update); err != nil {
		return badRequest(c, "invalid attendance")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	us, ok := s.upcoming[id]
	if !ok {
		return notFound(c)
	}
	for i, att := range us.Attendances {
		if att.ID == enrollmentID {
			us.Attendances[i].Attended = update.Attended
			s.AttendanceUpdates = append(s.AttendanceUpdates, update)
			return c.JSON(http.StatusOK, echo.Map{"attended": update.Attended})
		}
	}
	return notFound(c)
}

func (s *Server) createRule(c echo.Context) error {
	classID, _ := strconv.Atoi(c.Param("id"))
	var rule attendance.NewRule
	if err := c.Bind(&rule); err != nil {
		return badRequest(c, "invalid rule")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Rules = append(s.Rules, rule)
	created := attendance.ClassAttendanceRule{
		ID:          s.nextID,
		ClassID:     classID,
		Title:       rule.Title,
		Description: rule.Description,
		RuleType:    rule.RuleType,
	}
	s.nextID++
	return c.JSON(http.StatusCreated, echo.Map{"class_attendance_rule": created})
}

func (s *Server) download(c echo.Context) error {
	s.mu.Lock()
	f, ok := s.downloads[c.Request().URL.Path]
	s.mu.Unlock()
	if !ok {
		return notFound(c)
	}
	disposition := f.Disposition
	if disposition == "" && f.Name != "" {
		disposition = fmt.Sprintf("attachment; filename=%q", f.Name)
	}
	if disposition != "" {
		c.Response().Header().Set(echo.HeaderContentDisposition, disposition)
	}
	ct := f.ContentType
	if ct == "" {
		ct = echo.MIMEOctetStream
	}
	return c.Blob(http.StatusOK, ct, f.Body)
}
