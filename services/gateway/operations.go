package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"

	"github.com/pkg/errors"

	"github.com/trezcool/attendance/core/attendance"
	"github.com/trezcool/attendance/core/batch"
	"github.com/trezcool/attendance/core/manager"
	"github.com/trezcool/attendance/core/session"
	"github.com/trezcool/attendance/core/upload"
)

// GetSession fetches the user behind the bound credential and what they may do.
func (c *Client) GetSession(ctx context.Context) (session.Session, error) {
	var sess session.Session
	err := c.doJSON(ctx, http.MethodGet, "/session", nil, nil, &sess)
	return sess, err
}

func (c *Client) GetMe(ctx context.Context) (session.User, error) {
	var resp struct {
		User session.User `json:"user"`
	}
	err := c.doJSON(ctx, http.MethodGet, "/users/me", nil, nil, &resp)
	return resp.User, err
}

// List decodes one page of a resource into dst, which must be a pointer to a slice.
func (c *Client) List(ctx context.Context, res attendance.Resource, page attendance.Page, dst interface{}) (attendance.Meta, error) {
	page.Clean()
	query := url.Values{}
	query.Set("offset", strconv.Itoa(page.Offset))
	query.Set("limit", strconv.Itoa(page.Limit))

	var env map[string]json.RawMessage
	if err := c.doJSON(ctx, http.MethodGet, "/"+res.Path, query, nil, &env); err != nil {
		return attendance.Meta{}, err
	}

	var meta attendance.Meta
	if raw, ok := env["meta"]; ok {
		if err := json.Unmarshal(raw, &meta); err != nil {
			return meta, errors.Wrapf(err, "decoding %s meta", res.Path)
		}
	}
	if raw, ok := env[res.ListKey]; ok {
		if err := json.Unmarshal(raw, dst); err != nil {
			return meta, errors.Wrapf(err, "decoding %s", res.Path)
		}
	}
	return meta, nil
}

// Get decodes a single entity of a resource into dst.
func (c *Client) Get(ctx context.Context, res attendance.Resource, id string, dst interface{}) error {
	var env map[string]json.RawMessage
	if err := c.doJSON(ctx, http.MethodGet, "/"+res.Path+"/"+url.PathEscape(id), nil, nil, &env); err != nil {
		return err
	}
	raw, ok := env[res.ItemKey]
	if !ok {
		return errors.Errorf("%s response has no %q", res.Path, res.ItemKey)
	}
	return errors.Wrapf(json.Unmarshal(raw, dst), "decoding %s", res.ItemKey)
}

// SubmitBatchFiles uploads batch spreadsheets and returns the parsed preview.
func (c *Client) SubmitBatchFiles(ctx context.Context, files []upload.File, startWeek int) ([]batch.Record, error) {
	fields := map[string]string{"start_week": strconv.Itoa(startWeek)}
	var resp struct {
		Batches []batch.Record `json:"batches"`
	}
	if err := c.doMultipart(ctx, http.MethodPost, "/batch", batch.AttachmentsField, files, fields, &resp); err != nil {
		return nil, err
	}
	return resp.Batches, nil
}

// ConfirmBatches commits previewed batches exactly as they were previewed.
func (c *Client) ConfirmBatches(ctx context.Context, records []batch.Record) ([]int, error) {
	req := struct {
		Batches []batch.Record `json:"batches"`
	}{records}
	var resp struct {
		ClassIDs []int `json:"class_ids"`
	}
	if err := c.doJSON(ctx, http.MethodPut, "/batch", nil, req, &resp); err != nil {
		return nil, err
	}
	return resp.ClassIDs, nil
}

func (c *Client) SubmitManagerFiles(ctx context.Context, files []upload.File) ([]manager.Record, error) {
	var resp struct {
		Managers []manager.Record `json:"class_group_managers"`
	}
	if err := c.doMultipart(ctx, http.MethodPost, "/class-group-managers", manager.AttachmentsField, files, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Managers, nil
}

func (c *Client) ConfirmManagers(ctx context.Context, records []manager.Record) error {
	req := struct {
		Managers []manager.Record `json:"class_group_managers"`
	}{records}
	return c.doJSON(ctx, http.MethodPut, "/class-group-managers", nil, req, nil)
}

func (c *Client) GetUpcomingSession(ctx context.Context, sessionID int) (attendance.UpcomingSession, error) {
	var resp attendance.UpcomingSession
	err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/upcoming-class-group-sessions/%d", sessionID), nil, nil, &resp)
	return resp, err
}

// UpdateAttendance marks an enrolled student and returns the recorded attendance.
func (c *Client) UpdateAttendance(ctx context.Context, sessionID, enrollmentID int, update attendance.AttendanceUpdate) (bool, error) {
	path := fmt.Sprintf("/upcoming-class-group-sessions/%d/attendances/%d", sessionID, enrollmentID)
	var resp struct {
		Attended bool `json:"attended"`
	}
	err := c.doJSON(ctx, http.MethodPatch, path, nil, update, &resp)
	return resp.Attended, err
}

func (c *Client) CreateRule(ctx context.Context, classID int, rule attendance.NewRule) (attendance.ClassAttendanceRule, error) {
	var resp struct {
		Rule attendance.ClassAttendanceRule `json:"class_attendance_rule"`
	}
	err := c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/coordinating-classes/%d/rules", classID), nil, rule, &resp)
	return resp.Rule, err
}

func (c *Client) doMultipart(
	ctx context.Context,
	method, path, field string,
	files []upload.File,
	fields map[string]string,
	out interface{},
) error {
	body := new(bytes.Buffer)
	mw := multipart.NewWriter(body)

	for name, val := range fields {
		if err := mw.WriteField(name, val); err != nil {
			return errors.Wrap(err, "writing multipart field")
		}
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, f.Name))
		ct := f.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)

		part, err := mw.CreatePart(h)
		if err != nil {
			return errors.Wrap(err, "creating multipart file")
		}
		if _, err := part.Write(f.Data); err != nil {
			return errors.Wrapf(err, "writing %s", f.Name)
		}
	}
	if err := mw.Close(); err != nil {
		return errors.Wrap(err, "closing multipart body")
	}

	req, err := c.newRequest(ctx, method, path, nil, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.send(req, out)
}
