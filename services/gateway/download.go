package gateway

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/pkg/errors"
)

const defaultFilename = "download"

// Download is a file served by the API.
type Download struct {
	Filename    string
	ContentType string
	Body        []byte
}

// DownloadReport fetches the attendance report of a coordinated class.
func (c *Client) DownloadReport(ctx context.Context, classID int) (Download, error) {
	return c.download(ctx, fmt.Sprintf("/coordinating-classes/%d/report", classID))
}

// DownloadDataExport fetches the full data export.
func (c *Client) DownloadDataExport(ctx context.Context) (Download, error) {
	return c.download(ctx, "/data-export")
}

func (c *Client) download(ctx context.Context, p string) (Download, error) {
	req, err := c.newRequest(ctx, http.MethodGet, p, nil, nil)
	if err != nil {
		return Download{}, err
	}
	req.Header.Set("Accept", "*/*")

	resp, err := c.do(req)
	if err != nil {
		return Download{}, err
	}
	defer resp.Body.Close()

	data, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return Download{}, errors.Wrapf(err, "reading %s", p)
	}
	return Download{
		Filename:    Filename(resp.Header.Get("Content-Disposition")),
		ContentType: resp.Header.Get("Content-Type"),
		Body:        data,
	}, nil
}

// Filename recovers the file name of a Content-Disposition header.
// The extended `filename*` parameter wins over `filename`; "download" is used when neither is usable.
func Filename(disposition string) string {
	if disposition == "" {
		return defaultFilename
	}
	// mime decodes `filename*` (RFC 2231) into "filename", taking precedence over the plain one
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return defaultFilename
	}
	name := strings.TrimSpace(params["filename"])
	if name == "" {
		return defaultFilename
	}
	// never let the upstream pick a directory
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	if name == "." || name == "/" || name == ".." {
		return defaultFilename
	}
	return name
}

// WriteTo copies the downloaded body to w.
func (d Download) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(d.Body)
	return int64(n), err
}
