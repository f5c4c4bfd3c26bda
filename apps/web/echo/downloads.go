package echoweb

import (
	"mime"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/attendance/services/gateway"
)

func (s *server) registerDownloadRoutes() {
	s.app.GET("/coordinating-classes/:id/report", s.downloadReport, s.gate(coordinatorGate))
	s.app.GET("/data-export", s.downloadDataExport, s.gate(systemAdminGate))
}

func (s *server) downloadReport(ctx echo.Context) error {
	classID, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	client, err := contextClient(ctx)
	if err != nil {
		return err
	}
	dl, err := client.DownloadReport(ctx.Request().Context(), classID)
	return sendDownload(ctx, dl, err)
}

func (s *server) downloadDataExport(ctx echo.Context) error {
	client, err := contextClient(ctx)
	if err != nil {
		return err
	}
	dl, err := client.DownloadDataExport(ctx.Request().Context())
	return sendDownload(ctx, dl, err)
}

// sendDownload streams a downloaded file to the browser as an attachment.
// Failures go back to the previous page with an error toast.
func sendDownload(ctx echo.Context, dl gateway.Download, err error) error {
	if err != nil {
		if err = notifyFailure(ctx, err); err != nil {
			return err
		}
		return back(ctx)
	}

	ct := dl.ContentType
	if ct == "" {
		ct = echo.MIMEOctetStream
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, mime.FormatMediaType("attachment", map[string]string{"filename": dl.Filename}))
	return ctx.Blob(http.StatusOK, ct, dl.Body)
}
