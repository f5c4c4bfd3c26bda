package echoweb

import (
	"io"
	"io/ioutil"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/attendance/core/upload"
	"github.com/trezcool/attendance/core/wizard"
	"github.com/trezcool/attendance/services/gateway"
	"github.com/trezcool/attendance/storage/workspace"
)

const (
	msgBusy     = "The previous step is still running, please wait."
	msgNoFiles  = "Please select at least one file."
	msgNoAction = "This step cannot run right now."
	msgLocked   = "Files can only be changed before they are uploaded. Reset the wizard to start over."
)

// wizardView is the state shared by the upload wizard pages.
type wizardView struct {
	Base    string // URL prefix of the wizard's actions
	Field   string // multipart field of the file input
	Step    int
	Label   string
	Labels  []string
	Busy    bool
	Enabled bool
	Files   []upload.Summary
}

func newWizardView(base, field string, seq *wizard.Sequencer, files *upload.Selection) wizardView {
	return wizardView{
		Base:    base,
		Field:   field,
		Step:    seq.Current(),
		Label:   seq.Label(),
		Labels:  seq.Labels(),
		Busy:    seq.Busy(),
		Enabled: seq.Enabled(),
		Files:   upload.InspectAll(files.Files()),
	}
}

func (v wizardView) Selecting() bool  { return v.Step == wizard.StepSelecting }
func (v wizardView) Previewing() bool { return v.Step == wizard.StepPreviewing }
func (v wizardView) Completed() bool  { return v.Step == wizard.StepCompleted }

// readFiles reads the files picked in a multipart field. Sizes are checked by upload.Validate,
// reads stop one byte past the limit.
func readFiles(ctx echo.Context, field string, limits upload.Limits) ([]upload.File, error) {
	form, err := ctx.MultipartForm()
	if err != nil {
		if err == http.ErrNotMultipart {
			return nil, nil
		}
		return nil, errBadRequest
	}

	headers := form.File[field]
	files := make([]upload.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, errors.Wrapf(err, "opening %s", fh.Filename)
		}
		var r io.Reader = f
		if limits.MaxFileSize > 0 {
			r = io.LimitReader(f, limits.MaxFileSize+1)
		}
		data, err := ioutil.ReadAll(r)
		f.Close()
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s", fh.Filename)
		}
		files = append(files, upload.File{
			Name:        fh.Filename,
			ContentType: fh.Header.Get(echo.HeaderContentType),
			Data:        data,
		})
	}
	return files, nil
}

// stepFailure reports a wizard call that was refused or failed.
// Action failures were already notified by the sequencer.
func stepFailure(ws *workspace.Workspace, err error) error {
	switch errors.Cause(err) {
	case wizard.ErrBusy:
		ws.Notices.Info(msgBusy)
		return nil
	case wizard.ErrLocked:
		ws.Notices.Error(msgLocked)
		return nil
	case wizard.ErrDisabled:
		ws.Notices.Error(msgNoFiles)
		return nil
	case wizard.ErrNoSteps:
		ws.Notices.Error(msgNoAction)
		return nil
	}
	if gateway.StatusCode(err) == http.StatusUnauthorized {
		return err
	}
	return nil
}
