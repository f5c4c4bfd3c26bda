// Package manager implements the class group manager ingestion workflow.
package manager

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/attendance/core"
	"github.com/trezcool/attendance/core/staging"
	"github.com/trezcool/attendance/core/upload"
	"github.com/trezcool/attendance/core/wizard"
)

// AttachmentsField is the multipart field carrying manager files.
const AttachmentsField = "manager-attachments"

type Gateway interface {
	SubmitManagerFiles(ctx context.Context, files []upload.File) ([]Record, error)
	ConfirmManagers(ctx context.Context, records []Record) error
}

type Notifier interface {
	Success(msg string)
	Error(msg string)
}

type Options struct {
	Limits        upload.Limits
	ActionTimeout time.Duration
}

type Workflow struct {
	gw       Gateway
	notifier Notifier
	limits   upload.Limits

	Files  *upload.Selection
	Staged *staging.Store[Record]
	*wizard.Sequencer
}

func NewWorkflow(gw Gateway, notifier Notifier, opts Options) *Workflow {
	wf := &Workflow{
		gw:       gw,
		notifier: notifier,
		limits:   opts.Limits,
		Files:    upload.NewSelection(),
		Staged:   staging.NewStore[Record](nil),
	}

	seqOpts := []wizard.Option{
		wizard.WithEnabled(func() bool { return !wf.Files.Empty() }),
		wizard.WithReset(wf.clear),
		wizard.WithActionTimeout(opts.ActionTimeout),
	}
	if notifier != nil {
		seqOpts = append(seqOpts, wizard.WithNotifier(notifier))
	}
	wf.Sequencer = wizard.New([]wizard.Step{
		{Label: "Upload files", Action: wf.submit},
		{Label: "Confirm managers", Action: wf.confirm},
		{Label: "Done", Action: wf.done},
	}, seqOpts...)
	return wf
}

func (wf *Workflow) SelectFiles(files []upload.File) error {
	if wf.Busy() {
		return wizard.ErrBusy
	}
	if wf.Current() != wizard.StepSelecting {
		return wizard.ErrLocked
	}
	if err := upload.Validate(files, wf.limits, AttachmentsField); err != nil {
		return err
	}
	wf.Files.SetFiles(files)
	return nil
}

func (wf *Workflow) Reset() error {
	return wf.Sequencer.Restart()
}

func (wf *Workflow) clear() {
	wf.Files.Reset()
	wf.Staged.Reset()
}

func (wf *Workflow) submit(ctx context.Context) error {
	records, err := wf.gw.SubmitManagerFiles(ctx, wf.Files.Files())
	if err != nil {
		return errors.Wrap(err, "submitting manager files")
	}
	if len(records) == 0 {
		return core.NewValidationError(errors.New("the uploaded files do not describe any manager"))
	}
	wf.Staged.SetData(records)
	return nil
}

func (wf *Workflow) confirm(ctx context.Context) error {
	records := wf.Staged.Data()
	if len(records) == 0 {
		return core.NewValidationError(errors.New("there is nothing to confirm, upload the files again"))
	}
	if err := CheckRecords(records); err != nil {
		return err
	}
	if err := wf.gw.ConfirmManagers(ctx, records); err != nil {
		return errors.Wrap(err, "confirming managers")
	}
	if wf.notifier != nil {
		noun := "managers"
		if len(records) == 1 {
			noun = "manager"
		}
		wf.notifier.Success(fmt.Sprintf("%d class group %s assigned", len(records), noun))
	}
	return nil
}

func (wf *Workflow) done(context.Context) error {
	wf.clear()
	return nil
}
