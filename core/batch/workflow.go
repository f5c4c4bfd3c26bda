// Package batch implements the batch ingestion workflow: spreadsheets describing
// classes are uploaded, previewed by the API, confirmed, then committed.
package batch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/attendance/core"
	"github.com/trezcool/attendance/core/staging"
	"github.com/trezcool/attendance/core/upload"
	"github.com/trezcool/attendance/core/wizard"
)

// AttachmentsField is the multipart field carrying batch files.
const AttachmentsField = "batch-attachments"

// Start week bounds: an academic year has at most 53 ISO weeks.
const (
	MinStartWeek = 1
	MaxStartWeek = 53
)

var errStartWeek = fmt.Sprintf("start week must be between %d and %d", MinStartWeek, MaxStartWeek)

// Gateway is the part of the API the workflow talks to.
type Gateway interface {
	SubmitBatchFiles(ctx context.Context, files []upload.File, startWeek int) ([]Record, error)
	ConfirmBatches(ctx context.Context, records []Record) ([]int, error)
}

// Notifier receives workflow outcomes.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

type Options struct {
	StartWeek     int
	Limits        upload.Limits
	ActionTimeout time.Duration
}

// Workflow owns the file selection, the staged preview and the step sequencer of one batch upload.
type Workflow struct {
	gw       Gateway
	notifier Notifier
	limits   upload.Limits

	Files  *upload.Selection
	Staged *staging.Store[Record]
	*wizard.Sequencer

	mu        sync.RWMutex
	startWeek int
	committed []int
}

func NewWorkflow(gw Gateway, notifier Notifier, opts Options) *Workflow {
	wf := &Workflow{
		gw:        gw,
		notifier:  notifier,
		limits:    opts.Limits,
		Files:     upload.NewSelection(),
		Staged:    staging.NewStore(Record.Clone),
		startWeek: MinStartWeek,
	}
	if opts.StartWeek >= MinStartWeek && opts.StartWeek <= MaxStartWeek {
		wf.startWeek = opts.StartWeek
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
		{Label: "Confirm batches", Action: wf.confirm},
		{Label: "Done", Action: wf.done},
	}, seqOpts...)
	return wf
}

// SelectFiles validates and replaces the selection. Invalid selections leave the previous one untouched.
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

// SetStartWeek sets the academic week used to resolve the uploaded schedules into dates.
func (wf *Workflow) SetStartWeek(week int) error {
	if week < MinStartWeek || week > MaxStartWeek {
		return core.NewValidationError(errors.New(errStartWeek), core.FieldError{Field: "start_week", Error: errStartWeek})
	}
	wf.mu.Lock()
	wf.startWeek = week
	wf.mu.Unlock()
	return nil
}

func (wf *Workflow) StartWeek() int {
	wf.mu.RLock()
	defer wf.mu.RUnlock()
	return wf.startWeek
}

// Committed returns the class IDs created by the last successful commit.
func (wf *Workflow) Committed() []int {
	wf.mu.RLock()
	defer wf.mu.RUnlock()
	return append([]int(nil), wf.committed...)
}

// Grouped returns the staged preview nested by class group.
func (wf *Workflow) Grouped() ([]Grouped, error) {
	return RegroupAll(wf.Staged.Data())
}

// Reset abandons the workflow: selection and preview are cleared and the first step is shown.
// It fails with wizard.ErrBusy while a step is running.
func (wf *Workflow) Reset() error {
	return wf.Sequencer.Restart()
}

func (wf *Workflow) clear() {
	wf.Files.Reset()
	wf.Staged.Reset()
}

// Steps

func (wf *Workflow) submit(ctx context.Context) error {
	records, err := wf.gw.SubmitBatchFiles(ctx, wf.Files.Files(), wf.StartWeek())
	if err != nil {
		return errors.Wrap(err, "submitting batch files")
	}
	if len(records) == 0 {
		return core.NewValidationError(errors.New("the uploaded files do not describe any class"))
	}
	if _, err := RegroupAll(records); err != nil {
		return core.NewValidationError(errors.Wrap(err, "invalid preview"))
	}
	wf.Staged.SetData(records)
	return nil
}

func (wf *Workflow) confirm(ctx context.Context) error {
	records := wf.Staged.Data()
	if len(records) == 0 {
		return core.NewValidationError(errors.New("there is nothing to confirm, upload the files again"))
	}
	classIDs, err := wf.gw.ConfirmBatches(ctx, records)
	if err != nil {
		return errors.Wrap(err, "confirming batches")
	}

	wf.mu.Lock()
	wf.committed = classIDs
	wf.mu.Unlock()

	if wf.notifier != nil {
		wf.notifier.Success(fmt.Sprintf("%d %s created", len(classIDs), plural(len(classIDs), "class", "classes")))
	}
	return nil
}

func (wf *Workflow) done(context.Context) error {
	wf.clear()
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
