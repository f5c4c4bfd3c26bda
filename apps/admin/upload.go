package main

import (
	"context"
	"fmt"
	"io/ioutil"
	"mime"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/trezcool/attendance/core/batch"
	"github.com/trezcool/attendance/core/manager"
	"github.com/trezcool/attendance/core/notify"
	"github.com/trezcool/attendance/core/upload"
	"github.com/trezcool/attendance/services/gateway"
)

func readFiles(paths []string) ([]upload.File, error) {
	files := make([]upload.File, 0, len(paths))
	for _, p := range paths {
		data, err := ioutil.ReadFile(p)
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s", p)
		}
		files = append(files, upload.File{
			Name:        filepath.Base(p),
			ContentType: mime.TypeByExtension(filepath.Ext(p)),
			Data:        data,
		})
	}
	return files, nil
}

func (cli *commandLine) printNotices(q *notify.Queue) {
	for _, n := range q.Drain() {
		fmt.Fprintf(cli.out, "[%s] %s\n", n.Level, n.Message)
	}
}

// uploadBatch previews the classes described by the files, then creates them once confirmed.
func (cli *commandLine) uploadBatch(client *gateway.Client, paths []string, startWeek int, yes bool) error {
	files, err := readFiles(paths)
	if err != nil {
		return err
	}

	notices := notify.NewQueue()
	wf := batch.NewWorkflow(client, notices, batch.Options{
		StartWeek:     startWeek,
		Limits:        cli.limits,
		ActionTimeout: cli.timeout,
	})
	if err = wf.SelectFiles(files); err != nil {
		return err
	}
	if err = wf.SetStartWeek(startWeek); err != nil {
		return err
	}

	ctx := context.Background()
	if _, err = wf.Advance(ctx); err != nil {
		cli.printNotices(notices)
		return err
	}
	grouped, err := wf.Grouped()
	if err != nil {
		return err
	}
	for _, g := range grouped {
		fmt.Fprintf(cli.out, "%s %s: %d groups, %d sessions, %d students\n",
			g.Class.Code, g.Class.Name, len(g.Groups), g.SessionCount(), g.StudentCount())
		for _, grp := range g.Groups {
			fmt.Fprintf(cli.out, "  %s (%s): %d sessions, %d students\n", grp.Name, grp.ClassType, len(grp.Sessions), len(grp.Students))
		}
	}

	if !yes && !cli.confirm(fmt.Sprintf("Create %d classes?", len(grouped))) {
		if err = wf.Reset(); err != nil {
			return err
		}
		return errAborted
	}
	if _, err = wf.Advance(ctx); err != nil {
		cli.printNotices(notices)
		return err
	}
	cli.printNotices(notices)
	fmt.Fprintf(cli.out, "class ids: %v\n", wf.Committed())

	_, err = wf.Advance(ctx)
	return err
}

// uploadManagers previews the managers described by the files, then assigns them once confirmed.
func (cli *commandLine) uploadManagers(client *gateway.Client, paths []string, yes bool) error {
	files, err := readFiles(paths)
	if err != nil {
		return err
	}

	notices := notify.NewQueue()
	wf := manager.NewWorkflow(client, notices, manager.Options{Limits: cli.limits, ActionTimeout: cli.timeout})
	if err = wf.SelectFiles(files); err != nil {
		return err
	}

	ctx := context.Background()
	if _, err = wf.Advance(ctx); err != nil {
		cli.printNotices(notices)
		return err
	}
	records := wf.Staged.Data()
	for _, rec := range records {
		fmt.Fprintf(cli.out, "user %s manages class group %d as %s\n", rec.UserID, rec.ClassGroupID, manager.RoleName(rec.ManagingRole))
	}

	if !yes && !cli.confirm(fmt.Sprintf("Assign %d class group managers?", len(records))) {
		if err = wf.Reset(); err != nil {
			return err
		}
		return errAborted
	}
	if _, err = wf.Advance(ctx); err != nil {
		cli.printNotices(notices)
		return err
	}
	cli.printNotices(notices)

	_, err = wf.Advance(ctx)
	return err
}
