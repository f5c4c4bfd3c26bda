package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/trezcool/attendance/services/gateway"
)

// download saves a file served by the API under dir.
func (cli *commandLine) download(dir string, fetch func(ctx context.Context) (gateway.Download, error)) error {
	ctx := context.Background()
	if cli.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cli.timeout)
		defer cancel()
	}

	dl, err := fetch(ctx)
	if err != nil {
		return err
	}
	if err = os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "creating %s", dir)
	}

	name := filepath.Join(dir, dl.Filename)
	f, err := os.Create(name)
	if err != nil {
		return errors.Wrapf(err, "creating %s", name)
	}
	if _, err = dl.WriteTo(f); err != nil {
		f.Close()
		return errors.Wrapf(err, "writing %s", name)
	}
	if err = f.Close(); err != nil {
		return errors.Wrapf(err, "closing %s", name)
	}

	fmt.Fprintf(cli.out, "saved %s (%d bytes)\n", name, len(dl.Body))
	return nil
}
