package main

import (
	"bufio"
	"log"
	"os"

	"github.com/trezcool/attendance/core"
	"github.com/trezcool/attendance/core/upload"
	"github.com/trezcool/attendance/services/gateway"
	logsvc "github.com/trezcool/attendance/services/logger"
)

func main() {
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stderr, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(false)

	// start CLI
	cli := commandLine{
		gw:        gateway.New(conf.Gateway.BaseURL, gateway.WithTimeout(conf.Gateway.Timeout), gateway.WithUserAgent("attendance-admin")),
		logger:    logger,
		env:       conf.Env,
		limits:    upload.Limits{MaxFiles: conf.Upload.MaxFiles, MaxFileSize: conf.Upload.MaxFileSize},
		timeout:   conf.Wizard.ActionTimeout,
		startWeek: conf.Batch.DefaultStartWeek,
		in:        bufio.NewReader(os.Stdin),
		out:       os.Stdout,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error("admin command failed", err)
		}
		os.Exit(1)
	}
}
