package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"
	"time"

	"github.com/go-redis/redis/v8"

	echoweb "github.com/trezcool/attendance/apps/web/echo"
	"github.com/trezcool/attendance/core"
	"github.com/trezcool/attendance/core/attendance"
	"github.com/trezcool/attendance/services/gateway"
	logsvc "github.com/trezcool/attendance/services/logger"
	"github.com/trezcool/attendance/storage/sessions"
	inmemsessions "github.com/trezcool/attendance/storage/sessions/inmem"
	redissessions "github.com/trezcool/attendance/storage/sessions/redis"
	"github.com/trezcool/attendance/storage/workspace"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "WEB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")

	// set up session storage
	repo, rdb, err := setUpSessions(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up session storage: %v", err), err)
	}
	if rdb != nil {
		defer func() {
			if err = rdb.Close(); err != nil {
				logger.Error("Failed to close redis", err)
			}
		}()
	}

	gw := gateway.New(conf.Gateway.BaseURL, gateway.WithTimeout(conf.Gateway.Timeout))

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate, translator := core.NewValidator()
	attendance.InitValidators(validate, translator)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	if conf.Server.DebugAddr != "" {
		expvar.NewString("build").Set(conf.Build)
		expvar.NewString("env").Set(conf.Env)
		expvar.NewString("api").Set(gw.BaseURL())

		go func() {
			if err := http.ListenAndServe(conf.Server.DebugAddr, http.DefaultServeMux); err != nil {
				logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
			}
		}()
	}

	// =========================================================================
	// Start Web Service

	server := echoweb.NewServer(
		echoweb.ServerDeps{
			Conf:       conf,
			Logger:     logger,
			Gateway:    gw,
			Sessions:   repo,
			Workspaces: workspace.NewRegistry(conf.Server.SessionTTL),
			Validate:   validate,
			Translator: translator,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

// setUpSessions keeps browser sessions in redis when it is configured, in memory otherwise.
func setUpSessions(conf *core.Config) (sessions.Repository, *redis.Client, error) {
	if conf.Redis.Addr == "" {
		return inmemsessions.NewRepository(), nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	rdb, err := redissessions.NewClient(ctx, conf.Redis.Addr, conf.Redis.Password, conf.Redis.DB)
	if err != nil {
		return nil, nil, err
	}
	return redissessions.NewRepository(rdb), rdb, nil
}
