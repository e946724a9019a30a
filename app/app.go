package app

import (
	"fmt"
	"os"
	"runtime"

	"github.com/pkg/errors"
	"github.com/topodag/topod/infrastructure/config"
	"github.com/topodag/topod/infrastructure/logger"
	"github.com/topodag/topod/infrastructure/os/execenv"
	"github.com/topodag/topod/infrastructure/os/signal"
	"github.com/topodag/topod/infrastructure/os/winservice"
	"github.com/topodag/topod/util/panics"
	"github.com/topodag/topod/util/profiling"
	"github.com/topodag/topod/version"
)

var serviceDescription = &winservice.ServiceDescription{
	Name:        "topodsvc",
	DisplayName: "Topod Service",
	Description: "Maintains a topologically ordered block DAG and executes " +
		"its account transactions.",
}

type topodApp struct {
	cfg *config.Config
}

// StartApp starts the topod app, and blocks until it finishes running
func StartApp() error {
	execenv.Initialize()

	// Load configuration and parse command line.
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}

	err = initLog(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	defer logger.BackendLog.Close()
	defer panics.HandlePanic(log, nil)

	app := &topodApp{cfg: cfg}

	// Call serviceMain on Windows to handle running as a service. When
	// the return isService flag is true, exit now since we ran as a
	// service. Otherwise, just fall through to normal operation.
	if runtime.GOOS == "windows" {
		isService, err := winservice.WinServiceMain(app.main, serviceDescription, cfg)
		if err != nil {
			return err
		}
		if isService {
			return nil
		}
	}

	return app.main(nil)
}

// initLog attaches the log files of cfg to the logging backend and applies
// the requested log levels
func initLog(cfg *config.Config) error {
	logger.InitLog(cfg.LogFile(), cfg.ErrLogFile())

	err := logger.ParseAndSetLogLevels(cfg.LogLevel)
	if err != nil {
		return errors.Wrapf(err, "failed to set the log level")
	}
	return nil
}

func (app *topodApp) main(startedChan chan<- struct{}) error {
	// Get a channel that will be closed when a shutdown signal has been
	// triggered either from an OS signal such as SIGINT (Ctrl+C) or from
	// another subsystem such as the service control manager.
	interrupt := signal.InterruptListener()
	defer log.Info("Shutdown complete")

	// Show version at startup.
	log.Infof("Version %s", version.Version())
	log.Infof("Network %s, %d executor workers", app.cfg.NetParams().Name, app.cfg.Workers)

	// Enable http profiling server if requested.
	if app.cfg.Profile != "" {
		profiling.Start(app.cfg.Profile, log)
	}

	dataDirLock, err := lockDataDir(app.cfg.DataDir)
	if err != nil {
		log.Error(err)
		return err
	}
	defer func() {
		err := dataDirLock.Unlock()
		if err != nil {
			log.Errorf("Error releasing the data directory lock: %s", err)
		}
	}()

	if app.cfg.ResetDatabase {
		err := removeDatabase(app.cfg)
		if err != nil {
			log.Error(err)
			return err
		}
	}

	// Open the database
	db, err := openDB(app.cfg)
	if err != nil {
		log.Errorf("Loading database failed: %+v", err)
		return err
	}

	defer func() {
		log.Infof("Gracefully shutting down the database...")
		err := db.Close()
		if err != nil {
			log.Errorf("Failed to close the database: %s", err)
		}
	}()

	// Create componentManager and start it.
	componentManager, err := NewComponentManager(app.cfg, db)
	if err != nil {
		log.Errorf("Unable to start topod: %+v", err)
		return err
	}

	defer func() {
		log.Infof("Gracefully shutting down topod...")
		componentManager.Stop()
		log.Info("Topod shutdown complete")
	}()

	componentManager.Start()

	if startedChan != nil {
		startedChan <- struct{}{}
	}

	// Wait until the interrupt signal is received from an OS signal or
	// shutdown is requested through the service control manager.
	<-interrupt
	return nil
}
