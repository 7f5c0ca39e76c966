package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/watchgraph/watchgraphd/cmd"
	"github.com/watchgraph/watchgraphd/pkg/config"
	"github.com/watchgraph/watchgraphd/pkg/daemon"
	"github.com/watchgraph/watchgraphd/pkg/housekeeping"
	"github.com/watchgraph/watchgraphd/pkg/ipc"
	"github.com/watchgraph/watchgraphd/pkg/logging"
	"github.com/watchgraph/watchgraphd/pkg/protocol"
	"github.com/watchgraph/watchgraphd/pkg/service"
	"github.com/watchgraph/watchgraphd/pkg/state"
)

// runMain is the entry point for the daemon. It acquires the daemon lock,
// brings up logging, configuration, persisted state, and the IPC listener,
// restores any roots watched before the last shutdown, and then serves
// connections until asked to stop.
func runMain(_ *cobra.Command, _ []string) error {
	// Acquire the daemon lock so that only one daemon instance runs against
	// a given data directory at a time, and defer its release.
	lock, err := daemon.AcquireLock(logging.RootLogger)
	if err != nil {
		return fmt.Errorf("unable to acquire daemon lock: %w", err)
	}
	defer lock.Release()

	// Set up termination signal tracking before bringing up other
	// infrastructure, so that everything below can shut down cleanly rather
	// than being interrupted mid-initialization.
	terminationSignals := make(chan os.Signal, 1)
	signal.Notify(terminationSignals, cmd.TerminationSignals...)

	// Open the daemon log and defer its closure.
	logFile, err := daemon.OpenLog()
	if err != nil {
		return fmt.Errorf("unable to open daemon log: %w", err)
	}
	defer logFile.Close()

	level := logging.LevelInfo
	if rootConfiguration.logLevel != "" {
		parsed, ok := logging.NameToLevel(rootConfiguration.logLevel)
		if !ok {
			return fmt.Errorf("invalid log level: %s", rootConfiguration.logLevel)
		}
		level = parsed
	}
	logger := logging.NewLogger(level, io.MultiWriter(logFile, os.Stderr))

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("unable to load configuration: %w", err)
	}
	ipcOptions, err := cfg.IPCOptions()
	if err != nil {
		return fmt.Errorf("unable to compute IPC options: %w", err)
	}

	// Load persisted watched-root state and defer a final save.
	st, persisted, err := state.Load(logger.Sublogger("state"))
	if err != nil {
		return fmt.Errorf("unable to load persisted state: %w", err)
	}
	defer st.Close()

	// Set up regular housekeeping and defer its shutdown.
	housekeepingCtx, cancelHousekeeping := context.WithCancel(context.Background())
	defer cancelHousekeeping()
	go housekeeping.HousekeepRegularly(housekeepingCtx, logger.Sublogger("housekeeping"))

	// Create the daemon shutdown-signal service.
	daemonService := daemon.NewService()

	// Compute the IPC endpoint path before constructing the service, since
	// the service reports it back via the "get-sockname" command.
	endpoint, err := daemon.EndpointPath()
	if err != nil {
		return fmt.Errorf("unable to compute IPC endpoint path: %w", err)
	}

	svc := service.New(cfg, st, daemonService, logger.Sublogger("service"), endpoint)

	// Restore roots watched before the last shutdown.
	for _, watched := range persisted {
		if _, _, err := svc.Watch(watched.Path); err != nil {
			logger.Warn(fmt.Errorf("unable to restore watch on %s: %w", watched.Path, err))
		}
	}

	registry := protocol.DefaultRegistry()

	// Create the IPC listener and defer its closure. Since we hold the
	// daemon lock, any existing socket at this path is stale.
	os.Remove(endpoint)
	listener, err := ipc.NewListener(endpoint, ipcOptions, logger.Sublogger("ipc"))
	if err != nil {
		return fmt.Errorf("unable to create IPC listener: %w", err)
	}
	defer listener.Close()

	// Accept connections in a separate goroutine and watch for failure.
	acceptErrors := make(chan error, 1)
	go acceptLoop(listener, svc, registry, logger.Sublogger("connection"), acceptErrors)

	// Wait for a termination signal, a termination request issued via the
	// "shutdown-server" command, or a listener failure.
	select {
	case s := <-terminationSignals:
		logger.Info(fmt.Sprintf("received termination signal: %v", s))
		return nil
	case <-daemonService.Done():
		logger.Info("received termination request")
		return nil
	case err := <-acceptErrors:
		logger.Error(fmt.Errorf("IPC listener terminated abnormally: %w", err))
		return fmt.Errorf("IPC listener terminated abnormally: %w", err)
	}
}

// acceptLoop accepts connections from listener until it fails, serving each
// one in its own goroutine and unregistering it from svc once it ends.
func acceptLoop(listener net.Listener, svc *service.Service, registry *protocol.Registry, logger *logging.Logger, errs chan<- error) {
	for {
		raw, err := listener.Accept()
		if err != nil {
			errs <- err
			return
		}
		go func() {
			conn := protocol.NewConnection(raw, logger)
			conn.Serve(svc, registry)
			svc.DropConn(conn)
		}()
	}
}
