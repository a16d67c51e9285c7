package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/orca-st/sensact/internal/config"
	"github.com/orca-st/sensact/internal/logging"
	"github.com/orca-st/sensact/internal/service"
)

// Exit codes, stable per §6.
const (
	exitSuccess            = 0
	exitInvalidCommandLine = 10
	exitUnhandledException = 11
	exitUnknownException   = 12
	exitAlreadyRunning     = 13
	exitStopFailed         = 14
	exitForkFailure        = 15
	exitDaemonInitFailure  = 16
	exitDaemonNotRunning   = 17
	exitPIDFileError       = 18
	exitDaemonStartFailure = 19
)

// version is the packed semver embedded in the base Modbus register map;
// kept as a plain string here for the --version flag.
const version = "1.0.0"

func main() {
	os.Exit(run())
}

func run() int {
	var configPath, pidPath string

	root := &cobra.Command{
		Use:           "sensactd",
		Short:         "sensor aggregation daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "configuration", "c", "/etc/sensact/sensact.conf", "configuration file path")
	root.PersistentFlags().StringVarP(&pidPath, "pidfile", "p", "/var/run/sensactd.pid", "pid file path")
	root.Version = version
	root.SetVersionTemplate("sensactd {{.Version}}\n")

	exitCode := exitSuccess

	startCmd := &cobra.Command{
		Use:   "start",
		Short: "start the daemon in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := cmdStart(configPath, pidPath)
			exitCode = code
			return err
		},
	}
	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "stop a running daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := cmdStop(pidPath)
			exitCode = code
			return err
		},
	}
	restartCmd := &cobra.Command{
		Use:   "restart",
		Short: "stop then start the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			if code, err := cmdStop(pidPath); err != nil && code != exitDaemonNotRunning {
				exitCode = code
				return err
			}
			code, err := cmdStart(configPath, pidPath)
			exitCode = code
			return err
		},
	}
	updateConfigCmd := &cobra.Command{
		Use:   "update_config",
		Short: "validate the configuration file without starting the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := cmdUpdateConfig(configPath)
			exitCode = code
			return err
		},
	}

	root.AddCommand(startCmd, stopCmd, restartCmd, updateConfigCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if exitCode == exitSuccess {
			exitCode = exitInvalidCommandLine
		}
		return exitCode
	}
	return exitCode
}

// cmdStart loads the configuration, writes the PID file, and runs the
// service to completion (blocking until SIGINT/SIGTERM), per §4.9.
func cmdStart(configPath, pidPath string) (int, error) {
	tree, err := config.Load(configPath)
	if err != nil {
		return exitInvalidCommandLine, fmt.Errorf("loading configuration: %w", err)
	}
	logging.SetDefault(logging.NewLogger(&logging.Config{Level: logging.ParseLevel(tree.Logging().Level), Output: os.Stderr}))

	if running, pid := pidFileHeldByLiveProcess(pidPath); running {
		return exitAlreadyRunning, fmt.Errorf("daemon already running with pid %d", pid)
	}
	if err := writePIDFile(pidPath); err != nil {
		return exitPIDFileError, err
	}
	defer os.Remove(pidPath)

	svc, err := service.New(tree)
	if err != nil {
		return exitDaemonInitFailure, fmt.Errorf("initialising service: %w", err)
	}

	logging.Default().Info("sensactd starting", "config", configPath)
	if err := svc.Run(context.Background()); err != nil {
		return exitDaemonStartFailure, fmt.Errorf("running service: %w", err)
	}
	return exitSuccess, nil
}

// cmdStop signals a running daemon (read from pidPath) to stop via
// SIGTERM.
func cmdStop(pidPath string) (int, error) {
	pid, err := readPIDFile(pidPath)
	if err != nil {
		return exitDaemonNotRunning, err
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return exitStopFailed, err
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return exitStopFailed, fmt.Errorf("signalling pid %d: %w", pid, err)
	}
	return exitSuccess, nil
}

// cmdUpdateConfig loads and validates the configuration tree without
// starting any device connections.
func cmdUpdateConfig(configPath string) (int, error) {
	tree, err := config.Load(configPath)
	if err != nil {
		return exitInvalidCommandLine, fmt.Errorf("loading configuration: %w", err)
	}
	if _, err := service.New(tree); err != nil {
		return exitDaemonInitFailure, fmt.Errorf("validating configuration: %w", err)
	}
	return exitSuccess, nil
}

// pidFileHeldByLiveProcess reports whether path names an existing pid
// file whose pid is still a live process (stale pid files from a crashed
// daemon are not contention, per §6's "daemon already running" exit code
// being distinct from plain pid-file I/O errors).
func pidFileHeldByLiveProcess(path string) (bool, int) {
	pid, err := readPIDFile(path)
	if err != nil {
		return false, 0
	}
	return processAlive(pid), pid
}

func writePIDFile(path string) error {
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading pid file: %w", err)
	}
	pid, err := strconv.Atoi(string(data))
	if err != nil {
		return 0, fmt.Errorf("parsing pid file: %w", err)
	}
	return pid, nil
}

func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}
