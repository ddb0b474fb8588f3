package updater

import (
	"context"
	"errors"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/mitchellh/go-ps"

	"github.com/netkit-tools/oui-updater/internal/logger"
)

var (
	// ErrNotElevated means the process lacks root privileges.
	ErrNotElevated = errors.New("elevated privileges required")
	// ErrFetchFailed means the registry response failed validation (bad
	// status or missing document marker).
	ErrFetchFailed = errors.New("registry fetch failed validation")
	// ErrInstallFailed means the merged table could not be installed over
	// the target; the merged working file is left in place for recovery.
	ErrInstallFailed = errors.New("install of merged table failed")
	// ErrAlreadyRunning means another updater instance holds the marker.
	ErrAlreadyRunning = errors.New("the updater is already running")
)

// Process exit codes, one per failure point so calling automation can
// distinguish causes. The merge stage finding nothing new is success.
const (
	ExitSuccess       = 0
	ExitNotElevated   = 1
	ExitFetchFailed   = 2
	ExitFailure       = 3
	ExitInstallFailed = 4
)

const (
	// MarkerFilename marks that the updater is running right now to avoid parallel execution.
	MarkerFilename = "oui-updater-marker.bin"

	// markerLifetime is the period after which a stale marker is ignored.
	markerLifetime = 30 * time.Second

	// backupTimestampLayout produces sortable backup suffixes (YYYYMMDD.HHMMSS).
	backupTimestampLayout = "20060102.150405"

	// backupBasename prefixes every snapshot under the backups directory.
	backupBasename = "nmap-mac-prefixes"

	// tableFileMode is the permission applied to working files and the installed table.
	tableFileMode os.FileMode = 0o644

	// baseUpdaterExecutable is the binary name; platform helper appends the extension.
	baseUpdaterExecutable = "oui-updater"
)

// ExitCodeFor maps a pipeline error to its process exit code.
func ExitCodeFor(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, ErrNotElevated):
		return ExitNotElevated
	case errors.Is(err, ErrFetchFailed):
		return ExitFetchFailed
	case errors.Is(err, ErrInstallFailed):
		return ExitInstallFailed
	default:
		return ExitFailure
	}
}

// IsUpdaterRunningNow checks presence of a marker file and attempts recovery if it looks stale.
func IsUpdaterRunningNow(ctx context.Context) bool {
	logger.Debug(ctx, "Checking for the presence of an update marker")

	fileInfo, err := os.Stat(MarkerFilename)
	if err == nil {
		if time.Since(fileInfo.ModTime()) <= markerLifetime {
			return true
		}

		logger.Info(ctx, "The update marker is too old, attempting cleanup")

		if err = terminateProcessByName(updaterExecutable()); err != nil {
			return true
		}

		if err = os.Remove(MarkerFilename); err != nil {
			return true
		}

		return false
	}

	if errors.Is(err, os.ErrNotExist) {
		return false
	}

	logger.Infof(ctx, "Unable to read update marker: %v", err)

	return false
}

// terminateProcessByName tries to kill processes with the provided executable name.
func terminateProcessByName(processName string) error {
	processList, err := ps.Processes()
	if err != nil {
		return err
	}

	thisProcessID := os.Getpid()

	for _, process := range processList {
		if process.Pid() == thisProcessID {
			continue
		}

		if process.Executable() != processName {
			continue
		}

		var runningProcess *os.Process

		runningProcess, err = os.FindProcess(process.Pid())
		if err != nil {
			return err
		}

		if err = runningProcess.Kill(); err != nil {
			return err
		}
	}

	return nil
}

// updaterExecutable returns the platform-specific binary name.
func updaterExecutable() string {
	if strings.Contains(strings.ToLower(runtime.GOOS), "windows") {
		return baseUpdaterExecutable + ".exe"
	}

	return baseUpdaterExecutable
}
