package updater

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/netkit-tools/oui-updater/internal/config"
	"github.com/netkit-tools/oui-updater/internal/oui"
)

// chdir mirrors t.Chdir (Go 1.24+) for older toolchains: change into dir and
// restore the original working directory on cleanup.
func chdir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		if err := os.Chdir(orig); err != nil {
			t.Errorf("restoring working directory: %v", err)
		}
	})
}

const installedTable = "# nmap-mac-prefixes\n001122 Acme Corp\n"

const registryBody = "OUI/MA-L Organization\n" +
	"company_id Organization\n\n" +
	"00-11-22   (hex)\t\tAcme Corp\n" +
	"001122     (base 16)\t\tAcme Corp\n\n" +
	"AA-BB-CC   (hex)\t\tWidget Inc\n" +
	"AABBCC     (base 16)\t\tWidget Inc\n"

// setupPipeline prepares an installed table, a settings file pointing at the
// provided registry handler and a working directory, all under a temp root.
func setupPipeline(t *testing.T, handler http.HandlerFunc) (*config.Config, string) {
	t.Helper()

	dir := t.TempDir()
	chdir(t, dir)

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	targetPath := filepath.Join(dir, "nmap-mac-prefixes")
	require.NoError(t, os.WriteFile(targetPath, []byte(installedTable), 0o644))

	cfg := &config.Config{
		RegistryURL: server.URL,
		TargetPath:  targetPath,
		WorkDir:     dir,
	}

	cfgPath := filepath.Join(dir, config.DefaultConfigFilename)
	require.NoError(t, config.Save(cfgPath, cfg))
	require.NoError(t, config.Validate(cfg))

	return cfg, cfgPath
}

// elevated is the test stand-in for the privilege probe.
func elevated() bool { return true }

// TestRun_FetchesMergesAndInstalls drives the whole pipeline against a fake
// registry and verifies every working file it leaves behind.
func TestRun_FetchesMergesAndInstalls(t *testing.T) {
	cfg, cfgPath := setupPipeline(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(registryBody))
	})

	var out bytes.Buffer

	err := Run(context.Background(), &Options{
		ConfigPath:     cfgPath,
		ConsoleOut:     &out,
		ElevationCheck: elevated,
	})
	require.NoError(t, err)
	require.Equal(t, ExitSuccess, ExitCodeFor(err))

	// Installed table: original content untouched, new record appended.
	installed, err := os.ReadFile(cfg.TargetPath)
	require.NoError(t, err)
	require.Equal(t, installedTable+"AABBCC Widget Inc\n", string(installed))

	// Backup snapshot is a byte-exact copy of the prior table.
	entries, err := os.ReadDir(cfg.BackupDir(cfg.WorkDir))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	backup, err := os.ReadFile(filepath.Join(cfg.BackupDir(cfg.WorkDir), entries[0].Name()))
	require.NoError(t, err)
	require.Equal(t, installedTable, string(backup))

	// Raw working file holds the response body verbatim.
	raw, err := os.ReadFile(cfg.RegistryFile(cfg.WorkDir))
	require.NoError(t, err)
	require.Equal(t, registryBody, string(raw))

	// Merged working file matches what was installed.
	merged, err := os.ReadFile(cfg.MergedFile(cfg.WorkDir))
	require.NoError(t, err)
	require.Equal(t, string(installed), string(merged))

	// No .old leftover from the apply, and the run marker is gone.
	_, err = os.Stat(cfg.TargetPath + ".old")
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = os.Stat(MarkerFilename)
	require.ErrorIs(t, err, os.ErrNotExist)

	require.Contains(t, out.String(), "Found 1 new OUIs")
}

// TestRun_SecondRunFindsNothing re-runs against the already merged table.
func TestRun_SecondRunFindsNothing(t *testing.T) {
	cfg, cfgPath := setupPipeline(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(registryBody))
	})

	opts := &Options{
		ConfigPath:     cfgPath,
		ConsoleOut:     &bytes.Buffer{},
		ElevationCheck: elevated,
	}

	require.NoError(t, Run(context.Background(), opts))

	afterFirst, err := os.ReadFile(cfg.TargetPath)
	require.NoError(t, err)

	require.NoError(t, Run(context.Background(), opts))

	afterSecond, err := os.ReadFile(cfg.TargetPath)
	require.NoError(t, err)
	require.Equal(t, string(afterFirst), string(afterSecond))
}

// TestRun_FetchValidationFailure covers the 404 scenario: failure signaled,
// no raw file written, no install attempted.
func TestRun_FetchValidationFailure(t *testing.T) {
	cfg, cfgPath := setupPipeline(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	})

	err := Run(context.Background(), &Options{
		ConfigPath:     cfgPath,
		ConsoleOut:     &bytes.Buffer{},
		ElevationCheck: elevated,
	})
	require.ErrorIs(t, err, ErrFetchFailed)
	require.Equal(t, ExitFetchFailed, ExitCodeFor(err))

	_, err = os.Stat(cfg.RegistryFile(cfg.WorkDir))
	require.ErrorIs(t, err, os.ErrNotExist)

	installed, err := os.ReadFile(cfg.TargetPath)
	require.NoError(t, err)
	require.Equal(t, installedTable, string(installed))
}

// TestRun_MissingMarkerSubstring rejects a 200 response without the document marker.
func TestRun_MissingMarkerSubstring(t *testing.T) {
	cfg, cfgPath := setupPipeline(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>maintenance page</html>"))
	})

	err := Run(context.Background(), &Options{
		ConfigPath:     cfgPath,
		ConsoleOut:     &bytes.Buffer{},
		ElevationCheck: elevated,
	})
	require.ErrorIs(t, err, ErrFetchFailed)

	_, err = os.Stat(cfg.RegistryFile(cfg.WorkDir))
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestRun_NoNewRecords treats an up-to-date table as success with no
// merged file and no install.
func TestRun_NoNewRecords(t *testing.T) {
	body := "00-11-22   (hex)\t\tAcme Corp\n" +
		"001122     (base 16)\t\tAcme Corp\n"

	cfg, cfgPath := setupPipeline(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(body))
	})

	var out bytes.Buffer

	err := Run(context.Background(), &Options{
		ConfigPath:     cfgPath,
		ConsoleOut:     &out,
		ElevationCheck: elevated,
	})
	require.NoError(t, err)
	require.Equal(t, ExitSuccess, ExitCodeFor(err))

	_, err = os.Stat(cfg.MergedFile(cfg.WorkDir))
	require.ErrorIs(t, err, os.ErrNotExist)

	installed, err := os.ReadFile(cfg.TargetPath)
	require.NoError(t, err)
	require.Equal(t, installedTable, string(installed))
	require.Contains(t, out.String(), "No new records!")
}

// TestRun_RegistryShapeChanged distinguishes "nothing parsed at all" from
// "nothing new": a marker-bearing document with zero parseable records fails.
func TestRun_RegistryShapeChanged(t *testing.T) {
	body := "totally reshaped (base 16) document\n"

	_, cfgPath := setupPipeline(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(body))
	})

	err := Run(context.Background(), &Options{
		ConfigPath:     cfgPath,
		ConsoleOut:     &bytes.Buffer{},
		ElevationCheck: elevated,
	})
	require.ErrorIs(t, err, oui.ErrRegistryShapeChanged)
	require.Equal(t, ExitFailure, ExitCodeFor(err))
}

// TestRun_NotElevated aborts before any file or network side effect.
func TestRun_NotElevated(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	err := Run(context.Background(), &Options{
		ConsoleOut:     &bytes.Buffer{},
		ElevationCheck: func() bool { return false },
	})
	require.ErrorIs(t, err, ErrNotElevated)
	require.Equal(t, ExitNotElevated, ExitCodeFor(err))

	// No marker, no backups, nothing touched.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

// TestRun_AlreadyRunning refuses to start while a fresh marker exists.
func TestRun_AlreadyRunning(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	require.NoError(t, os.WriteFile(MarkerFilename, nil, 0o644))

	err := Run(context.Background(), &Options{
		ConsoleOut:     &bytes.Buffer{},
		ElevationCheck: elevated,
	})
	require.ErrorIs(t, err, ErrAlreadyRunning)
}

// TestRun_MissingTarget fails the backup stage before any network call.
func TestRun_MissingTarget(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests++
		_, _ = w.Write([]byte(registryBody))
	}))
	t.Cleanup(server.Close)

	cfg := &config.Config{
		RegistryURL: server.URL,
		TargetPath:  filepath.Join(dir, "does-not-exist"),
		WorkDir:     dir,
	}

	cfgPath := filepath.Join(dir, config.DefaultConfigFilename)
	require.NoError(t, config.Save(cfgPath, cfg))

	err := Run(context.Background(), &Options{
		ConfigPath:     cfgPath,
		ConsoleOut:     &bytes.Buffer{},
		ElevationCheck: elevated,
	})
	require.Error(t, err)
	require.Zero(t, requests)
}
