package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestValidate checks default filling and format validation for the settings.
func TestValidate(t *testing.T) {
	t.Parallel()

	// Empty config picks up every default.
	cfg := new(Config)

	require.NoError(t, Validate(cfg))
	require.Equal(t, DefaultRegistryURL, cfg.RegistryURL)
	require.Equal(t, DefaultTargetPath, cfg.TargetPath)
	require.Equal(t, DefaultTimeout, cfg.Timeout)

	// Bad registry URL.
	cfg = &Config{
		RegistryURL: "not a url",
	}

	require.Error(t, Validate(cfg))

	// Explicit values survive validation.
	cfg = &Config{
		RegistryURL: "https://registry.local/oui",
		TargetPath:  "/tmp/prefixes",
		Timeout:     time.Second,
	}

	require.NoError(t, Validate(cfg))
	require.Equal(t, "/tmp/prefixes", cfg.TargetPath)
	require.Equal(t, time.Second, cfg.Timeout)

	require.Error(t, Validate(nil))
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")

	cfg := &Config{
		RegistryURL: "https://registry.local/oui",
		TargetPath:  filepath.Join(dir, "nmap-mac-prefixes"),
		WorkDir:     dir,
	}

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.RegistryURL, loaded.RegistryURL)
	require.Equal(t, cfg.TargetPath, loaded.TargetPath)
	require.Equal(t, cfg.WorkDir, loaded.WorkDir)

	// File exists.
	_, err = os.Stat(path)
	require.NoError(t, err)
}

// TestLoadMissingFile verifies a missing settings file yields defaults instead of an error.
func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	require.Equal(t, DefaultRegistryURL, cfg.RegistryURL)
}

// TestDerivedPaths checks working-file path composition.
func TestDerivedPaths(t *testing.T) {
	t.Parallel()

	cfg := &Config{WorkDir: "/opt/oui"}
	require.NoError(t, Validate(cfg))

	work, err := cfg.ResolveWorkDir()
	require.NoError(t, err)
	require.Equal(t, "/opt/oui", work)

	require.Equal(t, filepath.Join(work, "backups"), cfg.BackupDir(work))
	require.Equal(t, filepath.Join(work, "ieee_oui_data.txt"), cfg.RegistryFile(work))
	require.Equal(t, filepath.Join(work, "nmap-mac-prefixes_updated"), cfg.MergedFile(work))
}
