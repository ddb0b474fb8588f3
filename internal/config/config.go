package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the paths and endpoint used by the updater pipeline.
type Config struct {
	// RegistryURL is the HTTPS endpoint serving the IEEE OUI registry document.
	RegistryURL string `yaml:"registry_url"`
	// TargetPath is the installed nmap-mac-prefixes file, both backup source and install destination.
	TargetPath string `yaml:"target_path"`
	// WorkDir is where working files and backups live.
	// Empty means the directory containing the executable.
	WorkDir string `yaml:"work_dir"`
	// Timeout bounds the registry fetch. There is no retry; a run makes one attempt.
	Timeout time.Duration `yaml:"timeout"`
}

const (
	// DefaultConfigFilename is the default filename for updater settings.
	DefaultConfigFilename = "oui-updater-settings.yaml"

	// DefaultRegistryURL is the IEEE OUI registry endpoint.
	DefaultRegistryURL = "https://standards-oui.ieee.org/"

	// DefaultTargetPath is where nmap keeps its MAC prefix lookup table.
	DefaultTargetPath = "/usr/share/nmap/nmap-mac-prefixes"

	// DefaultTimeout is the default duration for the registry fetch.
	// The registry document is a few megabytes, so it is generous.
	DefaultTimeout = 5 * time.Minute

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600

	// backupDirName is the subdirectory of WorkDir holding timestamped snapshots.
	backupDirName = "backups"

	// registryFilename is the working file holding the raw fetched registry document.
	registryFilename = "ieee_oui_data.txt"

	// mergedFilename is the working file holding the merged lookup table.
	mergedFilename = "nmap-mac-prefixes_updated"
)

// errConfigIsNotSet is returned when a nil configuration is provided.
var errConfigIsNotSet = errors.New("configuration is not set")

// Load reads configuration from the provided path and validates essential fields.
// A missing file is not an error: defaults are applied to an empty config,
// so the tool works out of the box without a settings file.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	var cfg Config

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	if err == nil {
		if err = yaml.Unmarshal(contents, &cfg); err != nil {
			return nil, fmt.Errorf("unmarshal settings: %w", err)
		}
	}

	if err = Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings and fills in defaults for empty fields.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.RegistryURL == "" {
		cfg.RegistryURL = DefaultRegistryURL
	}

	if _, err := url.ParseRequestURI(cfg.RegistryURL); err != nil {
		return fmt.Errorf("invalid registry URL: %w", err)
	}

	if cfg.TargetPath == "" {
		cfg.TargetPath = DefaultTargetPath
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	return nil
}

// ResolveWorkDir returns the effective working directory,
// falling back to the executable's directory when WorkDir is empty.
func (c *Config) ResolveWorkDir() (string, error) {
	if c.WorkDir != "" {
		return c.WorkDir, nil
	}

	executable, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locate executable: %w", err)
	}

	resolved, err := filepath.EvalSymlinks(executable)
	if err != nil {
		return "", fmt.Errorf("resolve executable path: %w", err)
	}

	return filepath.Dir(resolved), nil
}

// BackupDir returns the snapshot directory under the provided working directory.
func (c *Config) BackupDir(workDir string) string {
	return filepath.Join(workDir, backupDirName)
}

// RegistryFile returns the raw fetched registry document path under the working directory.
func (c *Config) RegistryFile(workDir string) string {
	return filepath.Join(workDir, registryFilename)
}

// MergedFile returns the merged lookup table path under the working directory.
func (c *Config) MergedFile(workDir string) string {
	return filepath.Join(workDir, mergedFilename)
}
