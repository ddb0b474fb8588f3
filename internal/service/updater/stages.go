package updater

import (
	"bytes"
	"context"
	"crypto"
	"crypto/sha512"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	goupdate "github.com/doitdistributed/go-update"

	"github.com/netkit-tools/oui-updater/internal/logger"
	"github.com/netkit-tools/oui-updater/internal/oui"
)

// backupInstalled copies the installed lookup table to a timestamped
// snapshot under the backups directory and records its path for the merge
// stage. A missing or unreadable target fails the run here, before any
// network traffic.
func (u *runner) backupInstalled(ctx context.Context) error {
	backupDir := u.cfg.BackupDir(u.workDir)
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return fmt.Errorf("create backup directory: %w", err)
	}

	backupName := backupBasename + "." + time.Now().Format(backupTimestampLayout)
	backupPath := filepath.Join(backupDir, backupName)

	u.out.Infof("Creating backup of %s: %s", backupBasename, backupName)

	if err := copyFile(u.cfg.TargetPath, backupPath); err != nil {
		return fmt.Errorf("back up installed table: %w", err)
	}

	u.backupPath = backupPath
	logger.InfoKV(ctx, "Backup created", "path", backupPath)

	return nil
}

// fetchRegistry downloads the registry document, validates it and writes
// the body verbatim to the working file. Validation failure writes nothing
// and carries ErrFetchFailed. Transport errors propagate as-is; there is
// no retry.
func (u *runner) fetchRegistry(ctx context.Context) error {
	u.out.Infof("Downloading latest copy of OUI data from %s...", u.cfg.RegistryURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.cfg.RegistryURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("build registry request: %w", err)
	}

	client := &http.Client{Timeout: u.cfg.Timeout}

	response, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch registry: %w", err)
	}

	defer func() {
		_ = response.Body.Close()
	}()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return fmt.Errorf("read registry response: %w", err)
	}

	if response.StatusCode != http.StatusOK || !bytes.Contains(body, []byte(oui.Marker)) {
		u.out.Errorf("got status code %d while downloading", response.StatusCode)
		return fmt.Errorf("status %d: %w", response.StatusCode, ErrFetchFailed)
	}

	registryFile := u.cfg.RegistryFile(u.workDir)
	if err = os.WriteFile(registryFile, body, tableFileMode); err != nil {
		return fmt.Errorf("write registry working file: %w", err)
	}

	u.out.Successf("Downloaded to %s (%d bytes)", registryFile, len(body))
	logger.InfoKV(ctx, "Registry document fetched", "path", registryFile, "bytes", len(body))

	return nil
}

// mergeRecords parses the fetched registry document, appends assignments
// missing from the backup snapshot and, when anything was added, writes
// the merged table to the working file. Returns how many records were added.
func (u *runner) mergeRecords(ctx context.Context) (int, error) {
	backupData, err := os.ReadFile(u.backupPath)
	if err != nil {
		return 0, fmt.Errorf("read backup snapshot: %w", err)
	}

	registryFile, err := os.Open(u.cfg.RegistryFile(u.workDir))
	if err != nil {
		return 0, fmt.Errorf("open registry working file: %w", err)
	}

	defer func() {
		_ = registryFile.Close()
	}()

	u.out.Progressf("Processing data:")

	records, stats, err := oui.ParseRegistry(registryFile)
	if err != nil {
		return 0, fmt.Errorf("parse registry document: %w", err)
	}

	table := oui.LoadTable(backupData)

	added := table.Merge(records, func(record oui.Record) {
		u.out.Progressf("Processing data: %s => %s", record.Prefix, record.Org)
	})

	u.out.ProgressDone("Processing data: [DONE]")

	if stats.Skipped > 0 {
		logger.WarnKV(ctx, "Registry lines skipped as malformed", "skipped", stats.Skipped)
	}

	logger.InfoKV(ctx, "Merge finished",
		"parsed", stats.Matched, "skipped", stats.Skipped, "added", added)

	if added == 0 {
		u.out.Infof("No new records!")
		return 0, nil
	}

	u.out.Successf("Found %d new OUIs", added)

	mergedFile := u.cfg.MergedFile(u.workDir)
	u.out.Infof("Writing new data to %s", mergedFile)

	if err = os.WriteFile(mergedFile, table.Bytes(), tableFileMode); err != nil {
		return 0, fmt.Errorf("write merged working file: %w", err)
	}

	return added, nil
}

// installMerged replaces the installed table with the merged working file.
// The apply validates a SHA-512 checksum of the merged content, writes to
// a sibling temporary file and renames it into place, so the installed
// table is never observed partially written. On failure the merged working
// file stays on disk for manual recovery.
func (u *runner) installMerged(ctx context.Context) error {
	mergedFile := u.cfg.MergedFile(u.workDir)

	u.out.Infof("Copying %s to %s", mergedFile, u.cfg.TargetPath)

	data, err := os.ReadFile(mergedFile)
	if err != nil {
		return fmt.Errorf("read merged working file: %w", err)
	}

	checksum := sha512.Sum512(data)

	applyOptions := goupdate.Options{
		TargetPath: u.cfg.TargetPath,
		TargetMode: tableFileMode,
		Checksum:   checksum[:],
		Hash:       crypto.SHA512,
	}

	if err = goupdate.Apply(bytes.NewReader(data), applyOptions); err != nil {
		return fmt.Errorf("apply merged table: %v: %w", err, ErrInstallFailed)
	}

	// go-update leaves the displaced table next to the target.
	oldFileName := u.cfg.TargetPath + ".old"
	if _, err = os.Stat(oldFileName); err == nil {
		_ = os.Remove(oldFileName)
	}

	logger.InfoKV(ctx, "Merged table installed", "target", u.cfg.TargetPath)

	return nil
}

// copyFile produces a byte-exact copy of src at dst.
func copyFile(src, dst string) error {
	in, err := os.Open(filepath.Clean(src))
	if err != nil {
		return err
	}

	defer func() {
		_ = in.Close()
	}()

	out, err := os.OpenFile(filepath.Clean(dst), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, tableFileMode)
	if err != nil {
		return err
	}

	if _, err = io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}

	return out.Close()
}
