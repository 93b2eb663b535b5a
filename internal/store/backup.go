// ABOUTME: Backup and restore of the database file as raw byte copies
// ABOUTME: No checkpoint is taken and restored files are not checked against the schema

package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/2389/erpdesk/internal/apperr"
)

// Backup copies the live database file byte for byte to dst, creating
// dst's directory if needed. Pages still in the write-ahead log at copy
// time are not included.
func (m *Manager) Backup(ctx context.Context, dst string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	src, err := m.ResolvePath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return apperr.StorageUnavailable("cannot create backup directory", err)
	}

	if err := copyFile(src, dst); err != nil {
		return apperr.StorageUnavailable("backup failed", err)
	}

	m.logger.Info("backup written", "path", dst)
	return nil
}

// Restore replaces the live database file with the contents of src.
// Returns a NotFound error, leaving the live file untouched, when src
// does not exist. The file is not validated: a malformed src becomes the
// live store.
func (m *Manager) Restore(ctx context.Context, src string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	info, err := os.Stat(src)
	if errors.Is(err, os.ErrNotExist) {
		return apperr.NotFound("backup file not found")
	}
	if err != nil {
		return apperr.StorageUnavailable("cannot read backup file", err)
	}
	if info.IsDir() {
		return apperr.StorageUnavailable("cannot read backup file", fmt.Errorf("%s is a directory", src))
	}

	live, err := m.ResolvePath()
	if err != nil {
		return err
	}

	if filepath.Clean(src) == filepath.Clean(live) {
		return nil
	}

	// Copy beside the live file first so a failed copy leaves it intact.
	tmp := live + ".restore"
	if err := copyFile(src, tmp); err != nil {
		os.Remove(tmp)
		return apperr.StorageUnavailable("restore failed", err)
	}

	// A write-ahead log left by the old file would be replayed against the
	// restored one.
	for _, sidecar := range []string{live + "-wal", live + "-shm"} {
		if err := os.Remove(sidecar); err != nil && !errors.Is(err, os.ErrNotExist) {
			os.Remove(tmp)
			return apperr.StorageUnavailable("restore failed", err)
		}
	}

	if err := os.Rename(tmp, live); err != nil {
		os.Remove(tmp)
		return apperr.StorageUnavailable("restore failed", err)
	}

	m.logger.Info("store restored", "from", src)
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening source: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("creating destination: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copying: %w", err)
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return fmt.Errorf("syncing destination: %w", err)
	}

	return out.Close()
}
