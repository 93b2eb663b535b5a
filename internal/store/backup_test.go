// ABOUTME: Tests for backup and restore of the database file
// ABOUTME: Covers the round trip, a missing backup and a corrupted live store

package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/erpdesk/internal/apperr"
)

func TestBackupRestore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	account := &Account{Name: "Joana", Email: "joana@example.com", PasswordHash: "h", Active: true}
	require.NoError(t, m.CreateAccount(ctx, account))

	backupPath := filepath.Join(t.TempDir(), "backups", "erpdesk-backup.db")
	require.NoError(t, m.Backup(ctx, backupPath))

	// Corrupt the live store
	live, err := m.ResolvePath()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(live, []byte("this is not a database"), 0644))

	require.NoError(t, m.Restore(ctx, backupPath))

	got, err := m.GetActiveAccountByEmail(ctx, "joana@example.com")
	require.NoError(t, err)
	assert.Equal(t, account.ID, got.ID)

	_, err = os.Stat(live + ".restore")
	assert.True(t, os.IsNotExist(err))
}

func TestRestore_MissingSourceLeavesStoreUntouched(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	live, err := m.ResolvePath()
	require.NoError(t, err)
	before, err := os.ReadFile(live)
	require.NoError(t, err)

	err = m.Restore(ctx, filepath.Join(t.TempDir(), "missing.db"))
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	after, err := os.ReadFile(live)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	_, err = m.GetActiveAccountByEmail(ctx, DefaultBootstrapEmail)
	assert.NoError(t, err)
}

func TestRestore_Directory(t *testing.T) {
	m := newTestManager(t)

	err := m.Restore(context.Background(), t.TempDir())
	assert.True(t, apperr.Is(err, apperr.KindStorageUnavailable))
}

func TestRestore_RemovesStaleWAL(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	backupPath := filepath.Join(t.TempDir(), "b.db")
	require.NoError(t, m.Backup(ctx, backupPath))

	live, err := m.ResolvePath()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(live+"-wal", []byte("stale"), 0644))

	require.NoError(t, m.Restore(ctx, backupPath))

	_, err = os.Stat(live + "-wal")
	assert.True(t, os.IsNotExist(err))
}

func TestBackup_UnwritableDestination(t *testing.T) {
	m := newTestManager(t)

	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	err := m.Backup(context.Background(), filepath.Join(blocker, "sub", "b.db"))
	assert.True(t, apperr.Is(err, apperr.KindStorageUnavailable))
}

func TestBackup_NoLiveStore(t *testing.T) {
	m := newTestManagerAt(t, t.TempDir())

	err := m.Backup(context.Background(), filepath.Join(t.TempDir(), "b.db"))
	assert.True(t, apperr.Is(err, apperr.KindStorageUnavailable))
}
