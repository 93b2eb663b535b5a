// ABOUTME: Tests for settings and organization persistence
// ABOUTME: Covers JSON round trips, raw text values and single-row organization updates

package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/erpdesk/internal/apperr"
)

func TestSettings_RoundTrip(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	_, err := m.GetSetting(ctx, "theme")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.SaveSetting(ctx, "theme", json.RawMessage(`{"dark": true}`)))
	got, err := m.GetSetting(ctx, "theme")
	require.NoError(t, err)
	assert.JSONEq(t, `{"dark": true}`, string(got))

	require.NoError(t, m.SaveSetting(ctx, "theme", json.RawMessage(`"light"`)))
	got, err = m.GetSetting(ctx, "theme")
	require.NoError(t, err)
	assert.JSONEq(t, `"light"`, string(got))
}

func TestSettings_RawTextValue(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	db, err := m.Open(ctx)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO settings (key, value) VALUES ('printer', 'HP LaserJet')`)
	require.NoError(t, err)
	db.Close()

	got, err := m.GetSetting(ctx, "printer")
	require.NoError(t, err)
	assert.JSONEq(t, `"HP LaserJet"`, string(got))
}

func TestSettings_Validation(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	err := m.SaveSetting(ctx, "", json.RawMessage(`1`))
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	err = m.SaveSetting(ctx, "k", json.RawMessage(`{broken`))
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestSaveOrganization_UpdatesFirstRow(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	seeded, err := m.GetOrganization(ctx)
	require.NoError(t, err)

	saved, err := m.SaveOrganization(ctx, &Organization{
		LegalName: "Nova Razao LTDA",
		TradeName: "Nova",
		TaxID:     "22.222.222/0001-22",
		City:      "Campinas",
		State:     "SP",
	})
	require.NoError(t, err)

	assert.Equal(t, seeded.ID, saved.ID)
	assert.Equal(t, "Nova Razao LTDA", saved.LegalName)
	assert.Equal(t, "Campinas", saved.City)
	assert.Empty(t, saved.Phone)
	assert.Equal(t, 1, countRows(t, m, `SELECT COUNT(*) FROM organizations`))
}

func TestSaveOrganization_InsertsWhenEmpty(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	db, err := m.Open(ctx)
	require.NoError(t, err)
	_, err = db.Exec(`DELETE FROM organizations`)
	require.NoError(t, err)
	db.Close()

	_, err = m.GetOrganization(ctx)
	require.ErrorIs(t, err, ErrNotFound)

	saved, err := m.SaveOrganization(ctx, &Organization{LegalName: "Outra LTDA"})
	require.NoError(t, err)
	assert.Equal(t, "Outra LTDA", saved.LegalName)
	assert.Empty(t, saved.TaxID)
}
