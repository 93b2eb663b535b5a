// ABOUTME: Organization record read by configuration screens
// ABOUTME: The store keeps a single meaningful row: the first one inserted

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Organization is the company operating this installation.
type Organization struct {
	ID                    int64  `json:"id"`
	LegalName             string `json:"legalName"`
	TradeName             string `json:"tradeName,omitempty"`
	TaxID                 string `json:"taxId,omitempty"`
	StateRegistration     string `json:"stateRegistration,omitempty"`
	MunicipalRegistration string `json:"municipalRegistration,omitempty"`
	Phone                 string `json:"phone,omitempty"`
	Email                 string `json:"email,omitempty"`
	PostalCode            string `json:"postalCode,omitempty"`
	Street                string `json:"street,omitempty"`
	Number                string `json:"number,omitempty"`
	Complement            string `json:"complement,omitempty"`
	District              string `json:"district,omitempty"`
	City                  string `json:"city,omitempty"`
	State                 string `json:"state,omitempty"`
	LogoPath              string `json:"logoPath,omitempty"`
}

// GetOrganization returns the first organization row.
// Returns ErrNotFound if there is none.
func (m *Manager) GetOrganization(ctx context.Context) (*Organization, error) {
	db, err := m.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	return getOrganization(ctx, db)
}

func getOrganization(ctx context.Context, db *sql.DB) (*Organization, error) {
	var o Organization
	err := db.QueryRowContext(ctx, `
		SELECT id, legal_name, COALESCE(trade_name, ''), COALESCE(tax_id, ''),
		       COALESCE(state_registration, ''), COALESCE(municipal_registration, ''),
		       COALESCE(phone, ''), COALESCE(email, ''), COALESCE(postal_code, ''),
		       COALESCE(street, ''), COALESCE(number, ''), COALESCE(complement, ''),
		       COALESCE(district, ''), COALESCE(city, ''), COALESCE(state, ''),
		       COALESCE(logo_path, '')
		FROM organizations
		ORDER BY id
		LIMIT 1
	`).Scan(
		&o.ID,
		&o.LegalName,
		&o.TradeName,
		&o.TaxID,
		&o.StateRegistration,
		&o.MunicipalRegistration,
		&o.Phone,
		&o.Email,
		&o.PostalCode,
		&o.Street,
		&o.Number,
		&o.Complement,
		&o.District,
		&o.City,
		&o.State,
		&o.LogoPath,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying organization: %w", err)
	}

	return &o, nil
}

// SaveOrganization inserts the organization when none exists, otherwise
// overwrites the first row. It returns the stored record.
// Returns ErrTaxIDExists if the tax id belongs to another row.
func (m *Manager) SaveOrganization(ctx context.Context, o *Organization) (*Organization, error) {
	db, err := m.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	args := []any{
		o.LegalName,
		nullString(o.TradeName),
		nullString(o.TaxID),
		nullString(o.StateRegistration),
		nullString(o.MunicipalRegistration),
		nullString(o.Phone),
		nullString(o.Email),
		nullString(o.PostalCode),
		nullString(o.Street),
		nullString(o.Number),
		nullString(o.Complement),
		nullString(o.District),
		nullString(o.City),
		nullString(o.State),
		nullString(o.LogoPath),
	}

	existing, err := getOrganization(ctx, db)
	switch {
	case errors.Is(err, ErrNotFound):
		_, err = db.ExecContext(ctx, `
			INSERT INTO organizations (legal_name, trade_name, tax_id, state_registration,
				municipal_registration, phone, email, postal_code, street, number,
				complement, district, city, state, logo_path)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, args...)
	case err != nil:
		return nil, err
	default:
		_, err = db.ExecContext(ctx, `
			UPDATE organizations SET legal_name = ?, trade_name = ?, tax_id = ?,
				state_registration = ?, municipal_registration = ?, phone = ?, email = ?,
				postal_code = ?, street = ?, number = ?, complement = ?, district = ?,
				city = ?, state = ?, logo_path = ?, updated_at = datetime('now')
			WHERE id = ?
		`, append(args, existing.ID)...)
	}
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrTaxIDExists
		}
		return nil, fmt.Errorf("saving organization: %w", err)
	}

	m.logger.Info("saved organization", "legal_name", o.LegalName)
	return getOrganization(ctx, db)
}
