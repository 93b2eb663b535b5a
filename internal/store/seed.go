// ABOUTME: Bootstrap seeding of the administrator account and default organization
// ABOUTME: Runs at most once per store, even with several initializers racing

package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Bootstrap describes the records seeded into a store that has never held
// the bootstrap account. Empty fields take the defaults below.
type Bootstrap struct {
	Email        string
	Password     string
	Name         string
	Role         string
	Department   string
	Permissions  Permissions
	Organization Organization
}

// Default bootstrap values.
const (
	DefaultBootstrapEmail    = "admin@erpdesk.local"
	DefaultBootstrapPassword = "admin123"
	DefaultBootstrapName     = "Administrador"
	DefaultBootstrapRole     = "Administrador"
	DefaultBootstrapDept     = "TI"
	DefaultOrgLegalName      = "ERPDESK LTDA"
	DefaultOrgTradeName      = "ERPDESK"
	DefaultOrgTaxID          = "00.000.000/0001-00"
)

func (b Bootstrap) withDefaults() Bootstrap {
	if b.Email == "" {
		b.Email = DefaultBootstrapEmail
	}
	if b.Password == "" {
		b.Password = DefaultBootstrapPassword
	}
	if b.Name == "" {
		b.Name = DefaultBootstrapName
	}
	if b.Role == "" {
		b.Role = DefaultBootstrapRole
	}
	if b.Department == "" {
		b.Department = DefaultBootstrapDept
	}
	if b.Permissions == nil {
		b.Permissions = Permissions{"admin": true, "all": true}
	}
	if b.Organization.LegalName == "" {
		b.Organization.LegalName = DefaultOrgLegalName
		b.Organization.TradeName = DefaultOrgTradeName
		b.Organization.TaxID = DefaultOrgTaxID
	}
	return b
}

// seed inserts the administrator account and the default organization if
// no account holds the bootstrap email. The account insert ignores an
// email conflict and the organization is only written when the account
// insert actually added a row, both inside one transaction, so a second
// initializer that lost the race adds nothing.
func (m *Manager) seed(ctx context.Context, db *sql.DB) error {
	var count int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts WHERE email = ?`, m.bootstrap.Email).Scan(&count)
	if err != nil {
		return fmt.Errorf("checking bootstrap account: %w", err)
	}
	if count > 0 {
		m.logger.Debug("bootstrap data already present")
		return nil
	}

	m.logger.Info("seeding initial data", "email", m.bootstrap.Email)

	hash, err := m.hasher.Hash(m.bootstrap.Password)
	if err != nil {
		return fmt.Errorf("hashing bootstrap password: %w", err)
	}

	perms, err := m.bootstrap.Permissions.Encode()
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning seed transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO accounts (name, email, password_hash, role, department, permissions)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(email) DO NOTHING
	`,
		m.bootstrap.Name,
		m.bootstrap.Email,
		hash,
		m.bootstrap.Role,
		m.bootstrap.Department,
		perms,
	)
	if err != nil {
		return fmt.Errorf("inserting bootstrap account: %w", err)
	}

	inserted, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if inserted == 0 {
		m.logger.Debug("bootstrap account created concurrently, skipping seed")
		return nil
	}

	org := m.bootstrap.Organization
	_, err = tx.ExecContext(ctx, `
		INSERT INTO organizations (legal_name, trade_name, tax_id)
		VALUES (?, ?, ?)
		ON CONFLICT(tax_id) DO NOTHING
	`, org.LegalName, nullString(org.TradeName), nullString(org.TaxID))
	if err != nil {
		return fmt.Errorf("inserting default organization: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing seed: %w", err)
	}

	m.logger.Info("initial data seeded")
	return nil
}
