// ABOUTME: Table and index definitions for the erpdesk database
// ABOUTME: Created in dependency order with IF NOT EXISTS so initialization is repeatable

package store

import (
	"context"
	"database/sql"
	"fmt"
)

type tableDef struct {
	name string
	ddl  string
}

// tables lists every table, independent tables first and tables holding
// foreign references after the tables they reference.
var tables = []tableDef{
	{"accounts", `
		CREATE TABLE IF NOT EXISTS accounts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			email TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			role TEXT,
			department TEXT,
			avatar TEXT,
			active INTEGER NOT NULL DEFAULT 1,
			permissions TEXT DEFAULT '{}',
			last_access_at TEXT,
			created_at TEXT NOT NULL DEFAULT (datetime('now')),
			updated_at TEXT NOT NULL DEFAULT (datetime('now'))
		)`},
	{"organizations", `
		CREATE TABLE IF NOT EXISTS organizations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			legal_name TEXT NOT NULL,
			trade_name TEXT,
			tax_id TEXT UNIQUE,
			state_registration TEXT,
			municipal_registration TEXT,
			phone TEXT,
			email TEXT,
			postal_code TEXT,
			street TEXT,
			number TEXT,
			complement TEXT,
			district TEXT,
			city TEXT,
			state TEXT,
			logo_path TEXT,
			created_at TEXT NOT NULL DEFAULT (datetime('now')),
			updated_at TEXT NOT NULL DEFAULT (datetime('now'))
		)`},
	{"clients", `
		CREATE TABLE IF NOT EXISTS clients (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			legal_name TEXT,
			trade_name TEXT,
			tax_id TEXT,
			person_id TEXT,
			state_registration TEXT,
			municipal_registration TEXT,
			email TEXT,
			phone TEXT,
			mobile TEXT,
			postal_code TEXT,
			street TEXT,
			number TEXT,
			complement TEXT,
			district TEXT,
			city TEXT,
			state TEXT,
			notes TEXT,
			credit_limit REAL DEFAULT 0,
			salesperson_id INTEGER,
			active INTEGER NOT NULL DEFAULT 1,
			created_at TEXT NOT NULL DEFAULT (datetime('now')),
			updated_at TEXT NOT NULL DEFAULT (datetime('now'))
		)`},
	{"suppliers", `
		CREATE TABLE IF NOT EXISTS suppliers (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			legal_name TEXT,
			trade_name TEXT,
			tax_id TEXT,
			person_id TEXT,
			state_registration TEXT,
			email TEXT,
			phone TEXT,
			postal_code TEXT,
			street TEXT,
			number TEXT,
			district TEXT,
			city TEXT,
			state TEXT,
			notes TEXT,
			active INTEGER NOT NULL DEFAULT 1,
			created_at TEXT NOT NULL DEFAULT (datetime('now')),
			updated_at TEXT NOT NULL DEFAULT (datetime('now'))
		)`},
	{"products", `
		CREATE TABLE IF NOT EXISTS products (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			code TEXT UNIQUE,
			name TEXT NOT NULL,
			description TEXT,
			category TEXT,
			unit TEXT DEFAULT 'UN',
			cost_price REAL DEFAULT 0,
			sale_price REAL DEFAULT 0,
			margin REAL DEFAULT 0,
			min_stock REAL DEFAULT 0,
			current_stock REAL DEFAULT 0,
			ncm TEXT,
			cest TEXT,
			origin TEXT,
			cfop TEXT,
			cst_icms TEXT,
			cst_pis TEXT,
			cst_cofins TEXT,
			active INTEGER NOT NULL DEFAULT 1,
			created_at TEXT NOT NULL DEFAULT (datetime('now')),
			updated_at TEXT NOT NULL DEFAULT (datetime('now'))
		)`},
	{"bank_accounts", `
		CREATE TABLE IF NOT EXISTS bank_accounts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			bank TEXT,
			branch TEXT,
			account_number TEXT,
			kind TEXT DEFAULT 'checking',
			opening_balance REAL DEFAULT 0,
			current_balance REAL DEFAULT 0,
			active INTEGER NOT NULL DEFAULT 1,
			created_at TEXT NOT NULL DEFAULT (datetime('now')),
			updated_at TEXT NOT NULL DEFAULT (datetime('now'))
		)`},
	{"settings", `
		CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT,
			kind TEXT DEFAULT 'json',
			updated_at TEXT NOT NULL DEFAULT (datetime('now'))
		)`},
	{"sessions", `
		CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			account_id INTEGER NOT NULL,
			token TEXT UNIQUE NOT NULL,
			expires_at TEXT NOT NULL,
			created_at TEXT NOT NULL DEFAULT (datetime('now')),
			FOREIGN KEY (account_id) REFERENCES accounts(id)
		)`},
	{"sales_orders", `
		CREATE TABLE IF NOT EXISTS sales_orders (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			number TEXT UNIQUE,
			client_id INTEGER,
			salesperson_id INTEGER,
			ordered_on TEXT,
			delivery_on TEXT,
			status TEXT DEFAULT 'quote',
			subtotal REAL DEFAULT 0,
			discount REAL DEFAULT 0,
			surcharge REAL DEFAULT 0,
			total REAL DEFAULT 0,
			payment_method TEXT,
			payment_terms TEXT,
			notes TEXT,
			created_at TEXT NOT NULL DEFAULT (datetime('now')),
			updated_at TEXT NOT NULL DEFAULT (datetime('now')),
			FOREIGN KEY (client_id) REFERENCES clients(id),
			FOREIGN KEY (salesperson_id) REFERENCES accounts(id)
		)`},
	{"order_items", `
		CREATE TABLE IF NOT EXISTS order_items (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			order_id INTEGER NOT NULL,
			product_id INTEGER NOT NULL,
			quantity REAL DEFAULT 1,
			unit_price REAL DEFAULT 0,
			discount REAL DEFAULT 0,
			total REAL DEFAULT 0,
			FOREIGN KEY (order_id) REFERENCES sales_orders(id) ON DELETE CASCADE,
			FOREIGN KEY (product_id) REFERENCES products(id)
		)`},
	{"payables", `
		CREATE TABLE IF NOT EXISTS payables (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			description TEXT NOT NULL,
			supplier_id INTEGER,
			amount REAL NOT NULL,
			due_on TEXT NOT NULL,
			paid_on TEXT,
			status TEXT DEFAULT 'pending',
			category TEXT,
			payment_method TEXT,
			notes TEXT,
			created_at TEXT NOT NULL DEFAULT (datetime('now')),
			updated_at TEXT NOT NULL DEFAULT (datetime('now')),
			FOREIGN KEY (supplier_id) REFERENCES suppliers(id)
		)`},
	{"receivables", `
		CREATE TABLE IF NOT EXISTS receivables (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			description TEXT NOT NULL,
			client_id INTEGER,
			order_id INTEGER,
			amount REAL NOT NULL,
			due_on TEXT NOT NULL,
			received_on TEXT,
			status TEXT DEFAULT 'pending',
			category TEXT,
			payment_method TEXT,
			notes TEXT,
			created_at TEXT NOT NULL DEFAULT (datetime('now')),
			updated_at TEXT NOT NULL DEFAULT (datetime('now')),
			FOREIGN KEY (client_id) REFERENCES clients(id),
			FOREIGN KEY (order_id) REFERENCES sales_orders(id)
		)`},
	{"employees", `
		CREATE TABLE IF NOT EXISTS employees (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			account_id INTEGER,
			name TEXT NOT NULL,
			person_id TEXT UNIQUE,
			identity_document TEXT,
			born_on TEXT,
			hired_on TEXT,
			dismissed_on TEXT,
			role TEXT,
			department TEXT,
			salary REAL DEFAULT 0,
			email TEXT,
			phone TEXT,
			postal_code TEXT,
			street TEXT,
			number TEXT,
			district TEXT,
			city TEXT,
			state TEXT,
			active INTEGER NOT NULL DEFAULT 1,
			created_at TEXT NOT NULL DEFAULT (datetime('now')),
			updated_at TEXT NOT NULL DEFAULT (datetime('now')),
			FOREIGN KEY (account_id) REFERENCES accounts(id)
		)`},
	{"time_entries", `
		CREATE TABLE IF NOT EXISTS time_entries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			employee_id INTEGER NOT NULL,
			work_date TEXT NOT NULL,
			clock_in TEXT,
			lunch_out TEXT,
			lunch_in TEXT,
			clock_out TEXT,
			hours_worked REAL DEFAULT 0,
			notes TEXT,
			created_at TEXT NOT NULL DEFAULT (datetime('now')),
			FOREIGN KEY (employee_id) REFERENCES employees(id)
		)`},
	{"production_orders", `
		CREATE TABLE IF NOT EXISTS production_orders (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			number TEXT UNIQUE,
			product_id INTEGER,
			quantity REAL DEFAULT 1,
			started_on TEXT,
			planned_on TEXT,
			finished_on TEXT,
			status TEXT DEFAULT 'planned',
			priority TEXT DEFAULT 'normal',
			owner_id INTEGER,
			notes TEXT,
			created_at TEXT NOT NULL DEFAULT (datetime('now')),
			updated_at TEXT NOT NULL DEFAULT (datetime('now')),
			FOREIGN KEY (product_id) REFERENCES products(id),
			FOREIGN KEY (owner_id) REFERENCES employees(id)
		)`},
	{"fiscal_documents", `
		CREATE TABLE IF NOT EXISTS fiscal_documents (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			number TEXT,
			series TEXT,
			access_key TEXT UNIQUE,
			direction TEXT DEFAULT 'outbound',
			operation_nature TEXT,
			issued_on TEXT,
			shipped_on TEXT,
			client_id INTEGER,
			supplier_id INTEGER,
			order_id INTEGER,
			products_total REAL DEFAULT 0,
			freight REAL DEFAULT 0,
			insurance REAL DEFAULT 0,
			discount REAL DEFAULT 0,
			total REAL DEFAULT 0,
			status TEXT DEFAULT 'pending',
			xml TEXT,
			protocol TEXT,
			notes TEXT,
			created_at TEXT NOT NULL DEFAULT (datetime('now')),
			updated_at TEXT NOT NULL DEFAULT (datetime('now')),
			FOREIGN KEY (client_id) REFERENCES clients(id),
			FOREIGN KEY (supplier_id) REFERENCES suppliers(id),
			FOREIGN KEY (order_id) REFERENCES sales_orders(id)
		)`},
}

var indexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_clients_name ON clients(name)`,
	`CREATE INDEX IF NOT EXISTS idx_clients_tax_id ON clients(tax_id)`,
	`CREATE INDEX IF NOT EXISTS idx_products_code ON products(code)`,
	`CREATE INDEX IF NOT EXISTS idx_products_name ON products(name)`,
	`CREATE INDEX IF NOT EXISTS idx_sales_orders_number ON sales_orders(number)`,
	`CREATE INDEX IF NOT EXISTS idx_sales_orders_client ON sales_orders(client_id)`,
	`CREATE INDEX IF NOT EXISTS idx_payables_due_on ON payables(due_on)`,
	`CREATE INDEX IF NOT EXISTS idx_receivables_due_on ON receivables(due_on)`,
	`CREATE INDEX IF NOT EXISTS idx_employees_person_id ON employees(person_id)`,
	`CREATE INDEX IF NOT EXISTS idx_fiscal_documents_access_key ON fiscal_documents(access_key)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_account ON sessions(account_id)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at)`,
}

// TableNames returns the names of every table the store creates, in
// creation order.
func TableNames() []string {
	names := make([]string, len(tables))
	for i, t := range tables {
		names[i] = t.name
	}
	return names
}

func createTables(ctx context.Context, db *sql.DB) error {
	for _, t := range tables {
		if _, err := db.ExecContext(ctx, t.ddl); err != nil {
			return fmt.Errorf("creating table %s: %w", t.name, err)
		}
	}
	return nil
}

func createIndexes(ctx context.Context, db *sql.DB) error {
	for _, ddl := range indexes {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("creating index: %w", err)
		}
	}
	return nil
}
