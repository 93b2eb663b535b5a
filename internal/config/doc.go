// Package config handles configuration loading for erpdesk.
//
// # Overview
//
// Configuration is loaded from YAML or TOML files with environment variable
// expansion. The package provides validation and sensible defaults, so a
// missing file is not an error when LoadOrDefault is used.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from ERPDESK_CONFIG environment variable
//  2. $XDG_CONFIG_HOME/erpdesk/erpdesk.yaml
//  3. ~/.config/erpdesk/erpdesk.yaml
//
// A file ending in .toml is decoded as TOML, anything else as YAML.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	bootstrap:
//	  password: "${ERPDESK_ADMIN_PASSWORD}"
//
// Syntax: ${VAR_NAME}. Unset variables expand to an empty string, which then
// falls back to the default for that field.
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax:
//
//	database:
//	  busy_timeout: "5s"
//	auth:
//	  session_ttl: "24h"
//
// # Configuration Sections
//
//	server:
//	  http_addr: "127.0.0.1:7420"   # loopback command transport
//
//	database:
//	  path: ""                      # empty: per-user data directory
//	  driver: "sqlite"              # sqlite (pure Go) or sqlite3 (cgo)
//	  cache_size: 10000
//	  busy_timeout: "5s"
//
//	auth:
//	  session_ttl: "24h"
//	  bcrypt_cost: 10
//
//	bootstrap:
//	  email: "admin@erpdesk.local"
//	  password: "admin123"
//	  name: "Administrador"
//	  organization:
//	    legal_name: "ERPDESK LTDA"
//	    trade_name: "ERPDESK"
//	    tax_id: "00.000.000/0001-00"
//
//	logging:
//	  level: "info"                 # debug, info, warn, error
//	  format: "text"                # text, json
//
//	metrics:
//	  enabled: false
//	  path: "/metrics"
//
// # Usage
//
//	cfg, err := config.LoadOrDefault(path)
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
