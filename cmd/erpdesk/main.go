// ABOUTME: Entry point for the erpdesk backend
// ABOUTME: Serves the desktop shell's commands and runs store maintenance from the terminal

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/2389/erpdesk/internal/auth"
	"github.com/2389/erpdesk/internal/config"
	"github.com/2389/erpdesk/internal/logging"
	"github.com/2389/erpdesk/internal/store"
)

// Version is set at build time.
var version = "dev"

const banner = `
                      _           _
  ___ _ __ _ __   __| | ___  ___| | __
 / _ \ '__| '_ \ / _' |/ _ \/ __| |/ /
|  __/ |  | |_) | (_| |  __/\__ \   <
 \___|_|  | .__/ \__,_|\___||___/_|\_\
          |_|
`

// getConfigPath returns the path to the erpdesk config file.
// Priority: ERPDESK_CONFIG env var > XDG_CONFIG_HOME/erpdesk/erpdesk.yaml > ~/.config/erpdesk/erpdesk.yaml
func getConfigPath() string {
	if envPath := os.Getenv("ERPDESK_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "erpdesk.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "erpdesk", "erpdesk.yaml")
}

// getDataPath returns the installation's private data directory.
// Priority: XDG_DATA_HOME/erpdesk > ~/.local/share/erpdesk
func getDataPath() (string, error) {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("locating home directory: %w", err)
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return filepath.Join(dataDir, "erpdesk"), nil
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: erpdesk <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve              Initialize the store and serve commands over HTTP")
		fmt.Println("  init               Create the schema and seed data, then list the tables")
		fmt.Println("  backup PATH        Copy the database file to PATH")
		fmt.Println("  restore PATH       Replace the database file with PATH")
		fmt.Println("  passwd --id ID     Change an account's password")
		fmt.Println("  version            Print the version")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "init":
		err = runInit(ctx)
	case "backup":
		err = runBackup(ctx, os.Args[2:])
	case "restore":
		err = runRestore(ctx, os.Args[2:])
	case "passwd":
		err = runPasswd(ctx, os.Args[2:])
	case "version":
		fmt.Println(version)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app holds the services every subcommand builds from the config.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	hasher    *auth.Hasher
	store     *store.Manager
	authority *auth.Authority
}

func loadApp() (*app, string, error) {
	configPath := getConfigPath()

	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return nil, configPath, fmt.Errorf("loading config: %w", err)
	}

	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format, os.Stdout)
	slog.SetDefault(logger)

	a, err := newApp(cfg, logger)
	return a, configPath, err
}

func newApp(cfg *config.Config, logger *slog.Logger) (*app, error) {
	hasher := auth.NewHasher(cfg.Auth.BcryptCost)

	// An explicit database path replaces the host data directory.
	dir := store.DirResolver(getDataPath)
	var fileName string
	if cfg.Database.Path != "" {
		dir = store.FixedDir(filepath.Dir(cfg.Database.Path))
		fileName = filepath.Base(cfg.Database.Path)
	}

	st, err := store.New(store.Options{
		Dir:         dir,
		FileName:    fileName,
		Driver:      store.Driver(cfg.Database.Driver),
		BusyTimeout: cfg.Database.BusyTimeout,
		CacheSize:   cfg.Database.CacheSize,
		Bootstrap: store.Bootstrap{
			Email:    cfg.Bootstrap.Email,
			Password: cfg.Bootstrap.Password,
			Name:     cfg.Bootstrap.Name,
			Organization: store.Organization{
				LegalName: cfg.Bootstrap.Organization.LegalName,
				TradeName: cfg.Bootstrap.Organization.TradeName,
				TaxID:     cfg.Bootstrap.Organization.TaxID,
			},
		},
		Hasher: hasher,
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating store: %w", err)
	}

	authority := auth.NewAuthority(st, hasher,
		auth.WithSessionTTL(cfg.Auth.SessionTTL),
		auth.WithLogger(logger),
	)

	return &app{
		cfg:       cfg,
		logger:    logger,
		hasher:    hasher,
		store:     st,
		authority: authority,
	}, nil
}
