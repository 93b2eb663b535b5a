// ABOUTME: Store maintenance subcommands: init, backup, restore and passwd
// ABOUTME: Each one loads the config, runs a single store or auth operation and exits

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// restoredNote is printed after a restore. A running serve opens the store
// per call, so only calls already in flight can see the old file.
const restoredNote = "  Calls already in flight on a running erpdesk may still finish against the old file."

func runInit(ctx context.Context) error {
	a, _, err := loadApp()
	if err != nil {
		return err
	}

	if err := a.store.Initialize(ctx); err != nil {
		return err
	}

	path, err := a.store.ResolvePath()
	if err != nil {
		return err
	}

	tables, err := a.store.SchemaTables(ctx)
	if err != nil {
		return err
	}

	green := color.New(color.FgGreen)
	gray := color.New(color.FgHiBlack)

	green.Printf("  ✓ Database: %s\n", path)
	green.Printf("  ✓ Administrator: %s\n", a.store.BootstrapEmail())
	fmt.Printf("  Tables (%d):\n", len(tables))
	for _, name := range tables {
		gray.Printf("    %s\n", name)
	}
	return nil
}

func runBackup(ctx context.Context, args []string) error {
	dst, err := singlePathArg("backup", args)
	if err != nil {
		return err
	}

	a, _, err := loadApp()
	if err != nil {
		return err
	}

	if err := a.store.Backup(ctx, dst); err != nil {
		return err
	}

	color.New(color.FgGreen).Printf("  ✓ Backup written: %s\n", dst)
	return nil
}

func runRestore(ctx context.Context, args []string) error {
	src, err := singlePathArg("restore", args)
	if err != nil {
		return err
	}

	a, _, err := loadApp()
	if err != nil {
		return err
	}

	if err := a.store.Restore(ctx, src); err != nil {
		return err
	}

	color.New(color.FgGreen).Printf("  ✓ Restored from: %s\n", src)
	color.New(color.FgYellow).Println(restoredNote)
	return nil
}

func singlePathArg(command string, args []string) (string, error) {
	if len(args) != 1 || strings.HasPrefix(args[0], "-") {
		return "", fmt.Errorf("usage: erpdesk %s PATH", command)
	}
	return args[0], nil
}

// runPasswd changes a password after prompting for the current and the new one.
// Supports both "--id value" and "--id=value" formats.
func runPasswd(ctx context.Context, args []string) error {
	var rawID string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--id":
			if i+1 >= len(args) {
				return fmt.Errorf("--id requires a value")
			}
			rawID = args[i+1]
			i++
		case strings.HasPrefix(arg, "--id="):
			rawID = strings.TrimPrefix(arg, "--id=")
		case strings.HasPrefix(arg, "-"):
			return fmt.Errorf("unknown flag: %s", arg)
		default:
			return fmt.Errorf("unexpected argument: %s", arg)
		}
	}

	if rawID == "" {
		return fmt.Errorf("--id flag is required")
	}
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("invalid account id: %s", rawID)
	}

	a, _, err := loadApp()
	if err != nil {
		return err
	}

	reader := bufio.NewReader(os.Stdin)
	current, err := readSecret(reader, "Current password")
	if err != nil {
		return err
	}
	next, err := readSecret(reader, "New password")
	if err != nil {
		return err
	}
	confirm, err := readSecret(reader, "Repeat new password")
	if err != nil {
		return err
	}
	if next != confirm {
		return fmt.Errorf("new passwords do not match")
	}

	if err := a.authority.ChangePassword(ctx, id, current, next); err != nil {
		return err
	}

	color.New(color.FgGreen).Printf("  ✓ Password changed for account %d\n", id)
	return nil
}

// readSecret prompts for a password. A terminal gets a no-echo read;
// piped input is read one line at a time.
func readSecret(reader *bufio.Reader, question string) (string, error) {
	fmt.Printf("%s: ", question)

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		secret, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(secret), nil
	}

	line, err := reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
