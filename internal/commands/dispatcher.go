// ABOUTME: Named command registry invoked by the desktop UI shell
// ABOUTME: Decodes JSON arguments, gates commands on a valid session and records metrics

package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/2389/erpdesk/internal/apperr"
	"github.com/2389/erpdesk/internal/auth"
)

// Handler executes one command. args is the raw JSON argument object and
// may be empty.
type Handler func(ctx context.Context, args json.RawMessage) (any, error)

// Command is a registered handler and its access requirements.
type Command struct {
	Handler Handler
	// RequiresSession rejects calls whose bearer token does not resolve to
	// an active account.
	RequiresSession bool
	// Permission, when set, must be granted to the calling account.
	Permission string
}

// Messages for rejected calls.
const (
	MsgSessionRequired  = "Sessão inválida ou expirada"
	MsgPermissionDenied = "Permissão negada"
)

// Dispatcher routes named calls to their handlers.
type Dispatcher struct {
	commands map[string]Command
	auth     *auth.Authority
	metrics  *Metrics
	logger   *slog.Logger
}

// NewDispatcher creates an empty Dispatcher. authority resolves bearer
// tokens for commands that require a session; metrics may be nil.
func NewDispatcher(authority *auth.Authority, metrics *Metrics, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		commands: make(map[string]Command),
		auth:     authority,
		metrics:  metrics,
		logger:   logger.With("component", "commands"),
	}
}

// Register adds a command. Registering the same name twice panics.
func (d *Dispatcher) Register(name string, cmd Command) {
	if _, exists := d.commands[name]; exists {
		panic(fmt.Sprintf("commands: %q registered twice", name))
	}
	d.commands[name] = cmd
}

// Names returns the registered command names in sorted order.
func (d *Dispatcher) Names() []string {
	names := make([]string, 0, len(d.commands))
	for name := range d.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Invoke runs the named command. The caller's bearer token, if any, is
// read from the auth.Session attached to ctx.
func (d *Dispatcher) Invoke(ctx context.Context, name string, args json.RawMessage) (any, error) {
	start := time.Now()

	cmd, ok := d.commands[name]
	if !ok {
		d.metrics.observe("unknown", string(apperr.KindNotFound), time.Since(start))
		return nil, apperr.NotFound(fmt.Sprintf("unknown command: %s", name))
	}

	result, err := d.invoke(ctx, cmd, args)

	outcome := "ok"
	if err != nil {
		outcome = string(apperr.KindOf(err))
	}
	d.metrics.observe(name, outcome, time.Since(start))

	switch {
	case err == nil:
		d.logger.Debug("command completed", "command", name, "duration", time.Since(start))
	case apperr.KindOf(err) == apperr.KindInternal || apperr.KindOf(err) == apperr.KindStorageUnavailable:
		d.logger.Error("command failed", "command", name, "error", err)
	default:
		d.logger.Info("command rejected", "command", name, "kind", apperr.KindOf(err), "error", err)
	}

	return result, err
}

func (d *Dispatcher) invoke(ctx context.Context, cmd Command, args json.RawMessage) (any, error) {
	if cmd.RequiresSession || cmd.Permission != "" {
		session, err := d.resolveSession(ctx)
		if err != nil {
			return nil, err
		}
		if !session.Authenticated() {
			return nil, apperr.Authentication(MsgSessionRequired)
		}
		if cmd.Permission != "" && !session.Allows(cmd.Permission) {
			return nil, apperr.Authentication(MsgPermissionDenied)
		}
		ctx = auth.WithSession(ctx, session)
	}

	return cmd.Handler(ctx, args)
}

// resolveSession returns the caller's session with its account resolved.
func (d *Dispatcher) resolveSession(ctx context.Context) (*auth.Session, error) {
	session := auth.FromContext(ctx)
	if session.Authenticated() {
		return session, nil
	}
	if session == nil || session.Token == "" || d.auth == nil {
		return &auth.Session{}, nil
	}
	return d.auth.Resolve(ctx, session.Token)
}
