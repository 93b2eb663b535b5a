// ABOUTME: Command handlers for the session authority, store lifecycle and settings
// ABOUTME: Each handler decodes its arguments and delegates to auth or store

package commands

import (
	"context"
	"encoding/json"
	"errors"
	"runtime"
	"strings"

	"github.com/2389/erpdesk/internal/apperr"
	"github.com/2389/erpdesk/internal/auth"
	"github.com/2389/erpdesk/internal/store"
)

// PermissionAdmin gates account provisioning, backup, restore and session
// maintenance.
const PermissionAdmin = "admin"

// AppInfo describes the running build.
type AppInfo struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// Services are the dependencies the handlers delegate to.
type Services struct {
	Store   *store.Manager
	Auth    *auth.Authority
	Hasher  *auth.Hasher
	Version string
}

// Register installs every erpdesk command on d.
func Register(d *Dispatcher, svc Services) {
	h := &handlers{svc: svc}

	d.Register("login", Command{Handler: h.login})
	d.Register("logout", Command{Handler: h.logout})
	d.Register("getCurrentUser", Command{Handler: h.getCurrentUser})
	d.Register("changePassword", Command{Handler: h.changePassword})
	d.Register("validateSession", Command{Handler: h.validateSession})
	d.Register("initDatabase", Command{Handler: h.initDatabase})
	d.Register("backupDatabase", Command{Handler: h.backupDatabase, RequiresSession: true, Permission: PermissionAdmin})
	d.Register("restoreDatabase", Command{Handler: h.restoreDatabase, RequiresSession: true, Permission: PermissionAdmin})

	d.Register("getConfig", Command{Handler: h.getConfig})
	d.Register("saveConfig", Command{Handler: h.saveConfig, RequiresSession: true})
	d.Register("getOrganization", Command{Handler: h.getOrganization})
	d.Register("saveOrganization", Command{Handler: h.saveOrganization, RequiresSession: true})
	d.Register("createAccount", Command{Handler: h.createAccount, RequiresSession: true, Permission: PermissionAdmin})
	d.Register("purgeExpiredSessions", Command{Handler: h.purgeExpiredSessions, RequiresSession: true, Permission: PermissionAdmin})
	d.Register("getAppInfo", Command{Handler: h.getAppInfo})
}

type handlers struct {
	svc Services
}

type tokenArgs struct {
	Token string `json:"token"`
}

// token returns the explicit argument, falling back to the bearer token
// the caller presented.
func (a tokenArgs) token(ctx context.Context) string {
	if a.Token != "" {
		return a.Token
	}
	return auth.TokenFromContext(ctx)
}

type pathArgs struct {
	Path string `json:"path" validate:"notblank"`
}

func (h *handlers) login(ctx context.Context, raw json.RawMessage) (any, error) {
	args, err := decodeArgs[struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}](raw)
	if err != nil {
		return nil, err
	}
	return h.svc.Auth.Login(ctx, args.Email, args.Password)
}

func (h *handlers) logout(ctx context.Context, raw json.RawMessage) (any, error) {
	args, err := decodeArgs[tokenArgs](raw)
	if err != nil {
		return nil, err
	}
	if err := h.svc.Auth.Logout(ctx, args.token(ctx)); err != nil {
		return nil, err
	}
	return true, nil
}

func (h *handlers) getCurrentUser(ctx context.Context, raw json.RawMessage) (any, error) {
	args, err := decodeArgs[tokenArgs](raw)
	if err != nil {
		return nil, err
	}
	account, err := h.svc.Auth.CurrentAccount(ctx, args.token(ctx))
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, nil
	}
	return account, nil
}

func (h *handlers) changePassword(ctx context.Context, raw json.RawMessage) (any, error) {
	args, err := decodeArgs[struct {
		AccountID       int64  `json:"accountId"`
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}](raw)
	if err != nil {
		return nil, err
	}
	if err := h.svc.Auth.ChangePassword(ctx, args.AccountID, args.CurrentPassword, args.NewPassword); err != nil {
		return nil, err
	}
	return true, nil
}

func (h *handlers) validateSession(ctx context.Context, raw json.RawMessage) (any, error) {
	args, err := decodeArgs[tokenArgs](raw)
	if err != nil {
		return nil, err
	}
	return h.svc.Auth.ValidateSession(ctx, args.token(ctx)), nil
}

func (h *handlers) initDatabase(ctx context.Context, _ json.RawMessage) (any, error) {
	if err := h.svc.Store.Initialize(ctx); err != nil {
		return nil, err
	}
	return true, nil
}

func (h *handlers) backupDatabase(ctx context.Context, raw json.RawMessage) (any, error) {
	args, err := decodeArgs[pathArgs](raw)
	if err != nil {
		return nil, err
	}
	if err := h.svc.Store.Backup(ctx, args.Path); err != nil {
		return nil, err
	}
	return true, nil
}

func (h *handlers) restoreDatabase(ctx context.Context, raw json.RawMessage) (any, error) {
	args, err := decodeArgs[pathArgs](raw)
	if err != nil {
		return nil, err
	}
	if err := h.svc.Store.Restore(ctx, args.Path); err != nil {
		return nil, err
	}
	return true, nil
}

func (h *handlers) getConfig(ctx context.Context, raw json.RawMessage) (any, error) {
	args, err := decodeArgs[struct {
		Key string `json:"key" validate:"required"`
	}](raw)
	if err != nil {
		return nil, err
	}

	value, err := h.svc.Store.GetSetting(ctx, args.Key)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError(err)
	}
	return value, nil
}

func (h *handlers) saveConfig(ctx context.Context, raw json.RawMessage) (any, error) {
	args, err := decodeArgs[struct {
		Key   string          `json:"key" validate:"required"`
		Value json.RawMessage `json:"value"`
	}](raw)
	if err != nil {
		return nil, err
	}
	if err := h.svc.Store.SaveSetting(ctx, args.Key, args.Value); err != nil {
		return nil, storeError(err)
	}
	return true, nil
}

func (h *handlers) getOrganization(ctx context.Context, _ json.RawMessage) (any, error) {
	org, err := h.svc.Store.GetOrganization(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError(err)
	}
	return org, nil
}

func (h *handlers) saveOrganization(ctx context.Context, raw json.RawMessage) (any, error) {
	org, err := decodeArgs[store.Organization](raw)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(org.LegalName) == "" {
		return nil, apperr.Validation("legal name is required")
	}

	saved, err := h.svc.Store.SaveOrganization(ctx, &org)
	if errors.Is(err, store.ErrTaxIDExists) {
		return nil, apperr.Validation("tax id already registered")
	}
	if err != nil {
		return nil, storeError(err)
	}
	return saved, nil
}

func (h *handlers) createAccount(ctx context.Context, raw json.RawMessage) (any, error) {
	args, err := decodeArgs[struct {
		Name        string            `json:"name" validate:"notblank,max=120"`
		Email       string            `json:"email" validate:"required,email"`
		Password    string            `json:"password" validate:"required"`
		Role        string            `json:"role" validate:"max=60"`
		Department  string            `json:"department" validate:"max=60"`
		Permissions store.Permissions `json:"permissions"`
	}](raw)
	if err != nil {
		return nil, err
	}

	hash, err := h.svc.Hasher.Hash(args.Password)
	if err != nil {
		return nil, apperr.Validation("password cannot be used")
	}

	account := &store.Account{
		Name:         args.Name,
		Email:        args.Email,
		PasswordHash: hash,
		Role:         args.Role,
		Department:   args.Department,
		Active:       true,
		Permissions:  args.Permissions,
	}
	if err := h.svc.Store.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			return nil, apperr.Validation("email already registered")
		}
		return nil, storeError(err)
	}
	return account.Public(), nil
}

func (h *handlers) purgeExpiredSessions(ctx context.Context, _ json.RawMessage) (any, error) {
	removed, err := h.svc.Store.DeleteExpiredSessions(ctx)
	if err != nil {
		return nil, storeError(err)
	}
	return map[string]int64{"removed": removed}, nil
}

func (h *handlers) getAppInfo(context.Context, json.RawMessage) (any, error) {
	return AppInfo{
		Name:      "erpdesk",
		Version:   h.svc.Version,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}, nil
}

// storeError classifies an unclassified store failure as storage
// unavailable. Classified errors pass through.
func storeError(err error) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	return apperr.StorageUnavailable("database operation failed", err)
}
