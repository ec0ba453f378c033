package groupware

import (
	"context"
	"errors"
	"log/slog"

	"github.com/rbaliyan/groupware/account"
	"github.com/rbaliyan/groupware/contact"
)

// Plugin defines the interface for service extensions.
// Plugins can hook into contact and account saves to add custom behavior
// such as normalisation, policy checks or audit logging.
//
// For observing writes after the fact, use the event system instead
// (ContactCreated, AccountUpdated, etc.).
type Plugin interface {
	// Name returns the plugin identifier.
	Name() string
	// Init initializes the plugin. Called when service connects.
	Init(ctx context.Context) error
	// Close cleans up plugin resources. Called when service closes.
	Close(ctx context.Context) error
}

// ContactHook is called before and after a contact is saved by Create,
// Update, Merge, ImportVCard and SetImage.
type ContactHook interface {
	Plugin
	// BeforeSaveContact may modify c. Return an error to abort the save.
	BeforeSaveContact(ctx context.Context, userID string, c *contact.Contact) error
	// AfterSaveContact is called with the stored contact.
	// The contact is already saved and cannot be rolled back.
	AfterSaveContact(ctx context.Context, userID string, c *contact.Contact) error
}

// AccountHook is called before a mail account is created or updated. The
// account passed has its passwords in plain text.
type AccountHook interface {
	Plugin
	// BeforeSaveAccount may modify acc. Return an error to abort the save.
	BeforeSaveAccount(ctx context.Context, userID string, acc *account.Account) error
}

// pluginRegistry holds registered plugins.
type pluginRegistry struct {
	all      []Plugin
	contacts []ContactHook
	accounts []AccountHook
	logger   *slog.Logger
}

// newPluginRegistry creates a new plugin registry.
func newPluginRegistry(logger *slog.Logger) *pluginRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &pluginRegistry{logger: logger}
}

// register adds a plugin to the registry.
func (r *pluginRegistry) register(p Plugin) {
	r.all = append(r.all, p)

	if h, ok := p.(ContactHook); ok {
		r.contacts = append(r.contacts, h)
	}
	if h, ok := p.(AccountHook); ok {
		r.accounts = append(r.accounts, h)
	}
}

// initAll initializes all plugins.
// On failure, already-initialized plugins are closed in reverse order.
func (r *pluginRegistry) initAll(ctx context.Context) error {
	for i, p := range r.all {
		if err := p.Init(ctx); err != nil {
			for j := i - 1; j >= 0; j-- {
				if closeErr := r.all[j].Close(ctx); closeErr != nil {
					r.logger.Error("failed to close plugin during init rollback",
						"plugin", r.all[j].Name(), "error", closeErr)
				}
			}
			return &HookError{Plugin: p.Name(), Op: "init", Err: err}
		}
	}
	return nil
}

// closeAll closes all plugins in reverse order.
func (r *pluginRegistry) closeAll(ctx context.Context) error {
	var errs []error
	for i := len(r.all) - 1; i >= 0; i-- {
		if err := r.all[i].Close(ctx); err != nil {
			errs = append(errs, &HookError{Plugin: r.all[i].Name(), Op: "close", Err: err})
		}
	}
	return errors.Join(errs...)
}

// HookError represents an error from a plugin.
type HookError struct {
	Plugin string
	Op     string
	Err    error
}

func (e *HookError) Error() string {
	return "plugin " + e.Plugin + " " + e.Op + ": " + e.Err.Error()
}

func (e *HookError) Unwrap() error {
	return e.Err
}

// Hook execution helpers

func (r *pluginRegistry) beforeSaveContact(ctx context.Context, userID string, c *contact.Contact) error {
	for _, h := range r.contacts {
		if err := h.BeforeSaveContact(ctx, userID, c); err != nil {
			return &HookError{Plugin: h.Name(), Op: "BeforeSaveContact", Err: err}
		}
	}
	return nil
}

// afterSaveContact runs every hook; failures are logged since the contact
// is already stored.
func (r *pluginRegistry) afterSaveContact(ctx context.Context, userID string, c *contact.Contact) {
	for _, h := range r.contacts {
		if err := h.AfterSaveContact(ctx, userID, c); err != nil {
			r.logger.Warn("after save hook failed",
				"plugin", h.Name(), "user_id", userID, "contact_id", c.ID, "error", err)
		}
	}
}

func (r *pluginRegistry) beforeSaveAccount(ctx context.Context, userID string, acc *account.Account) error {
	for _, h := range r.accounts {
		if err := h.BeforeSaveAccount(ctx, userID, acc); err != nil {
			return &HookError{Plugin: h.Name(), Op: "BeforeSaveAccount", Err: err}
		}
	}
	return nil
}
