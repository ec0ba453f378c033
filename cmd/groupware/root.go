package main

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/rbaliyan/groupware"
	"github.com/rbaliyan/groupware/config"
)

// app holds the flags shared by every command.
type app struct {
	configPath string
	userID     string
	folderID   string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "groupware",
		Short:         "Manage contacts and mail accounts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", config.DefaultPath(), "Config file (YAML)")
	root.PersistentFlags().StringVarP(&a.userID, "user", "u", defaultUser(), "User whose data is managed")
	root.PersistentFlags().StringVarP(&a.folderID, "folder", "f", "contacts", "Contact folder")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(a.contactsCmd(), a.accountsCmd())
	return root
}

func defaultUser() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "default"
}

// withService loads the config, connects a service and runs fn with it.
// Everything is closed when fn returns.
func (a *app) withService(cmd *cobra.Command, fn func(ctx context.Context, svc groupware.Service) error) (err error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.verbose {
		cfg.Log.Level = "debug"
	}
	logger := cfg.Logger(cmd.ErrOrStderr())

	rt, err := config.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, rt.Close(context.WithoutCancel(ctx))) }()

	svc, err := rt.NewService()
	if err != nil {
		return err
	}
	if err := svc.Connect(ctx); err != nil {
		return err
	}
	defer func() { err = errors.Join(err, svc.Close(context.WithoutCancel(ctx))) }()

	return fn(ctx, svc)
}
