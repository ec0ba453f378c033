package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/rbaliyan/groupware"
	"github.com/rbaliyan/groupware/account"
	"github.com/rbaliyan/groupware/probe"
)

func (a *app) accountsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "accounts",
		Aliases: []string{"a"},
		Short:   "Manage mail accounts",
	}
	cmd.AddCommand(
		a.accountsListCmd(),
		a.accountsAddCmd(),
		a.accountsProbeCmd(),
		a.accountsUnifiedCmd(),
	)
	return cmd
}

func (a *app) accountsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List mail accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd, func(ctx context.Context, svc groupware.Service) error {
				accs, err := svc.MailAccounts(a.userID).List(ctx)
				if err != nil {
					return err
				}
				printAccounts(cmd.OutOrStdout(), accs)
				return nil
			})
		},
	}
}

func printAccounts(w io.Writer, accs []*account.Account) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tADDRESS\tMAIL\tTRANSPORT\tUNIFIED")
	for _, acc := range accs {
		transport := "-"
		if acc.HasTransport() {
			transport = acc.Transport.URL()
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%t\n",
			acc.ID, acc.Name, acc.PrimaryAddress, acc.Mail.URL(), transport, acc.UnifiedMailEnabled)
	}
	tw.Flush()
}

func (a *app) accountsAddCmd() *cobra.Command {
	var (
		name, address, personal string
		mailURL, transportURL   string
		login, password         string
		unified, check          bool
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a mail account",
		Long: `Add a mail account. Servers are given as URLs such as
imaps://imap.example.com or smtp://smtp.example.com:587; the port
defaults to the protocol's standard port.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mail, err := account.ParseServerURL(mailURL)
			if err != nil {
				return fmt.Errorf("--mail: %w", err)
			}
			if login != "" {
				mail.Login = login
			}
			if password != "" {
				mail.Password = password
			}
			acc := &account.Account{
				Name:               name,
				PrimaryAddress:     address,
				Personal:           personal,
				Mail:               mail,
				UnifiedMailEnabled: unified,
			}
			if acc.Name == "" {
				acc.Name = address
			}
			if acc.Mail.Login == "" {
				acc.Mail.Login = address
			}
			if transportURL != "" {
				transport, err := account.ParseServerURL(transportURL)
				if err != nil {
					return fmt.Errorf("--transport: %w", err)
				}
				acc.Transport = transport
			}

			return a.withService(cmd, func(ctx context.Context, svc groupware.Service) error {
				accounts := svc.MailAccounts(a.userID)
				if check {
					report, err := accounts.Check(ctx, acc)
					printReport(cmd.OutOrStdout(), report)
					if err != nil {
						return err
					}
				}
				saved, err := accounts.Create(ctx, acc)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added account %d (%s)\n", saved.ID, saved.PrimaryAddress)
				return nil
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&name, "name", "", "Account name (default the address)")
	f.StringVar(&address, "address", "", "Primary e-mail address")
	f.StringVar(&personal, "personal", "", "Display name used when sending")
	f.StringVar(&mailURL, "mail", "", "Mail server URL, e.g. imaps://imap.example.com")
	f.StringVar(&transportURL, "transport", "", "Transport server URL, e.g. smtp://smtp.example.com:587")
	f.StringVar(&login, "login", "", "Login (default the address)")
	f.StringVar(&password, "password", "", "Password")
	f.BoolVar(&unified, "unified", false, "Include the account in Unified Mail")
	f.BoolVar(&check, "check", false, "Probe the servers before adding")
	_ = cmd.MarkFlagRequired("address")
	_ = cmd.MarkFlagRequired("mail")
	return cmd
}

func (a *app) accountsProbeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "probe ID",
		Short: "Check that an account's servers accept its credentials",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid account id %q", args[0])
			}
			return a.withService(cmd, func(ctx context.Context, svc groupware.Service) error {
				report, err := svc.MailAccounts(a.userID).Probe(ctx, id)
				printReport(cmd.OutOrStdout(), report)
				var pe *groupware.ProbeError
				if errors.As(err, &pe) {
					return fmt.Errorf("account %d is not reachable", id)
				}
				return err
			})
		},
	}
}

func printReport(w io.Writer, r *probe.Report) {
	if r == nil {
		return
	}
	printResult(w, "mail", r.Mail)
	if r.Transport != nil {
		printResult(w, "transport", *r.Transport)
	}
}

func printResult(w io.Writer, label string, r probe.Result) {
	if r.OK() {
		fmt.Fprintf(w, "%-9s %s ok (%s)\n", label, r.URL, r.Latency.Round(time.Millisecond))
		return
	}
	fmt.Fprintf(w, "%-9s %s FAILED: %v\n", label, r.URL, r.Err)
}

func (a *app) accountsUnifiedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unified",
		Short: "Show the folders aggregated by Unified Mail",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd, func(ctx context.Context, svc groupware.Service) error {
				u, err := svc.MailAccounts(a.userID).UnifiedMail(ctx)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				if !u.Enabled() {
					fmt.Fprintln(w, "Unified Mail is disabled: no account takes part")
					return nil
				}
				ids := make([]string, 0, len(u.AccountIDs()))
				for _, id := range u.AccountIDs() {
					ids = append(ids, strconv.Itoa(id))
				}
				fmt.Fprintf(w, "Accounts: %s\n", strings.Join(ids, ", "))
				folders := u.Folders()
				for _, k := range account.UnifiedKinds {
					refs := folders[k]
					names := make([]string, len(refs))
					for i, ref := range refs {
						names[i] = ref.ID()
					}
					fmt.Fprintf(w, "%-7s %s\n", k, strings.Join(names, ", "))
				}
				return nil
			})
		},
	}
}
