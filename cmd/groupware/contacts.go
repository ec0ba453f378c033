package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rbaliyan/groupware"
	"github.com/rbaliyan/groupware/contact"
)

func (a *app) contactsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "contacts",
		Aliases: []string{"c"},
		Short:   "Manage contacts",
	}
	cmd.AddCommand(
		a.contactsListCmd(),
		a.contactsExportCmd(),
		a.contactsImportCmd(),
		a.contactsSimilarCmd(),
	)
	return cmd
}

func (a *app) contactsListCmd() *cobra.Command {
	var (
		pattern string
		limit   int
		offset  int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List or search the contacts of a folder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd, func(ctx context.Context, svc groupware.Service) error {
				opts := groupware.ListOptions{Limit: limit, Offset: offset}
				list, err := svc.AddressBook(a.userID).Search(ctx, groupware.ContactQuery{
					Folders: []string{a.folderID},
					Pattern: pattern,
					Options: opts,
				})
				if err != nil {
					return err
				}
				printContacts(cmd.OutOrStdout(), list.Contacts)
				if list.HasMore {
					fmt.Fprintf(cmd.OutOrStdout(), "(%d of %d shown)\n", len(list.Contacts), list.Total)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&pattern, "search", "s", "", "Pattern to match; * and ? are wildcards")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of contacts")
	cmd.Flags().IntVar(&offset, "offset", 0, "Contacts to skip")
	return cmd
}

func printContacts(w io.Writer, cs []*contact.Contact) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tE-MAIL\tCOMPANY")
	for _, c := range cs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.ID, contact.DisplayNameOf(c), c.PreferredEmail(), c.Company)
	}
	tw.Flush()
}

func (a *app) contactsExportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the contacts of a folder as vCard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd, func(ctx context.Context, svc groupware.Service) error {
				w := cmd.OutOrStdout()
				if out != "" && out != "-" {
					f, err := os.Create(out)
					if err != nil {
						return err
					}
					defer f.Close()
					w = f
				}
				n, err := svc.AddressBook(a.userID).ExportVCard(ctx, w, a.folderID)
				if err != nil {
					return err
				}
				if w != cmd.OutOrStdout() {
					fmt.Fprintf(cmd.OutOrStdout(), "Exported %d contacts to %s\n", n, out)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "Output file (default stdout)")
	return cmd
}

func (a *app) contactsImportCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import contacts from a vCard file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd, func(ctx context.Context, svc groupware.Service) error {
				var r io.Reader = cmd.InOrStdin()
				if args[0] != "-" {
					f, err := os.Open(args[0])
					if err != nil {
						return err
					}
					defer f.Close()
					r = f
				}
				res, err := svc.AddressBook(a.userID).ImportVCard(ctx, a.folderID, r, force)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				fmt.Fprintf(w, "Imported %d, skipped %d similar, failed %d\n",
					len(res.Created), len(res.Skipped), len(res.Failed))
				for i, err := range res.Failed {
					fmt.Fprintf(w, "  card %d: %v\n", i, err)
				}
				if res.Unreadable != nil {
					fmt.Fprintf(w, "  unreadable: %v\n", res.Unreadable)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Import cards similar to existing contacts")
	return cmd
}

func (a *app) contactsSimilarCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "similar ID",
		Short: "Show contacts that likely describe the same person",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd, func(ctx context.Context, svc groupware.Service) error {
				book := svc.AddressBook(a.userID)
				c, err := book.Get(ctx, a.folderID, args[0])
				if err != nil {
					return err
				}
				similar, err := book.FindSimilar(ctx, c)
				if err != nil {
					return err
				}
				if len(similar) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No similar contacts")
					return nil
				}
				printContacts(cmd.OutOrStdout(), similar)
				return nil
			})
		},
	}
	return cmd
}
