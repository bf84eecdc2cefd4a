package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/fragmede/passage/internal/history"
	"github.com/fragmede/passage/internal/session"
	"github.com/fragmede/passage/internal/ui"
	"github.com/fragmede/passage/internal/ui/historyview"
)

func newSignInCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "signin EMAIL",
		Short: "Sign in with the auth provider and print the current user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, _ := cmd.Flags().GetString("password")
			showToken, _ := cmd.Flags().GetBool("show-token")

			var d deps
			defer d.close()
			if err := d.setup(true); err != nil {
				return err
			}
			d.provider.OnSessionChange(history.EventRecorder(d.history))
			d.store.Subscribe()

			if _, err := d.provider.SignInWithPassword(cmd.Context(), args[0], password); err != nil {
				return err
			}
			if err := d.store.FetchUser(cmd.Context()); err != nil {
				return fmt.Errorf("fetching user: %w", err)
			}
			token := d.provider.Session().AccessToken
			if !showToken {
				token = shortToken(token)
			}
			fmt.Fprintln(cmd.ErrOrStderr(), ui.TitleStyle.Render("Signed in. Access token (not stored):"))
			fmt.Fprintln(cmd.ErrOrStderr(), token)
			return printUser(cmd, d.store.User())
		},
	}
	cmd.Flags().StringP("password", "p", "", "account password")
	cmd.MarkFlagRequired("password")
	cmd.Flags().Bool("show-token", false, "print the full access token")
	return cmd
}

// shortToken keeps enough of a token to tell tokens apart.
func shortToken(token string) string {
	const keep = 8
	if len(token) <= 2*keep {
		return "[redacted]"
	}
	return token[:keep] + "..." + token[len(token)-4:]
}

func newSignOutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "signout",
		Short: "Revoke an access token at the auth provider",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, _ := cmd.Flags().GetString("token")

			var d deps
			defer d.close()
			if err := d.setup(true); err != nil {
				return err
			}
			d.provider.SetSession(&session.Session{AccessToken: token})
			sub := d.provider.OnSessionChange(history.EventRecorder(d.history))
			defer sub.Unsubscribe()

			if err := d.provider.SignOut(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "signed out")
			return nil
		},
	}
	cmd.Flags().String("token", "", "access token to revoke")
	cmd.MarkFlagRequired("token")
	return cmd
}

func newWhoamiCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Fetch the user behind an access token and show recent history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, _ := cmd.Flags().GetString("token")

			var d deps
			defer d.close()
			if err := d.setup(true); err != nil {
				return err
			}
			if token != "" {
				d.provider.SetSession(&session.Session{AccessToken: token})
			}

			var recent []history.Entry
			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				if err := d.store.FetchUser(ctx); err != nil {
					return fmt.Errorf("fetching user: %w", err)
				}
				return recordFetch(ctx, d.history, d.store.User())
			})
			g.Go(func() error {
				var err error
				recent, err = d.history.Recent(ctx, d.cfg.HistoryPreview)
				return err
			})
			if err := g.Wait(); err != nil {
				return err
			}

			if err := printUser(cmd, d.store.User()); err != nil {
				return err
			}
			if len(recent) > 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), ui.TitleStyle.Render("Recent history"))
				for _, e := range recent {
					fmt.Fprintln(cmd.ErrOrStderr(), historyview.FormatEntry(e))
				}
			}
			return nil
		},
	}
	cmd.Flags().String("token", "", "access token issued by the auth provider")
	return cmd
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded session changes, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")

			var d deps
			defer d.close()
			if err := d.setup(true); err != nil {
				return err
			}

			entries, err := d.history.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), ui.DimStyle.Render("Nothing recorded yet."))
				return nil
			}
			for _, e := range entries {
				fmt.Fprintln(cmd.OutOrStdout(), historyview.FormatEntry(e))
			}
			return nil
		},
	}
	cmd.Flags().IntP("limit", "n", 20, "number of entries to show")
	return cmd
}

func recordFetch(ctx context.Context, db *history.DB, u *session.User) error {
	e := history.Entry{Source: history.SourceFetch}
	if u != nil {
		e.UserID = u.ID
		e.Email = u.Email
	}
	return db.Record(ctx, e)
}

func printUser(cmd *cobra.Command, u *session.User) error {
	if u == nil {
		fmt.Fprintln(cmd.OutOrStdout(), ui.ErrorStyle.Render("signed out"))
		return nil
	}
	out := u.Raw
	if len(out) == 0 {
		var err error
		if out, err = json.MarshalIndent(u, "", "  "); err != nil {
			return err
		}
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
