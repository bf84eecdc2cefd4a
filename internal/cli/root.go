// Package cli wires the passage commands.
package cli

import (
	"fmt"
	"io"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/fragmede/passage/internal/api"
	"github.com/fragmede/passage/internal/config"
	"github.com/fragmede/passage/internal/history"
	"github.com/fragmede/passage/internal/logging"
	"github.com/fragmede/passage/internal/provider"
	"github.com/fragmede/passage/internal/session"
	"github.com/fragmede/passage/internal/ui"
)

// deps is everything a command may need. Fields are filled by setup and
// released by close.
type deps struct {
	cfg      config.Config
	client   *api.Client
	provider *provider.Client
	store    *session.Store
	history  *history.DB
	closers  []io.Closer
}

func (d *deps) setup(withHistory bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	d.cfg = cfg

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}
	logCloser, err := logging.Setup(cfg)
	if err != nil {
		return err
	}
	d.closers = append(d.closers, logCloser)

	d.client = api.NewClient(cfg.APIURL)
	d.provider = provider.New(cfg.ProviderURL, cfg.ProviderKey)
	d.store = session.NewStore(d.provider)

	if withHistory {
		db, err := history.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("opening history: %w", err)
		}
		d.history = db
		d.closers = append(d.closers, db)
	}
	log.Printf("passage: api=%s provider=%s", cfg.APIURL, cfg.ProviderURL)
	return nil
}

func (d *deps) close() {
	if d.store != nil {
		d.store.Close()
	}
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i].Close()
	}
}

// NewRootCmd builds the command tree. Running it without a subcommand opens
// the TUI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "passage [command] [flags]",
		Short:         "Log in, register and watch the current user from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE:          runTUI,
	}

	root.AddCommand(
		newLoginCmd(),
		newRegisterCmd(),
		newSignInCmd(),
		newSignOutCmd(),
		newWhoamiCmd(),
		newHistoryCmd(),
	)
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runTUI(cmd *cobra.Command, args []string) error {
	var d deps
	defer d.close()
	if err := d.setup(true); err != nil {
		return err
	}

	d.store.Watch(history.Recorder(d.history))

	app := ui.NewApp(d.cfg, d.client, d.provider, d.store, d.history)
	p := tea.NewProgram(app, tea.WithAltScreen())
	app.SetProgram(p)
	defer app.Close()

	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}
