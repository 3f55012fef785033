package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/walkpoints/walkpoints/internal/config"
	"github.com/walkpoints/walkpoints/internal/database"
	"github.com/walkpoints/walkpoints/internal/logging"
	"github.com/walkpoints/walkpoints/internal/navvis"
	"github.com/walkpoints/walkpoints/internal/tui"
)

// loopQueueSize bounds the timer callbacks waiting for the update loop.
const loopQueueSize = 64

// app holds the state shared by every command: flags, configuration,
// logger and the lazily opened store.
type app struct {
	cfgFile string
	dbPath  string
	verbose bool

	config *config.Manager
	log    *zap.Logger
	store  *database.DBService
}

// newRootCmd builds the command tree. The caller closes the returned app
// once Execute returns, whatever the outcome.
func newRootCmd() (*cobra.Command, *app) {
	a := &app{log: zap.NewNop()}

	root := &cobra.Command{
		Use:   "walkpoints",
		Short: "Step tracking and rewards in the terminal",
		Long: `WalkPoints turns daily steps into points you can spend on rewards.

Run without a command to open the interactive app. The tab bar at the
bottom hides itself after a few seconds without input and comes back on
the next key press, click or scroll.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			switch cmd.Name() {
			case "help", "completion", "version", "schema":
				return nil
			}
			return a.init()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runTUI(cmd.Context())
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default ~/.config/walkpoints/config.toml)")
	flags.StringVar(&a.dbPath, "db", "", "SQLite database file (overrides database.path)")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "log at debug level")

	root.AddCommand(
		newReportCmd(a),
		newImportCmd(a),
		newMilestonesCmd(a),
		newRewardsCmd(a),
		newRedeemCmd(a),
		newConfigCmd(a),
		newVersionCmd(),
	)
	return root, a
}

// init loads the configuration and builds the file logger.
func (a *app) init() error {
	a.config = config.NewManager(a.cfgFile, nil)
	if err := a.config.Load(); err != nil {
		return err
	}

	log, err := logging.New(a.config.Get().Log, a.verbose)
	if err != nil {
		return err
	}
	a.log = log
	a.config.SetLogger(log)
	a.log.Debug("configuration loaded", zap.String("file", a.config.ConfigFileUsed()))
	return nil
}

// openStore opens the database once per invocation.
func (a *app) openStore() (*database.DBService, error) {
	if a.store != nil {
		return a.store, nil
	}

	path := a.dbPath
	if path == "" {
		path = a.config.Get().Database.Path
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	store, err := database.NewDBService(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database at %s: %w", path, err)
	}
	a.log.Debug("database opened", zap.String("path", path))
	a.store = store
	return store, nil
}

func (a *app) close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn("closing database", zap.Error(err))
		}
		a.store = nil
	}
	_ = a.log.Sync()
}

// runTUI starts the interactive app. Config file edits are forwarded to
// the running program, which remounts the tab stack with the new settings.
func (a *app) runTUI(ctx context.Context) error {
	store, err := a.openStore()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	loop := navvis.NewLoop(loopQueueSize)
	defer loop.Close()

	model := tui.NewModel(tui.Options{
		Store:   store,
		Loop:    loop,
		Config:  a.config.Get(),
		Logger:  a.log,
		Context: ctx,
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))

	a.config.OnConfigChange(func(c *config.Config) {
		a.log.Info("configuration reloaded",
			zap.Bool("auto_hide", c.Nav.AutoHide),
			zap.Int("inactivity_timeout_ms", c.Nav.InactivityTimeoutMs))
		p.Send(tui.ConfigChangedMsg{Config: c})
	})
	if err := a.config.Watch(); err != nil {
		a.log.Warn("config watch unavailable", zap.Error(err))
	}

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}
