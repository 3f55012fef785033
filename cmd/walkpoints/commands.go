package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/walkpoints/walkpoints/internal/analysis"
	"github.com/walkpoints/walkpoints/internal/config"
	"github.com/walkpoints/walkpoints/internal/database"
	"github.com/walkpoints/walkpoints/internal/ingestion"
	"github.com/walkpoints/walkpoints/pkg/jsonutil"
	"github.com/walkpoints/walkpoints/pkg/timeutil"
)

// reportWrap is the glamour word-wrap width for rendered reports.
const reportWrap = 100

func newReportCmd(a *app) *cobra.Command {
	var (
		period   string
		raw      bool
		asJSON   bool
		business bool
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the step analytics report",
		Long: `Print analytics for the chosen period as markdown.

The report is rendered for the terminal unless --raw is given. --business
prints reward and redemption figures instead of step analytics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := analysis.ParsePeriod(period)
			if err != nil {
				return err
			}
			store, err := a.openStore()
			if err != nil {
				return err
			}

			an := analysis.NewAnalyzer(store)
			now := time.Now()
			var (
				v  interface{}
				md string
			)
			if business {
				r, err := an.BusinessReport(p, now)
				if err != nil {
					return err
				}
				v, md = r, analysis.FormatBusinessReport(r)
			} else {
				r, err := an.Report(p, now)
				if err != nil {
					return err
				}
				v, md = r, analysis.FormatReport(r)
			}

			out := cmd.OutOrStdout()
			switch {
			case asJSON:
				return jsonutil.Write(out, v)
			case raw:
				_, err = io.WriteString(out, md)
				return err
			}

			renderer, err := glamour.NewTermRenderer(
				glamour.WithAutoStyle(),
				glamour.WithWordWrap(reportWrap),
			)
			if err != nil {
				return fmt.Errorf("creating markdown renderer: %w", err)
			}
			rendered, err := renderer.Render(md)
			if err != nil {
				return fmt.Errorf("rendering report: %w", err)
			}
			_, err = io.WriteString(out, rendered)
			return err
		},
	}
	cmd.Flags().StringVarP(&period, "period", "p", string(analysis.PeriodWeek), "week, month or all")
	cmd.Flags().BoolVar(&raw, "raw", false, "print plain markdown")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	cmd.Flags().BoolVar(&business, "business", false, "report on rewards and redemptions")
	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	var batch int
	cmd := &cobra.Command{
		Use:   "import <file|->",
		Short: "Import daily step samples",
		Long: `Import daily step totals from a JSON-lines file, or from stdin with "-".

Each line holds one day:

  {"day": "2024-05-01", "steps": 8412, "distance_m": 6390.5, "active_minutes": 74}

distance_m and active_minutes are optional. Malformed lines are skipped
and counted. In-progress milestones advance with the imported totals.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}

			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("opening import file: %w", err)
				}
				defer f.Close()
				r = f
			}

			cfg := ingestion.DefaultConfig()
			if batch > 0 {
				cfg.BatchSize = batch
			}
			if p, err := store.GetProfile(); err == nil && p.StrideM > 0 {
				cfg.StrideM = p.StrideM
			}

			m, err := ingestion.NewImporter(cfg, store, a.log).Import(cmd.Context(), r)
			if err != nil {
				return fmt.Errorf("import stopped after %d days: %w", m.Imported, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(),
				"Imported %s days from %s lines (%d skipped, %d batches, %d milestones completed)\n",
				humanize.Comma(m.Imported), humanize.Comma(m.LinesRead),
				m.Skipped, m.BatchesCommitted, m.MilestonesCompleted)
			return nil
		},
	}
	cmd.Flags().IntVar(&batch, "batch", 0, "days per transaction (default 500)")
	return cmd
}

func newMilestonesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "milestones",
		Aliases: []string{"ms"},
		Short:   "List or add milestones",
	}

	var asJSON bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List milestones, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			ms, err := store.ListMilestones()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return jsonutil.Write(out, ms)
			}
			fmt.Fprintf(out, "%-38s %10s %10s %6s  %s\n", "ID", "TARGET", "CURRENT", "POINTS", "STATUS")
			for _, m := range ms {
				fmt.Fprintf(out, "%-38s %10s %10s %6d  %s\n",
					m.MilestoneID, humanize.Comma(int64(m.TargetSteps)),
					humanize.Comma(int64(m.CurrentSteps)), m.Points, m.Status)
			}
			return nil
		},
	}
	list.Flags().BoolVar(&asJSON, "json", false, "print as JSON")

	add := &cobra.Command{
		Use:   "add <target-steps>",
		Short: "Add a milestone with a random payout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("target steps %q: %w", args[0], err)
			}
			store, err := a.openStore()
			if err != nil {
				return err
			}

			m := database.NewMilestone(target, time.Now().UnixNano())
			if err := store.InsertMilestone(m); err != nil {
				return err
			}
			a.log.Info("milestone added",
				zap.String("milestone_id", m.MilestoneID),
				zap.Int("target_steps", m.TargetSteps),
				zap.Int("points", m.Points))
			fmt.Fprintf(cmd.OutOrStdout(), "Milestone added: %s steps for %d pts\n",
				humanize.Comma(int64(m.TargetSteps)), m.Points)
			return nil
		},
	}

	cmd.AddCommand(list, add)
	return cmd
}

func newRewardsCmd(a *app) *cobra.Command {
	var (
		all    bool
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "rewards",
		Short: "List rewards, cheapest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			filter := database.RewardFilter{}
			if !all {
				active := true
				filter.Active = &active
			}
			rewards, err := store.ListRewards(filter)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return jsonutil.Write(out, rewards)
			}
			for _, r := range rewards {
				state := ""
				if !r.Active {
					state = " (inactive)"
				}
				fmt.Fprintf(out, "%-10s %6d pts  %s, %s%s\n", r.RewardID, r.Points, r.Title, r.Partner, state)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "include inactive rewards")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func newRedeemCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "redeem <reward-id>",
		Short: "Spend points on a reward",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}

			red, err := store.Redeem(args[0], time.Now().UnixNano())
			if errors.Is(err, database.ErrInsufficientPoints) {
				if p, perr := store.GetProfile(); perr == nil {
					return fmt.Errorf("%w: balance is %s", err, humanize.Comma(int64(p.Points)))
				}
			}
			if err != nil {
				return err
			}

			a.log.Info("reward redeemed",
				zap.String("reward_id", red.RewardID),
				zap.String("code", red.Code),
				zap.Int("points", red.Points))
			fmt.Fprintf(cmd.OutOrStdout(), "Redeemed %s for %d pts on %s\nCode: %s\n",
				red.RewardTitle, red.Points, timeutil.FormatDate(red.RedeemedAt), red.Code)
			return nil
		},
	}
}

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the configuration or its schema",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if file := a.config.ConfigFileUsed(); file != "" {
				a.log.Debug("showing config", zap.String("file", file))
			}
			return jsonutil.Write(cmd.OutOrStdout(), a.config.Get())
		},
	}

	schema := &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema of the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := config.Schema()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), jsonutil.PrettyJSON(string(data)))
			return err
		},
	}

	cmd.AddCommand(show, schema)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "WalkPoints v%s (commit: %s, built: %s)\n", Version, GitCommit, BuildTime)
		},
	}
}
