// Command tournament is the Swiss tournament admin CLI.
//
// Usage:
//
//	tournament migrate
//	tournament register "Twilight Sparkle" Fluttershy
//	tournament import roster.csv
//	tournament report 1 2
//	tournament standings
//	tournament pairings
//	tournament reset --matches-only
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/albapepper/swiss-tournament/internal/bootstrap"
	"github.com/albapepper/swiss-tournament/internal/config"
	"github.com/albapepper/swiss-tournament/internal/model"
	"github.com/albapepper/swiss-tournament/internal/seed"
	"github.com/albapepper/swiss-tournament/internal/tournament"
)

var logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "tournament",
		Short:        "Swiss tournament admin CLI",
		SilenceUsage: true,
	}

	root.AddCommand(migrateCmd())
	root.AddCommand(resetCmd())
	root.AddCommand(countCmd())
	root.AddCommand(registerCmd())
	root.AddCommand(importCmd())
	root.AddCommand(reportCmd())
	root.AddCommand(standingsCmd())
	root.AddCommand(pairingsCmd())
	root.AddCommand(reconcileCmd())
	return root
}

// --------------------------------------------------------------------------
// store commands
// --------------------------------------------------------------------------

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the schema to the configured store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWith(func(ctx context.Context, cfg *config.Config, svc *tournament.Service) error {
				logger.Info("Schema up to date", "driver", cfg.StoreDriver)
				return nil
			})
		},
	}
}

func resetCmd() *cobra.Command {
	var matchesOnly bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete all matches and players",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWith(func(ctx context.Context, cfg *config.Config, svc *tournament.Service) error {
				if matchesOnly {
					if err := svc.ResetMatches(ctx); err != nil {
						return err
					}
					logger.Info("Matches deleted; run reconcile to zero tallies")
					return nil
				}
				if err := svc.Reset(ctx); err != nil {
					return err
				}
				logger.Info("Tournament reset")
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&matchesOnly, "matches-only", false, "Delete matches but keep players")
	return cmd
}

func reconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Recount every tally from the match log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWith(func(ctx context.Context, cfg *config.Config, svc *tournament.Service) error {
				n, err := svc.Reconcile(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d players corrected\n", n)
				return nil
			})
		},
	}
}

// --------------------------------------------------------------------------
// player commands
// --------------------------------------------------------------------------

func countCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Print the number of registered players",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWith(func(ctx context.Context, cfg *config.Config, svc *tournament.Service) error {
				n, err := svc.CountPlayers(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), n)
				return nil
			})
		},
	}
}

func registerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "register NAME...",
		Short: "Register one player per argument",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWith(func(ctx context.Context, cfg *config.Config, svc *tournament.Service) error {
				w := cmd.OutOrStdout()
				for _, name := range args {
					id, stored, err := svc.RegisterPlayer(ctx, name)
					if err != nil {
						return err
					}
					fmt.Fprintf(w, "%d\t%s\n", id, stored)
				}
				return nil
			})
		},
	}
}

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE...",
		Short: "Register players from CSV roster files (name in the first column)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWith(func(ctx context.Context, cfg *config.Config, svc *tournament.Service) error {
				var total seed.Result
				start := time.Now()
				for _, path := range args {
					f, err := os.Open(path)
					if err != nil {
						total.AddErrorf("%s: %v", path, err)
						continue
					}
					total.Add(seed.ImportRoster(ctx, svc, f, logger.With("file", path)))
					f.Close()
				}
				logger.Info("Import finished",
					"files", len(args),
					"duration", time.Since(start).Round(time.Millisecond),
					"summary", total.Summary())
				for _, e := range total.Errors {
					logger.Error("import error", "error", e)
				}
				if len(total.Errors) > 0 {
					return fmt.Errorf("import finished with %d errors", len(total.Errors))
				}
				return nil
			})
		},
	}
}

// --------------------------------------------------------------------------
// match commands
// --------------------------------------------------------------------------

func reportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report WINNER LOSER",
		Short: "Record that WINNER beat LOSER (player ids)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			winner, err := parsePlayerID(args[0])
			if err != nil {
				return err
			}
			loser, err := parsePlayerID(args[1])
			if err != nil {
				return err
			}
			return runWith(func(ctx context.Context, cfg *config.Config, svc *tournament.Service) error {
				return svc.ReportMatch(ctx, winner, loser)
			})
		},
	}
}

func standingsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "standings",
		Short: "Print players ordered by wins",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWith(func(ctx context.Context, cfg *config.Config, svc *tournament.Service) error {
				rows, err := svc.Standings(ctx)
				if err != nil {
					return err
				}
				writeStandings(cmd.OutOrStdout(), rows)
				return nil
			})
		},
	}
}

func pairingsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pairings",
		Short: "Print Swiss pairings for the next round",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWith(func(ctx context.Context, cfg *config.Config, svc *tournament.Service) error {
				res, err := svc.SwissPairings(ctx)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID1\tNAME1\tID2\tNAME2")
				for _, p := range res.Pairs {
					fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n", p.ID1, p.Name1, p.ID2, p.Name2)
				}
				tw.Flush()
				if res.Unpaired != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "unpaired: %d %s\n", res.Unpaired.ID, res.Unpaired.Name)
				}
				return nil
			})
		},
	}
}

func writeStandings(w io.Writer, rows []model.Standing) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tWINS\tLOSSES\tMATCHES")
	for _, s := range rows {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\n", s.ID, s.Name, s.Wins, s.Losses(), s.Matches)
	}
	tw.Flush()
}

func parsePlayerID(s string) (model.PlayerID, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid player id %q", s)
	}
	return model.PlayerID(n), nil
}

// --------------------------------------------------------------------------
// Shared setup
// --------------------------------------------------------------------------

// runWith handles config loading, store setup, and context cancellation.
func runWith(fn func(ctx context.Context, cfg *config.Config, svc *tournament.Service) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	st, err := bootstrap.OpenStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	svc := tournament.New(st, nil, logger, tournament.Options{StrictMatches: cfg.StrictMatches})
	return fn(ctx, cfg, svc)
}
