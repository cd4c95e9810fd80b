package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "bioblitz",
		Short: "Live scoring backend for weekend bioblitz competitions",
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: env EQL_CONFIG)")

	root.AddCommand(serveCmd())
	root.AddCommand(scoreCmd())
	root.AddCommand(seedCmd())

	return root
}

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the scoring HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}

func scoreCmd() *cobra.Command {
	var (
		at         string
		jsonOutput bool
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "score [file]",
		Short: "Score a file of observations and print the leaderboard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScore(args[0], at, jsonOutput, limit)
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "reference time for catch-up percentiles (RFC3339, default: now)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	cmd.Flags().IntVar(&limit, "limit", 20, "max leaderboard rows to print")
	return cmd
}

func seedCmd() *cobra.Command {
	var (
		url      string
		count    int
		users    int
		days     int
		startDay string
		rngSeed  int64
		workers  int
		verbose  bool
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Generate synthetic observations and submit them to a server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(url, count, users, days, startDay, rngSeed, workers, verbose)
		},
	}

	cmd.Flags().StringVar(&url, "url", "http://localhost:9080", "base URL of the running server")
	cmd.Flags().IntVar(&count, "count", 500, "number of observations to generate")
	cmd.Flags().IntVar(&users, "users", 12, "number of distinct participants")
	cmd.Flags().IntVar(&days, "days", 2, "number of calendar days")
	cmd.Flags().StringVar(&startDay, "start-day", "", "first calendar day (YYYY-MM-DD, default: today)")
	cmd.Flags().Int64Var(&rngSeed, "seed", 0, "RNG seed for reproducible data (default: from clock)")
	cmd.Flags().IntVar(&workers, "workers", 8, "concurrent submit workers")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "log every rejected submission")
	return cmd
}
