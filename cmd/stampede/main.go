package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/studiowebux/stampede/internal/actor"
	"github.com/studiowebux/stampede/internal/config"
	"github.com/studiowebux/stampede/internal/runner"
	"github.com/studiowebux/stampede/internal/store"
	"github.com/studiowebux/stampede/internal/tui"
	"github.com/studiowebux/stampede/internal/types"
)

var (
	version = "0.1.0"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "stampede",
	Short: "stampede - scenario-driven HTTP load generator",
	Long: `stampede drives simulated concurrent user traffic against a content
platform's HTTP API using weighted actor profiles (viewer, creator,
subscriber, streamer).

Each simulated user authenticates once, then loops: pick a weighted task,
issue one request, sleep a random interval, repeat. Results are aggregated
live and persisted to a local SQLite database.

Examples:
  stampede run --host http://localhost:3000 --viewers 50
  stampede run scenario.yaml --duration 120
  stampede run --viewers 10 --creators 5 --seed 42 --no-tui
  stampede runs                 # list past runs
  stampede report 3             # summary of run 3`,
	Version: version,
}

var (
	flagHost       string
	flagViewers    int
	flagCreators   int
	flagSubs       int
	flagStreamers  int
	flagSpawnRate  float64
	flagDuration   int
	flagIterations int
	flagSeed       int64
	flagTimeout    int
	flagDB         string
	flagNoTUI      bool
	flagInsecure   bool
)

var runCmd = &cobra.Command{
	Use:   "run [scenario]",
	Short: "Start a load test run",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Initialize(); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		scenario, err := buildScenario(cmd, args)
		if err != nil {
			return err
		}

		specs, err := buildProfiles(scenario)
		if err != nil {
			return err
		}

		dbPath := flagDB
		if dbPath == "" {
			dbPath = config.DatabasePath
		}
		st, err := store.Open(dbPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer st.Close()

		log := slog.New(slog.NewTextHandler(os.Stderr, nil))

		r, err := runner.New(runner.Config{
			Scenario:       scenarioName(scenario, args),
			Host:           scenario.Host,
			Profiles:       specs,
			SpawnRate:      scenario.SpawnRate,
			Duration:       scenario.GetDuration(),
			Iterations:     scenario.Iterations,
			Seed:           scenario.Seed,
			RequestTimeout: scenario.GetRequestTimeout(),
			TLS:            scenario.TLS,
			Logger:         log,
		}, st)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		r.Start()

		// SIGINT/SIGTERM stop the run; in-flight requests are abandoned
		go func() {
			<-ctx.Done()
			r.Cancel()
		}()

		if flagNoTUI {
			if err := r.Wait(); err != nil {
				return err
			}
		} else {
			p := tea.NewProgram(tui.NewModel(r), tea.WithAltScreen())

			var g errgroup.Group
			g.Go(func() error {
				err := r.Wait()
				p.Quit()
				return err
			})
			g.Go(func() error {
				_, err := p.Run()
				// TUI exit (q/esc) also stops the run
				r.Cancel()
				return err
			})
			if err := g.Wait(); err != nil {
				return err
			}
		}

		printSummary(r)
		return nil
	},
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List past load test runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Initialize(); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		dbPath := flagDB
		if dbPath == "" {
			dbPath = config.DatabasePath
		}
		st, err := store.Open(dbPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer st.Close()

		runs, err := st.ListRuns(20)
		if err != nil {
			return fmt.Errorf("failed to list runs: %w", err)
		}
		if len(runs) == 0 {
			fmt.Println("No runs recorded yet.")
			return nil
		}

		fmt.Printf("%-5s %-20s %-28s %-10s %8s %8s %8s\n",
			"ID", "STARTED", "HOST", "STATUS", "TOTAL", "FAIL", "P95MS")
		for _, run := range runs {
			fmt.Printf("%-5d %-20s %-28s %-10s %8d %8d %8d\n",
				run.ID,
				run.StartedAt.Format("2006-01-02 15:04:05"),
				run.Host,
				run.Status,
				run.TotalRequests,
				run.TotalFailures,
				run.P95DurationMs)
		}
		return nil
	},
}

var reportCmd = &cobra.Command{
	Use:   "report <run-id>",
	Short: "Print the summary of a finished run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Initialize(); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid run id %q", args[0])
		}

		dbPath := flagDB
		if dbPath == "" {
			dbPath = config.DatabasePath
		}
		st, err := store.Open(dbPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer st.Close()

		run, err := st.GetRun(id)
		if err != nil {
			return fmt.Errorf("failed to load run %d: %w", id, err)
		}

		fmt.Printf("Run #%d (%s)\n", run.ID, run.Scenario)
		fmt.Printf("Host:      %s\n", run.Host)
		fmt.Printf("Status:    %s\n", run.Status)
		fmt.Printf("Users:     %d\n", run.TotalUsers)
		fmt.Printf("Started:   %s\n", run.StartedAt.Format(time.RFC3339))
		if run.CompletedAt != nil {
			fmt.Printf("Completed: %s\n", run.CompletedAt.Format(time.RFC3339))
		}
		fmt.Printf("\nRequests:  %d total, %d success, %d failures",
			run.TotalRequests, run.TotalSuccess, run.TotalFailures)
		if run.AuthFailures > 0 {
			fmt.Printf(" (%d auth failures)", run.AuthFailures)
		}
		fmt.Println()
		fmt.Printf("Latency:   avg %.0fms  min %dms  max %dms  p50 %dms  p95 %dms  p99 %dms\n",
			run.AvgDurationMs, run.MinDurationMs, run.MaxDurationMs,
			run.P50DurationMs, run.P95DurationMs, run.P99DurationMs)

		breakdown, err := st.GetTaskBreakdown(id)
		if err != nil {
			return fmt.Errorf("failed to load task breakdown: %w", err)
		}
		if len(breakdown) > 0 {
			fmt.Printf("\n%-12s %-24s %8s %8s %8s\n", "PROFILE", "TASK", "TOTAL", "FAIL", "AVG MS")
			for _, tb := range breakdown {
				fmt.Printf("%-12s %-24s %8d %8d %8.0f\n",
					tb.Profile, tb.Task, tb.Requests, tb.Failures, tb.AvgDurationMs)
			}
		}
		return nil
	},
}

// buildScenario loads the scenario file (if given) and applies flag
// overrides on top.
func buildScenario(cmd *cobra.Command, args []string) (*config.Scenario, error) {
	var scenario *config.Scenario

	if len(args) > 0 {
		path, err := config.ResolveScenarioPath(args[0])
		if err != nil {
			return nil, err
		}
		scenario, err = config.LoadScenario(path)
		if err != nil {
			return nil, err
		}
	} else {
		scenario = config.Default()
	}

	if cmd.Flags().Changed("host") {
		scenario.Host = flagHost
	}
	if cmd.Flags().Changed("spawn-rate") {
		scenario.SpawnRate = flagSpawnRate
	}
	if cmd.Flags().Changed("duration") {
		scenario.DurationSec = flagDuration
	}
	if cmd.Flags().Changed("iterations") {
		scenario.Iterations = flagIterations
	}
	if cmd.Flags().Changed("seed") {
		scenario.Seed = flagSeed
	}
	if cmd.Flags().Changed("timeout") {
		scenario.RequestTimeoutSec = flagTimeout
	}
	if flagInsecure {
		if scenario.TLS == nil {
			scenario.TLS = &types.TLSConfig{}
		}
		scenario.TLS.InsecureSkipVerify = true
	}

	userFlags := map[string]int{
		"viewer":     flagViewers,
		"creator":    flagCreators,
		"subscriber": flagSubs,
		"streamer":   flagStreamers,
	}
	flagNames := map[string]string{
		"viewer":     "viewers",
		"creator":    "creators",
		"subscriber": "subscribers",
		"streamer":   "streamers",
	}
	for name, users := range userFlags {
		if !cmd.Flags().Changed(flagNames[name]) {
			continue
		}
		opts := scenario.Profiles[name]
		opts.Users = users
		scenario.Profiles[name] = opts
	}

	if err := scenario.Validate(); err != nil {
		return nil, err
	}
	return scenario, nil
}

// buildProfiles turns scenario profile options into runner specs, in a
// stable order.
func buildProfiles(scenario *config.Scenario) ([]runner.ProfileSpec, error) {
	var specs []runner.ProfileSpec
	for _, name := range actor.Names() {
		opts, ok := scenario.Profiles[name]
		if !ok || opts.Users == 0 {
			continue
		}

		p, err := actor.ByName(name, scenario.IDPath)
		if err != nil {
			return nil, err
		}
		p.TokenPath = scenario.TokenPath
		if err := p.Apply(opts); err != nil {
			return nil, err
		}

		specs = append(specs, runner.ProfileSpec{Profile: p, Users: opts.Users})
	}

	// Reject unknown profile names early instead of silently ignoring them
	for name := range scenario.Profiles {
		if _, err := actor.ByName(name, ""); err != nil {
			return nil, err
		}
	}

	return specs, nil
}

// scenarioName returns the display name for the run record.
func scenarioName(scenario *config.Scenario, args []string) string {
	if scenario.Name != "" {
		return scenario.Name
	}
	if len(args) > 0 {
		return args[0]
	}
	return "ad-hoc"
}

// printSummary prints the final run summary after the dashboard closes.
func printSummary(r *runner.Runner) {
	run := r.GetRun()
	st := r.GetStats()

	fmt.Printf("\nRun #%d %s\n", run.ID, run.Status)
	fmt.Printf("Requests:  %d total, %d success, %d failures",
		st.CompletedRequests, st.SuccessCount, st.FailureCount)
	if st.AuthFailures > 0 {
		fmt.Printf(" (%d auth failures)", st.AuthFailures)
	}
	fmt.Println()
	fmt.Printf("Latency:   avg %.0fms  min %dms  max %dms  p50 %dms  p95 %dms  p99 %dms\n",
		st.AvgDurationMs(), st.Min(), st.Max(), st.P50(), st.P95(), st.P99())

	for _, ts := range st.Tasks() {
		fmt.Printf("  %-12s %-24s %6d ok %6d fail\n", ts.Profile, ts.Task, ts.SuccessCount, ts.FailureCount)
	}
}

func init() {
	runCmd.Flags().StringVar(&flagHost, "host", "http://localhost:3000", "target base URL")
	runCmd.Flags().IntVar(&flagViewers, "viewers", 0, "number of viewer users")
	runCmd.Flags().IntVar(&flagCreators, "creators", 0, "number of creator users")
	runCmd.Flags().IntVar(&flagSubs, "subscribers", 0, "number of subscriber users")
	runCmd.Flags().IntVar(&flagStreamers, "streamers", 0, "number of streaming users")
	runCmd.Flags().Float64Var(&flagSpawnRate, "spawn-rate", 10, "users started per second")
	runCmd.Flags().IntVar(&flagDuration, "duration", 0, "run duration in seconds (0 = until interrupted)")
	runCmd.Flags().IntVar(&flagIterations, "iterations", 0, "task iterations per user (0 = unlimited)")
	runCmd.Flags().Int64Var(&flagSeed, "seed", 0, "random seed for reproducible task sequences (0 = time-based)")
	runCmd.Flags().IntVar(&flagTimeout, "timeout", 0, "request timeout in seconds (default 10)")
	runCmd.Flags().BoolVar(&flagNoTUI, "no-tui", false, "disable the live dashboard")
	runCmd.Flags().BoolVar(&flagInsecure, "insecure", false, "skip TLS certificate verification")

	for _, c := range []*cobra.Command{runCmd, runsCmd, reportCmd} {
		c.Flags().StringVar(&flagDB, "db", "", "database path (default ~/.stampede/stampede.db)")
	}

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(reportCmd)
}
