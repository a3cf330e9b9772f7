package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/meridian-erp/meridian-gl/cmd/meridian/cli"
	"github.com/meridian-erp/meridian-gl/internal/app"
	"github.com/meridian-erp/meridian-gl/internal/gl"
	glhttp "github.com/meridian-erp/meridian-gl/internal/gl/http"
	"github.com/meridian-erp/meridian-gl/internal/observability"
	"github.com/meridian-erp/meridian-gl/internal/platform/cache"
	"github.com/meridian-erp/meridian-gl/internal/platform/db"
	"github.com/meridian-erp/meridian-gl/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	_ = godotenv.Load()

	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCommand builds the CLI. The bare binary serves, matching how the
// container entrypoint invokes it.
func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "meridian",
		Short: "Ledger reporting service",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}

	rootCmd.AddCommand(newServeCommand(), newVerifyCommand(), newJobsCommand())

	return rootCmd
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the reporting API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func runServer() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	repo := gl.NewRepository(pool)
	service := gl.NewService(repo, gl.DefaultSources(repo), gl.WithRetainedEarningsCode(cfg.RetainedEarningsCode))
	reportsHandler := glhttp.NewHandler(logger, service)

	metrics := observability.NewMetrics()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	statusClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, jobs health omits integrity statuses", slog.Any("error", err))
	}
	defer func() {
		if statusClient == nil {
			return
		}
		if err := statusClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, statusClient, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		ReportsHandler: reportsHandler,
		JobHandler:     jobHandler,
		Metrics:        metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
	return nil
}

func newVerifyCommand() *cobra.Command {
	var company string
	var asOf string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Re-foot a company ledger and exit non-zero when it is out of balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			code := runVerify(cli.VerifyOptions{CompanyID: company, AsOf: asOf, JSONOutput: jsonOut})
			if code != 0 {
				os.Exit(code)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&company, "company", "", "company UUID to verify (required)")
	_ = cmd.MarkFlagRequired("company")
	cmd.Flags().StringVar(&asOf, "as-of", "", "cutoff date (YYYY-MM-DD, default latest)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "emit JSON output")

	return cmd
}

// runVerify returns the process exit code so deferred cleanup runs before
// the caller exits.
func runVerify(opts cli.VerifyOptions) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "verify: load config: %v\n", err)
		return 1
	}
	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		fmt.Fprintf(os.Stderr, "verify: connect postgres: %v\n", err)
		return 1
	}
	defer pool.Close()

	repo := gl.NewRepository(pool)
	service := gl.NewService(repo, gl.DefaultSources(repo), gl.WithRetainedEarningsCode(cfg.RetainedEarningsCode))
	verifier, err := cli.NewVerifyCLI(service)
	if err != nil {
		fmt.Fprintf(os.Stderr, "verify: %v\n", err)
		return 1
	}
	return verifier.VerifyCommand(ctx, opts)
}

func newJobsCommand() *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Manage background jobs",
	}

	jobsCmd.AddCommand(newJobsTriggerCommand(), newJobsStatsCommand(), newJobsScheduledCommand())

	return jobsCmd
}

func newJobsTriggerCommand() *cobra.Command {
	var company string

	cmd := &cobra.Command{
		Use:   "trigger",
		Short: "Queue a ledger integrity scan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			jobsCLI, err := openJobsCLI()
			if err != nil {
				return err
			}
			defer func() {
				_ = jobsCLI.Close()
			}()

			info, err := jobsCLI.TriggerIntegrityScan(ctx, company)
			if err != nil {
				return err
			}
			fmt.Printf("queued %s id=%s queue=%s\n", info.Type, info.ID, info.Queue)
			return nil
		},
	}

	cmd.Flags().StringVar(&company, "company", "", "company UUID to scan (default all)")

	return cmd
}

func newJobsStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show queue statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			jobsCLI, err := openJobsCLI()
			if err != nil {
				return err
			}
			defer func() {
				_ = jobsCLI.Close()
			}()

			stats, err := jobsCLI.InspectQueue(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("queue=%s pending=%d active=%d scheduled=%d retry=%d\n",
				stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry)
			return nil
		},
	}
}

func newJobsScheduledCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "scheduled",
		Short: "List tasks waiting on the scheduler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			jobsCLI, err := openJobsCLI()
			if err != nil {
				return err
			}
			defer func() {
				_ = jobsCLI.Close()
			}()

			tasks, err := jobsCLI.ListScheduled(ctx, limit)
			if err != nil {
				return err
			}
			if len(tasks) == 0 {
				fmt.Println("no scheduled tasks")
				return nil
			}
			for _, task := range tasks {
				fmt.Printf("%s id=%s next=%s\n", task.Type, task.ID, task.NextProcessAt.Format(time.RFC3339))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "maximum tasks to list")

	return cmd
}

func openJobsCLI() (*cli.JobsCLI, error) {
	cfg, err := app.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cli.NewJobsCLI(cfg.RedisAddr)
}
