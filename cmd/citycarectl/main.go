// Command citycarectl is the operator CLI for the CityCare issue service.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/citycare/issue-service/internal/config"
	"github.com/citycare/issue-service/internal/observability"
	"github.com/citycare/issue-service/internal/persistence"
	"github.com/citycare/issue-service/internal/repository"
	"github.com/citycare/issue-service/internal/service"
)

var jsonOutput bool

var (
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#86b300", Dark: "#c2d94c"})
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#f2ae49", Dark: "#ffb454"})
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#f07171", Dark: "#f07178"})
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#828c99", Dark: "#6c7680"})
	boldStyle  = lipgloss.NewStyle().Bold(true)
)

// cliEnv holds the stores and services a command runs against.
type cliEnv struct {
	cfg      *config.Config
	logger   *zap.Logger
	pg       *persistence.Postgres
	stores   repository.Stores
	officers *service.OfficerService
}

// openEnv is replaced in tests.
var openEnv = func(ctx context.Context) (*cliEnv, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger, err := observability.NewLogger(cfg.App, config.LoggerConfig{Level: "warn"})
	if err != nil {
		return nil, nil, err
	}
	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}
	stores := repository.NewStores(pg.PoolHandle())
	env := &cliEnv{
		cfg:    cfg,
		logger: logger,
		pg:     pg,
		stores: stores,
		officers: service.NewOfficerService(*cfg, service.OfficerDependencies{
			OfficerRepo: stores.Officers,
			Logger:      logger,
		}),
	}
	return env, func() {
		pg.Close()
		_ = logger.Sync()
	}, nil
}

var rootCmd = &cobra.Command{
	Use:   "citycarectl",
	Short: "Operate the CityCare issue service",
	Long: `citycarectl runs migrations, provisions officers and inspects issues.

It reads the same environment as the API server (POSTGRES_DSN, AUTH_BCRYPT_COST, ...).

Examples:
  citycarectl migrate
  citycarectl officer create --name "Asha" --email asha@city.gov --role admin --password '...'
  citycarectl officer list --role field_officer
  citycarectl issue show CC-1A2B3C4D
  citycarectl issue verify 6f1c...`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newOfficerCmd())
	rootCmd.AddCommand(newIssueCmd())
}

// withEnv opens the environment for the duration of run.
func withEnv(cmd *cobra.Command, run func(ctx context.Context, env *cliEnv) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	env, closeEnv, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer closeEnv()
	if env.stores.InMemory {
		fmt.Fprintln(cmd.ErrOrStderr(), warnStyle.Render("POSTGRES_DSN not set; using an empty in-memory store"))
	}
	return run(ctx, env)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, failStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}
