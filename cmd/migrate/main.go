package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/elskow/gatehouse/internal/migration"
	"github.com/elskow/gatehouse/internal/server"
)

func main() {
	_ = godotenv.Load()

	if os.Getenv("APP_ENV") == "" {
		os.Setenv("APP_ENV", server.EnvDevelopment)
	}

	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "migrate",
		Short:         "Manage the gatehouse database schema",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(
		withMigrator("up", "Apply all pending migrations", cobra.NoArgs,
			func(ctx context.Context, m *migration.Migrator, log *zap.Logger, _ []string) error {
				applied, err := m.Up(ctx)
				if err != nil {
					return err
				}
				log.Info("Successfully ran migrations", zap.Int("applied", applied))
				return nil
			}),
		withMigrator("down", "Roll back the most recent migration", cobra.NoArgs,
			func(ctx context.Context, m *migration.Migrator, log *zap.Logger, _ []string) error {
				if err := m.Down(ctx); err != nil {
					return err
				}
				log.Info("Successfully rolled back migration")
				return nil
			}),
		withMigrator("down-to [version]", "Roll back to a specific version", cobra.ExactArgs(1),
			func(ctx context.Context, m *migration.Migrator, log *zap.Logger, args []string) error {
				version, err := strconv.ParseInt(args[0], 10, 64)
				if err != nil {
					return fmt.Errorf("invalid version %q: %w", args[0], err)
				}
				if err := m.DownTo(ctx, version); err != nil {
					return err
				}
				log.Info("Successfully migrated down", zap.Int64("version", version))
				return nil
			}),
		withMigrator("status", "Print the applied state of every migration", cobra.NoArgs,
			func(ctx context.Context, m *migration.Migrator, _ *zap.Logger, _ []string) error {
				statuses, err := m.Status(ctx)
				if err != nil {
					return err
				}
				for _, s := range statuses {
					applied := "pending"
					if !s.AppliedAt.IsZero() {
						applied = s.AppliedAt.UTC().Format("2006-01-02 15:04:05")
					}
					fmt.Printf("%-24s %s\n", applied, s.Source.Path)
				}
				return nil
			}),
		withMigrator("version", "Print the current schema version", cobra.NoArgs,
			func(ctx context.Context, m *migration.Migrator, log *zap.Logger, _ []string) error {
				version, err := m.Version(ctx)
				if err != nil {
					return fmt.Errorf("failed to get migration version: %w", err)
				}
				log.Info("Current migration version", zap.Int64("version", version))
				return nil
			}),
		withMigrator("reset", "Roll back every migration and apply them again", cobra.NoArgs,
			func(ctx context.Context, m *migration.Migrator, log *zap.Logger, _ []string) error {
				if err := m.Reset(ctx); err != nil {
					return err
				}
				log.Info("Successfully reset migrations")
				return nil
			}),
		newCreateCommand(),
	)
	return cmd
}

type migratorFunc func(ctx context.Context, m *migration.Migrator, log *zap.Logger, args []string) error

// withMigrator builds a subcommand that loads config and opens a migrator
// before running fn.
func withMigrator(use, short string, args cobra.PositionalArgs, fn migratorFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			log, err := server.NewLogger(server.Environment())
			if err != nil {
				return err
			}
			defer log.Sync()

			cfg, err := server.LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			m, err := migration.NewMigrator(&cfg.Database)
			if err != nil {
				return fmt.Errorf("failed to create migrator: %w", err)
			}
			defer m.Close()

			return fn(ctx, m, log, args)
		},
	}
}

func newCreateCommand() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "create [name]",
		Short: "Create a new SQL migration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := migration.Create(dir, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created migration %q in %s\n", args[0], out)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Target directory (defaults to the repository's migrations directory)")
	return cmd
}
