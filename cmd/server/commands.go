package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/phrazzld/recall-api/internal/config"
	"github.com/phrazzld/recall-api/internal/platform/logger"
	"github.com/phrazzld/recall-api/internal/platform/postgres"
	"github.com/phrazzld/recall-api/internal/service/backup"
)

func newRootCmd() *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:           "recall",
		Short:         "Spaced-repetition assessment API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			if path, _ := cmd.Flags().GetString("config"); path != "" {
				v.SetConfigFile(path)
			}
		},
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "config file (default ./config.yaml)")
	flags.String("log-level", "", "log level: debug, info, warn or error")
	flags.String("storage", "", "storage backend: postgres, redis or memory")
	flags.String("database-url", "", "postgres connection URL")
	flags.String("redis-addr", "", "redis host:port")
	bindFlag(v, "server.log_level", root, "log-level")
	bindFlag(v, "storage.backend", root, "storage")
	bindFlag(v, "database.url", root, "database-url")
	bindFlag(v, "redis.addr", root, "redis-addr")

	root.AddCommand(
		newServeCmd(v),
		newMigrateCmd(v),
		newExportCmd(v),
		newImportCmd(v),
	)
	return root
}

// bindFlag binds a flag of cmd to a config key. Unset flags leave the config
// file, environment and defaults in charge.
func bindFlag(v *viper.Viper, key string, cmd *cobra.Command, name string) {
	flag := cmd.Flags().Lookup(name)
	if flag == nil {
		flag = cmd.PersistentFlags().Lookup(name)
	}
	if err := v.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("bind flag %q: %v", key, err)) // ALLOW-PANIC: programmer error
	}
}

// loadConfig loads and validates configuration, then installs the JSON
// logger at the configured level.
func loadConfig(v *viper.Viper) (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadWith(v)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	log.Info("configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.String("storage", cfg.Storage.Backend),
		slog.String("llm_provider", cfg.LLM.Provider))
	return cfg, log, nil
}

func newServeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig(v)
			if err != nil {
				return err
			}

			app, err := newApplication(cmd.Context(), cfg, log)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			return app.Run(cmd.Context())
		},
	}

	cmd.Flags().Int("port", 0, "HTTP listen port")
	cmd.Flags().Bool("migrate", false, "apply pending migrations before serving (postgres only)")
	bindFlag(v, "server.port", cmd, "port")
	bindFlag(v, "database.auto_migrate", cmd, "migrate")
	return cmd
}

func newMigrateCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate <command> [version]",
		Short: "Run database migrations (postgres only)",
		Long: "Run a migration command against the configured postgres database.\n\n" +
			"Commands: " + strings.Join(postgres.MigrationCommands, ", "),
		Args:      cobra.RangeArgs(1, 2),
		ValidArgs: postgres.MigrationCommands,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(v)
			if err != nil {
				return err
			}
			if cfg.Storage.Backend != config.BackendPostgres {
				return fmt.Errorf("migrations apply only to the postgres backend, not %q", cfg.Storage.Backend)
			}

			db, err := openDatabase(cmd.Context(), cfg.Database, log)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			return postgres.Migrate(cmd.Context(), db, args[0], log, args[1:]...)
		},
	}
}

func newExportCmd(v *viper.Viper) *cobra.Command {
	var email, output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export one user's curricula, results and history as JSON",
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			cfg, log, err := loadConfig(v)
			if err != nil {
				return err
			}

			b, err := openBackend(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer b.Close()

			user, err := b.users.GetByEmail(cmd.Context(), email)
			if err != nil {
				return fmt.Errorf("failed to find user %q: %w", email, err)
			}

			doc, err := backup.NewService(b.backupStores(), log).Export(cmd.Context(), user.ID)
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "-" {
				f, createErr := os.Create(output)
				if createErr != nil {
					return fmt.Errorf("failed to create %s: %w", output, createErr)
				}
				defer func() {
					if cerr := f.Close(); cerr != nil && err == nil {
						err = cerr
					}
				}()
				w = f
			}
			if err := backup.Encode(w, doc); err != nil {
				return fmt.Errorf("failed to write backup: %w", err)
			}

			if output != "-" {
				cmd.PrintErrf("exported %d results, %d history entries and %d curricula to %s\n",
					len(doc.Results), len(doc.History), len(doc.Curricula), output)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email of the user to export")
	cmd.Flags().StringVarP(&output, "output", "o", "-", "output file, - for stdout")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newImportCmd(v *viper.Viper) *cobra.Command {
	var email, input string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Restore a JSON export into one user's account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig(v)
			if err != nil {
				return err
			}

			var r io.Reader = cmd.InOrStdin()
			if input != "-" {
				f, err := os.Open(input)
				if err != nil {
					return fmt.Errorf("failed to open %s: %w", input, err)
				}
				defer func() { _ = f.Close() }()
				r = f
			}
			doc, err := backup.Decode(r)
			if err != nil {
				return err
			}

			b, err := openBackend(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer b.Close()

			user, err := b.users.GetByEmail(cmd.Context(), email)
			if err != nil {
				return fmt.Errorf("failed to find user %q: %w", email, err)
			}

			summary, err := backup.NewService(b.backupStores(), log).Import(cmd.Context(), user.ID, doc)
			if err != nil {
				return err
			}
			cmd.Printf("imported %d results, %d history entries and %d curricula\n",
				summary.Results, summary.History, summary.Curricula)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email of the user to import into")
	cmd.Flags().StringVarP(&input, "input", "i", "-", "backup file, - for stdin")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
