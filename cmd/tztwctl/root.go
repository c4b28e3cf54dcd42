package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/tztw/projectmap/config"
	"github.com/tztw/projectmap/internal/bootstrap"
	"github.com/tztw/projectmap/internal/catalog/repository"
	"github.com/tztw/projectmap/internal/logging"
)

// app carries what every subcommand needs once the root has connected.
type app struct {
	cfg   *config.Config
	store *repository.Store
	close func() error
	now   func() time.Time
}

func newRootCmd() *cobra.Command {
	a := &app{now: time.Now}
	var redisAddr string

	cmd := &cobra.Command{
		Use:   "tztwctl",
		Short: "Administer the TZTW project map store",
		Long: `tztwctl works directly against the Redis store used by the API server.

Configuration is read from the environment (and .env) exactly like the server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if redisAddr != "" {
				cfg.Redis.Addr = redisAddr
			}
			logging.Setup(cfg.App.Environment, cfg.App.LogLevel)

			client, err := bootstrap.OpenRedis(cmd.Context(), &cfg.Redis)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.store = repository.New(client, cfg.App.SessionTTL)
			a.close = client.Close
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.close != nil {
				return a.close()
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&redisAddr, "redis", "", "Redis address (overrides REDIS_ADDR)")

	cmd.AddCommand(
		newSeedCmd(a),
		newImportCmd(a),
		newExportCmd(a),
		newClearCmd(a),
		newBackupCmd(a),
	)
	return cmd
}
