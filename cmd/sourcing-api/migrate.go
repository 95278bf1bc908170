package main

import (
	"github.com/spf13/cobra"
	"github.com/talentflow/sourcing-engine/internal/config"
	"github.com/talentflow/sourcing-engine/internal/store"
	"github.com/talentflow/sourcing-engine/pkg/log"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate the db",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.New()
		if err != nil {
			return err
		}

		cleanup := log.InitLogs(cfg.Service.LogLevel)
		defer cleanup()

		logger := zap.S().Named("migrate")
		defer logger.Info("Db migrated")

		logger.Info("Initializing data store")
		db, err := store.InitDB(cfg)
		if err != nil {
			logger.Fatalw("initializing data store", "error", err)
		}

		s := store.NewStore(db)
		defer s.Close()

		if err := s.InitialMigration(); err != nil {
			logger.Fatalw("running initial migration", "error", err)
		}

		return nil
	},
}
