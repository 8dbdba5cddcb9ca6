package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"shelfcontrol/backend/export"
	"shelfcontrol/backend/repository"
	"shelfcontrol/backend/routes"
	"shelfcontrol/backend/rpc"
	"shelfcontrol/backend/scheduler"
	"shelfcontrol/backend/utils"
)

var (
	installRPC bool

	exportOut     string
	exportTZ      string
	exportUserIDs []string
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update tables and the reporting functions",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := utils.InitDB(cfg)
		if err != nil {
			return err
		}
		return migrate(cmd.Context(), db, installRPC || cfg.Analytics.UseRPC)
	},
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Store yesterday's top-reader ranking now",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := utils.InitDB(cfg)
		if err != nil {
			return err
		}
		svc, err := routes.NewServices(db, cfg, logger)
		if err != nil {
			return err
		}
		sched, err := scheduler.New(svc.Analytics, cfg.Analytics.Snapshot, logger)
		if err != nil {
			return err
		}
		return sched.RunOnce(cmd.Context())
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the analytics dashboard to an .xlsx file",
	RunE: func(cmd *cobra.Command, args []string) error {
		loc, err := loadLocation(exportTZ)
		if err != nil {
			return err
		}

		db, err := utils.InitDB(cfg)
		if err != nil {
			return err
		}
		svc, err := routes.NewServices(db, cfg, logger)
		if err != nil {
			return err
		}

		dashboard := svc.Analytics.Dashboard(cmd.Context(), exportUserIDs, loc)

		f, err := os.Create(exportOut)
		if err != nil {
			return fmt.Errorf("create %s: %w", exportOut, err)
		}
		if err := export.Write(f, dashboard); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("close %s: %w", exportOut, err)
		}

		logger.Info("workbook written", zap.String("path", exportOut))
		return nil
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&installRPC, "rpc", false, "install the reporting functions even when use_rpc is off")

	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "shelfcontrol-analytics.xlsx", "output file")
	exportCmd.Flags().StringVar(&exportTZ, "tz", "UTC", "IANA time zone for the progress window")
	exportCmd.Flags().StringSliceVar(&exportUserIDs, "user-ids", nil, "restrict to these user ids")
}

func loadLocation(name string) (*time.Location, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid time zone %q: %w", name, err)
	}
	return loc, nil
}

func migrate(ctx context.Context, db *gorm.DB, withRPC bool) error {
	if err := repository.Migrate(db.WithContext(ctx)); err != nil {
		return err
	}
	logger.Info("tables migrated")

	if !withRPC {
		return nil
	}
	client, err := rpc.FromGorm(db)
	if err != nil {
		return err
	}
	if err := client.Install(ctx); err != nil {
		return err
	}
	logger.Info("reporting functions installed")
	return nil
}
