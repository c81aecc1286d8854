package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tenemo/sealed-vote/internal/config"
	"github.com/tenemo/sealed-vote/internal/logger"
	"github.com/tenemo/sealed-vote/internal/storage/migrations"
	"github.com/tenemo/sealed-vote/internal/storage/postgres"
)

func main() {
	cfg := config.Load()

	logger.Initialize(cfg.LogLevel)
	log := logger.Migration()

	rollback := flag.Bool("rollback", false, "Rollback the last migration")
	status := flag.Bool("status", false, "List the applied migrations")
	flag.Parse()

	log.Info("Starting migration process", "rollback", *rollback, "status", *status)

	db, err := postgres.Connect(cfg)
	if err != nil {
		log.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer postgres.Close(db)

	switch {
	case *status:
		applied, err := migrations.GetAppliedMigrations(db)
		if err != nil {
			log.Error("Failed to read applied migrations", "error", err)
			os.Exit(1)
		}
		for _, m := range applied {
			fmt.Printf("%s  %-28s  %s\n", m.ID, m.Name, m.AppliedAt.Format("2006-01-02 15:04:05"))
		}
		fmt.Printf("%d of %d migrations applied\n", len(applied), len(migrations.GetMigrations()))
		return
	case *rollback:
		log.Info("Rolling back migrations...")
		if err := migrations.RollbackMigration(db); err != nil {
			log.Error("Migration rollback failed", "error", err)
			os.Exit(1)
		}
		log.Info("Migration rollback completed successfully")
	default:
		log.Info("Running migrations...")
		if err := migrations.RunMigrations(db); err != nil {
			log.Error("Migration failed", "error", err)
			os.Exit(1)
		}
		log.Info("Migrations completed successfully")
	}

	fmt.Println("Migration process completed!")
}
