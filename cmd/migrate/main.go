package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/geocoder89/inkpost/internal/config"
	"github.com/geocoder89/inkpost/internal/db"
	"github.com/geocoder89/inkpost/internal/observability"
	"github.com/geocoder89/inkpost/internal/repo/postgres"
)

// migrate applies the schema and seeds the admin account, then exits.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	log := observability.NewLogger(cfg.Env)

	ctx, cancel := config.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DBURL, db.DefaultPoolOptions())
	if err != nil {
		log.Error("connect postgres", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		log.Error("migrate", "err", err)
		os.Exit(1)
	}

	created, err := db.EnsureAdminAccount(ctx, postgres.NewAccountsRepo(pool, nil), cfg)
	if err != nil {
		log.Error("seed admin", "err", err)
		os.Exit(1)
	}
	if created {
		log.Info("admin account created", "email", cfg.AdminEmail)
	}

	log.Info("migration complete")
}
