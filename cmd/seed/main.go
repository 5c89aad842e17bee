// Command seed imports the development dataset or deletes all data.
//
//	seed --import [--dir dev-data/data]
//	seed --delete
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/AkshatJain-webdev/Natours/internal/config"
	"github.com/AkshatJain-webdev/Natours/internal/repository/postgres"
	"github.com/AkshatJain-webdev/Natours/internal/seed"
	"github.com/AkshatJain-webdev/Natours/migrations"
	"github.com/AkshatJain-webdev/Natours/pkg/database"
	"github.com/AkshatJain-webdev/Natours/pkg/logger"
)

func main() {
	importData := flag.Bool("import", false, "load the JSON dataset")
	deleteData := flag.Bool("delete", false, "delete all tours, users and reviews")
	dir := flag.String("dir", "dev-data/data", "directory holding tours.json, users.json and reviews.json")
	flag.Parse()

	if *importData == *deleteData {
		fmt.Fprintln(os.Stderr, "usage: seed --import | --delete")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log := logger.New("natours-seed", cfg.LogLevel, logger.FormatText)

	if err := run(cfg, log, *importData, *dir); err != nil {
		log.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger, importData bool, dir string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, &database.PostgresConfig{
		URL:      cfg.DatabaseURL,
		Password: cfg.DatabasePassword,
		MaxConns: 4,
		MinConns: 1,
	}, log)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()
	log.Info("DB connection is successful")

	if err := database.RunMigrations(ctx, pool, migrations.FS, log); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	seeder := seed.NewSeeder(
		pool,
		postgres.NewUserRepository(pool),
		postgres.NewTourRepository(pool),
		postgres.NewReviewRepository(pool),
		log,
	)

	if !importData {
		_, err := seeder.Delete(ctx)
		return err
	}

	ds, err := seed.Load(dir)
	if err != nil {
		return err
	}
	return seeder.Import(ctx, ds)
}
