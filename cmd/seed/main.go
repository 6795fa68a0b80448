// Command seed prepares a database for first use: it applies migrations,
// ensures the reference rows and creates the first admin account.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/counterpos/pos-service/internal/config"
	"github.com/counterpos/pos-service/internal/db"
	"github.com/counterpos/pos-service/internal/db/repository"
	"github.com/counterpos/pos-service/internal/logger"
	"github.com/counterpos/pos-service/internal/service"
)

const (
	defaultAdminUsername = "admin"
	defaultAdminPassword = "admin12345"
)

func main() {
	sample := flag.Bool("sample", false, "also seed a demo catalog when none exists")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	flush, err := logger.Init(cfg.Logger)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer flush()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := seed(ctx, cfg, *sample); err != nil {
		zap.L().Error("seeding failed", zap.Error(err))
		flush()
		os.Exit(1)
	}
	zap.L().Info("seeding complete")
}

func seed(ctx context.Context, cfg *config.Config, sample bool) error {
	database, err := db.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := db.Migrate(cfg.Database); err != nil {
		return err
	}

	repos := repository.NewFactory(database.DB)
	seeder := service.NewSeeder(repos.User, repos.Reference, repos.Category, repos.Product)

	if err := seeder.SeedReference(ctx); err != nil {
		return err
	}

	username, password := adminCredentials()
	created, err := seeder.SeedAdmin(ctx, username, password)
	if err != nil {
		return err
	}
	if !created {
		zap.L().Info("admin user already exists", zap.String("username", username))
	}

	if sample {
		if _, err := seeder.SeedSampleCatalog(ctx); err != nil {
			return err
		}
	}
	return nil
}

func adminCredentials() (string, string) {
	username := os.Getenv("SEED_ADMIN_USERNAME")
	if username == "" {
		username = defaultAdminUsername
	}
	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if password == "" {
		password = defaultAdminPassword
		zap.L().Warn("SEED_ADMIN_PASSWORD not set, using the default admin password; change it after first login")
	}
	return username, password
}
