package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/senyabanana/gig-market/internal/db"
	"github.com/senyabanana/gig-market/internal/handlers"
	"github.com/senyabanana/gig-market/internal/notify"
	"github.com/senyabanana/gig-market/internal/repository"
	"github.com/senyabanana/gig-market/internal/router"
	"github.com/senyabanana/gig-market/internal/router/config"
	"github.com/senyabanana/gig-market/internal/services"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatal("cannot load config:", err)
	}

	runDBMigration(cfg.MigrationURL, cfg.PostgresConn)

	dbPool, err := db.InitDb(cfg)
	if err != nil {
		log.Fatalf("error initializing database: %v", err)
	}
	defer dbPool.Close()

	logger := log.New(os.Stdout, "INFO: ", log.LstdFlags)

	directory := notify.NewChannelDirectory(logger)

	gigRepo := repository.NewPostgresGigRepository(dbPool)
	bidRepo := repository.NewPostgresBidRepository(dbPool)
	userRepo := repository.NewPostgresUserRepository(dbPool)

	gigService := services.NewGigService(gigRepo, dbPool)
	bidService := services.NewBidService(bidRepo, directory)
	userService := services.NewUserService(userRepo)

	gigHandler := handlers.NewGigHandler(gigService, logger, 5*time.Second)
	bidHandler := handlers.NewBidHandler(bidService, logger, 5*time.Second)
	userHandler := handlers.NewUserHandler(userService, logger, 5*time.Second)
	eventsHandler := handlers.NewEventsHandler(directory, logger)

	routes := router.InitRoutes(gigHandler, bidHandler, userHandler, eventsHandler)

	log.Printf("server is listening on %s...", cfg.ServerAddress)
	if err := http.ListenAndServe(cfg.ServerAddress, routes); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

func runDBMigration(migrationURL string, dbSource string) {
	migration, err := migrate.New(migrationURL, dbSource)
	if err != nil {
		log.Fatal("cannot create a new migrate instance", err)
	}

	if err = migration.Up(); err != nil && err != migrate.ErrNoChange {
		log.Fatal("failed to run migrate up:", err)
	}
	log.Println("db migrated successfully")
}
