package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-router"
	"github.com/goliatone/go-users"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func main() {
	cfg, err := LoadConfigFromEnv()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()

	db, err := openDatabase(ctx, cfg.DSN)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	repo := users.NewRepositoryManager(db)
	if err := repo.Validate(); err != nil {
		log.Fatalf("repository: %v", err)
	}

	authenticator := users.NewAuthenticator(repo.Users(), cfg)

	guard, err := users.NewHTTPAuthenticator(authenticator.TokenService(), cfg)
	if err != nil {
		log.Fatalf("auth guard: %v", err)
	}

	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			UnescapePath:  true,
			StrictRouting: false,
			AppName:       "go-users",
		}))
	})

	controller := users.NewHTTPController(authenticator, repo.Users(), guard, cfg)
	controller.Debug = cfg.Debug
	controller.RegisterRoutes(srv.Router())

	srv.Serve(cfg.ServerAddr)

	waitExitSignal()
}

func openDatabase(ctx context.Context, dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, err
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())

	if _, err := db.NewCreateTable().
		Model((*users.User)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return nil, err
	}

	return db, nil
}

func waitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
