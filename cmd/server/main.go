package main

import (
	"context"
	"database/sql"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-persistence-bun"
	userapi "github.com/goliatone/go-users-api"
	"github.com/goliatone/go-users-api/chat"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func main() {
	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Debug),
		glog.WithName("app"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)

	cfg, err := userapi.LoadConfig()
	if err != nil {
		lgr.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	db, err := withPersistence(ctx, cfg, lgr)
	if err != nil {
		lgr.Error("failed to set up persistence", "error", err)
		os.Exit(1)
	}

	repo := userapi.NewRepositoryManager(db)
	repo.MustValidate()

	users := userapi.NewUserService(repo).
		WithLogger(lgr.GetLogger("users"))

	tokens := userapi.NewTokenService(
		[]byte(cfg.Auth.GetSigningKey()),
		cfg.Auth.GetIssuer(),
		lgr.GetLogger("tokens"),
	)

	auther := userapi.NewAuthenticator(
		users,
		tokens,
		cfg.Auth.GetTokenTTL(),
		cfg.Auth.GetRefreshTTL(),
	).WithLogger(lgr.GetLogger("auth"))

	ctrl := userapi.NewAPIController(users, auther).
		WithLogger(lgr.GetLogger("api")).
		WithContextKey(cfg.Auth.GetContextKey())

	app := userapi.NewServer(ctrl, tokens, lgr.GetLogger("http"))

	chatSvc := chat.NewService(
		chat.NewOpenAIClient(cfg.Chat),
		chat.NewConversationStore(cfg.Chat.GetMaxConversations(), cfg.Chat.GetMaxHistoryMessages()),
		cfg.Chat.GetMaxHistoryMessages(),
	).WithLogger(lgr.GetLogger("chat"))

	chat.RegisterRoutes(app, chat.NewController(chatSvc).WithLogger(lgr.GetLogger("chat:ctrl")))

	go func() {
		if err := app.Listen(cfg.ServerAddress); err != nil {
			lgr.Error("server stopped", "error", err)
			os.Exit(1)
		}
	}()

	lgr.Info("server started", "address", cfg.ServerAddress)

	waitExitSignal()

	if err := app.Shutdown(); err != nil {
		lgr.Error("shutdown error", "error", err)
	}
}

func withPersistence(ctx context.Context, cfg *userapi.Config, lgr *glog.BaseLogger) (*bun.DB, error) {
	db, err := sql.Open(sqliteshim.ShimName, cfg.Persistence.GetDSN())
	if err != nil {
		return nil, err
	}

	persistence.RegisterModel((*userapi.User)(nil))

	client, err := persistence.New(cfg.Persistence, db, sqlitedialect.New())
	if err != nil {
		return nil, err
	}

	client.SetLogger(lgr.GetLogger("persistence"))

	migrationsFS, err := fs.Sub(userapi.GetMigrationsFS(), "data/sql/migrations")
	if err != nil {
		return nil, err
	}

	client.RegisterDialectMigrations(
		migrationsFS,
		persistence.WithDialectSourceLabel("data/sql/migrations"),
		persistence.WithValidationTargets("postgres", "sqlite"),
	)

	if err := client.Migrate(ctx); err != nil {
		return nil, err
	}

	client.RegisterFixtures(userapi.GetFixturesFS())

	if err := client.Seed(ctx); err != nil {
		return nil, err
	}

	return client.DB(), nil
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
