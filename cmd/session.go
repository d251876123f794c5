package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/facilita/notifier/internal/apiclient"
	"github.com/facilita/notifier/internal/auth"
	"github.com/facilita/notifier/internal/config"
	"github.com/facilita/notifier/internal/logger"
	"github.com/facilita/notifier/internal/storage"
)

// clientEnv bundles what the client-side commands share: the hydrated auth
// session backed by the local storage database, a logger and the REST client.
type clientEnv struct {
	session *auth.Store
	api     *apiclient.Client
	logger  *slog.Logger

	db        *sql.DB
	logCloser interface{ Close() error }
}

func openClientEnv(ctx context.Context, cfg *config.AppConfig) (*clientEnv, error) {
	clientLogger, logCloser, err := logger.NewClientLogger(cfg.LogDir(), logger.ParseLevel(cfg.LogLevel))
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}

	db, _, err := storage.NewSQLiteDB(cfg.ClientDBPath())
	if err != nil {
		_ = logCloser.Close()
		return nil, fmt.Errorf("opening local storage: %w", err)
	}

	session := auth.NewStore(storage.NewSQLiteKVStore(db), clientLogger)
	if err := session.Hydrate(ctx); err != nil {
		clientLogger.Warn("auth session could not be restored", "error", err)
	}

	env := &clientEnv{session: session, logger: clientLogger, db: db, logCloser: logCloser}
	env.api = apiclient.New(cfg.APIURL, func() string { return env.session.Snapshot().AccessToken })
	return env, nil
}

func (e *clientEnv) Close() {
	_ = e.db.Close()
	_ = e.logCloser.Close()
}

// requireLogin returns an error unless a user and token are stored.
func (e *clientEnv) requireLogin() error {
	if !e.session.Snapshot().Authenticated() {
		return fmt.Errorf("not logged in; run \"facilita login --token <token>\" first")
	}
	return nil
}
