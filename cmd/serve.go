package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/facilita/notifier/internal/api"
	"github.com/facilita/notifier/internal/auth"
	"github.com/facilita/notifier/internal/build"
	"github.com/facilita/notifier/internal/config"
	"github.com/facilita/notifier/internal/eventbus"
	"github.com/facilita/notifier/internal/gateway"
	"github.com/facilita/notifier/internal/logger"
	"github.com/facilita/notifier/internal/notification"
	"github.com/facilita/notifier/internal/scheduler"
	"github.com/facilita/notifier/internal/server"
	"github.com/facilita/notifier/internal/service"
	"github.com/facilita/notifier/internal/storage"
)

const busWorkers = 4

// NewServeCmd returns the "serve" subcommand that runs the notification backend.
func NewServeCmd(cfg *config.AppConfig) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the notification backend",
		Long: `Start the HTTP server: the REST API under /api, the realtime gateway
under /realtime (websocket) and /realtime/poll (long-poll fallback), plus
/health and /metrics.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// CLI flags override env config.
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			return runServe(cfg)
		},
	}

	cmd.Flags().IntVar(&port, "port", cfg.Port, "HTTP server port (overrides PORT env var)")
	return cmd
}

func runServe(cfg *config.AppConfig) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	sysLogger, logCloser, err := logger.NewSystemLogger(cfg.LogDir(), logger.ParseLevel(cfg.LogLevel), false)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer logCloser.Close() //nolint:errcheck

	sysLogger.Info("facilita notifier starting",
		slog.Int("port", cfg.Port),
		slog.String("data_dir", cfg.DataDir),
		slog.String("version", build.Version),
		slog.String("commit", build.CommitSHA),
		slog.String("build_date", build.BuildDate),
	)

	db, fresh, err := storage.NewSQLiteDB(cfg.ServerDBPath())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close() //nolint:errcheck
	if fresh {
		sysLogger.Info("created new database", "path", cfg.ServerDBPath())
	}

	notificationStore := storage.NewSQLiteNotificationStore(db)
	userStore := storage.NewSQLiteUserStore(db)

	hubOpts := []gateway.HubOption{gateway.WithLogger(sysLogger)}
	if cfg.RedisURL != "" {
		rdb, err := openRedis(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer rdb.Close() //nolint:errcheck
		hubOpts = append(hubOpts, gateway.WithBroadcaster(gateway.NewRedisBroadcaster(rdb, cfg.RedisChannel, sysLogger)))
		sysLogger.Info("realtime fanout enabled", "channel", cfg.RedisChannel)
	}
	hub := gateway.NewHub(hubOpts...)
	go hub.Run(ctx)

	var notifOpts []service.NotificationOption
	if smtp := cfg.SMTP(); smtp.Configured() {
		notifOpts = append(notifOpts, service.WithMailer(notification.NewSMTPProvider(smtp, cfg.PortalURL)))
		sysLogger.Info("email fallback enabled", "smtp_host", smtp.Host)
	}
	notificationSvc := service.NewNotificationService(notificationStore, userStore, hub, sysLogger, notifOpts...)
	userSvc := service.NewUserService(userStore)

	bus := eventbus.New(busWorkers, sysLogger)
	defer bus.Close()
	contentHandler := notification.NewContentHandler(notificationSvc, sysLogger)
	unsubscribe := bus.Subscribe(contentHandler.Handle)
	defer unsubscribe()
	contentSvc := service.NewContentEventService(bus)

	tokens := auth.NewTokens(cfg.JWTAccessSecret, cfg.JWTAccessTTL)
	authenticator := gateway.NewAuthenticator(tokens, userSvc)

	sched, err := scheduler.New(scheduler.Config{
		Cleaner:     notificationSvc,
		Retention:   cfg.Retention(),
		CleanupHour: cfg.CleanupHour,
		Logger:      sysLogger,
	})
	if err != nil {
		return fmt.Errorf("creating scheduler: %w", err)
	}
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer func() {
		if err := sched.Stop(); err != nil {
			sysLogger.Warn("stopping scheduler", "error", err)
		}
	}()

	apiSrv := api.New(notificationSvc, userSvc, contentSvc, authenticator, sysLogger)
	realtime := gateway.NewHandler(hub, authenticator, cfg.PollTimeout)
	srv := server.New(apiSrv, realtime, cfg.CORSOrigins, cfg.Port, sysLogger)

	serverURL := fmt.Sprintf("http://localhost:%d", cfg.Port)
	printBanner(os.Stdout, build.Version, serverURL, cfg.LogDir())
	sysLogger.Info("server ready", "url", serverURL)

	return srv.Run(ctx)
}

func openRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return rdb, nil
}

// printBanner writes the startup banner. It is the only output visible in
// the terminal during normal operation; structured logs go to the log file.
func printBanner(w io.Writer, version, serverURL, logDir string) {
	fmt.Fprint(w, `
  ___         _ _ _ _
 | __|_ _ __ (_) (_) |_ __ _
 | _/ _`+"`"+` / _|| | | |  _/ _`+"`"+` |
 |_|\__,_\__||_|_|_|\__\__,_|

`)
	fmt.Fprintf(w, "Facilita notifier %s running.\n", version)
	fmt.Fprintf(w, "  API       %s/api\n", serverURL)
	fmt.Fprintf(w, "  Realtime  %s/realtime (long-poll: /realtime/poll)\n", serverURL)
	fmt.Fprintf(w, "  Metrics   %s/metrics\n", serverURL)
	fmt.Fprintf(w, "Logs: %s\n\n", logDir)
}
