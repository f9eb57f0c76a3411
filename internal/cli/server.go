package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"carrental/internal/api"
	"carrental/internal/auth"
	"carrental/internal/availability"
	"carrental/internal/cache"
	"carrental/internal/config"
	"carrental/internal/metrics"
	"carrental/internal/repository"
	"carrental/internal/service"
	"carrental/internal/upload"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

func NewServerCmd() *cobra.Command {
	var migrate bool
	c := &cobra.Command{
		Use:   "server",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if err := cfg.Validate(); err != nil {
				return err
			}
			logger := newLogger(cfg, cmd.ErrOrStderr())

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			connectCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
			defer cancel()
			database, err := openDB(connectCtx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer database.Close()
			if migrate {
				if err := repository.Migrate(connectCtx, database); err != nil {
					return err
				}
			}

			var rdb *redis.Client
			if cfg.Redis.Addr != "" && cfg.CacheTTL > 0 {
				rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
				defer rdb.Close()
				if err := rdb.Ping(connectCtx).Err(); err != nil {
					logger.Warn().Err(err).Msg("redis unreachable, car cache disabled until it recovers")
				}
			}

			metrics.Register()

			users := repository.NewUserRepository(database)
			cars := repository.NewCarRepository(database)
			bookings := repository.NewBookingRepository(database)
			checker := availability.NewChecker(bookings)
			tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
			images := upload.NewStorage(cfg.UploadPath, cfg.MaxFileSize)
			notifier := service.NewNotifierFromConfig(cfg, &logger)

			authSvc := service.NewAuthService(users, tokens, &logger)
			carSvc := service.NewCarService(cars, bookings, checker, images, cache.NewCarCache(rdb, cfg.CacheTTL, &logger), &logger)
			bookingSvc := service.NewBookingService(bookings, cars, users, checker, notifier, &logger)

			jobs := service.NewJobService(repository.NewJobRepository(database), &logger)
			scheduler, err := jobs.Start(cfg.CronSchedule)
			if err != nil {
				return err
			}
			defer func() { <-scheduler.Stop().Done() }()

			srv := &http.Server{
				Addr: ":" + cfg.Port,
				Handler: api.NewRouter(api.Deps{
					Config:   cfg,
					Logger:   &logger,
					Tokens:   tokens,
					Auth:     authSvc,
					Cars:     carSvc,
					Bookings: bookingSvc,
				}),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info().Str("port", cfg.Port).Str("env", cfg.Env).
					Bool("email", cfg.EmailEnabled()).Bool("sms", cfg.SMSEnabled()).
					Msg("server running")
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			logger.Info().Msg("shutting down")
			shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancelShutdown()
			return srv.Shutdown(shutdownCtx)
		},
	}
	c.Flags().BoolVar(&migrate, "migrate", true, "apply the schema before serving")
	return c
}
