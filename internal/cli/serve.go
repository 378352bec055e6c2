package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iliyamo/bakery-bookings/internal/database"
	"github.com/iliyamo/bakery-bookings/internal/handler"
	"github.com/iliyamo/bakery-bookings/internal/middleware"
	"github.com/iliyamo/bakery-bookings/internal/queue"
	"github.com/iliyamo/bakery-bookings/internal/repository"
	"github.com/iliyamo/bakery-bookings/internal/router"
	"github.com/iliyamo/bakery-bookings/internal/service"
)

func newServeCmd() *cobra.Command {
	var (
		migrateUp    bool
		consume      bool
		calendarSize int
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			a, err := bootstrap()
			if err != nil {
				return err
			}
			defer a.close()
			log := a.log

			if migrateUp {
				applied, err := database.MigrateMySQL(ctx, a.db)
				if err != nil {
					return err
				}
				log.Info("migrate.mysql", zap.Strings("applied", applied))
			}
			if err := a.openStore(ctx, migrateUp); err != nil {
				return err
			}
			eng, err := a.engine()
			if err != nil {
				return err
			}

			var pub service.EventPublisher = service.NopPublisher{}
			if a.cfg.Queue.Enabled {
				p := queue.NewPublisher(a.cfg.Queue.URL, a.cfg.Queue.QueueName, log)
				a.closers = append(a.closers, p.Close)
				pub = p
				if consume {
					go func() {
						err := queue.StartConsumer(ctx, a.cfg.Queue.URL, a.cfg.Queue.QueueName, a.cfg.Queue.ConsumerLog, log)
						if err != nil && !errors.Is(err, context.Canceled) {
							log.Error("consumer.stopped", zap.Error(err))
						}
					}()
				}
			}

			bookings, err := service.NewBookingService(a.store, eng, pub, log, calendarSize)
			if err != nil {
				return err
			}
			cache := middleware.NewResponseCache(a.cfg.Cache, a.rdb, log)
			reviews := service.NewReviewService(repository.NewReviewRepo(a.db), log, cache.Purge)
			users, tokens := repository.NewUserRepo(a.db), repository.NewTokenRepo(a.db)
			go purgeTokens(ctx, tokens, log)

			e := router.New(router.Deps{
				JWTSecret:         a.cfg.JWTSecret,
				Auth:              handler.NewAuthHandler(a.cfg, users, tokens, log),
				Availability:      handler.NewAvailabilityHandler(bookings, log),
				Reservations:      handler.NewReservationHandler(bookings, log),
				AdminReservations: handler.NewAdminReservationHandler(bookings, log),
				Reviews:           handler.NewReviewHandler(reviews, log),
				Cache:             cache,
				RateLimit:         middleware.NewTokenBucket(a.cfg.RateLimit, a.rdb, log),
				Logger:            log,
			})

			errCh := make(chan error, 1)
			go func() {
				addr := ":" + a.cfg.Port
				log.Info("server.listening", zap.String("addr", addr), zap.String("env", a.cfg.Env))
				if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}
			log.Info("server.shutting_down")
			shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
			defer stop()
			return e.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().BoolVar(&migrateUp, "migrate", true, "apply MySQL and, for STORE_BACKEND=postgres, Postgres migrations on startup")
	cmd.Flags().BoolVar(&consume, "consumer", true, "run the booking log consumer in-process")
	cmd.Flags().IntVar(&calendarSize, "calendar-cache", 24, "months kept in the calendar cache (0 disables)")
	return cmd
}

// purgeTokens deletes expired refresh tokens once an hour.
func purgeTokens(ctx context.Context, tokens *repository.TokenRepo, log *zap.Logger) {
	t := time.NewTicker(time.Hour)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			n, err := tokens.PurgeExpired(ctx, now.UTC())
			if err != nil {
				log.Warn("tokens.purge_failed", zap.Error(err))
				continue
			}
			if n > 0 {
				log.Info("tokens.purged", zap.Int64("count", n))
			}
		}
	}
}
