package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/bakery-bookings/internal/availability"
	"github.com/iliyamo/bakery-bookings/internal/config"
	"github.com/iliyamo/bakery-bookings/internal/database"
	"github.com/iliyamo/bakery-bookings/internal/logger"
	"github.com/iliyamo/bakery-bookings/internal/repository"
)

// app holds the resources shared by the commands.  close releases them
// in reverse order of acquisition.
type app struct {
	cfg     config.Config
	log     *zap.Logger
	db      *sql.DB
	rdb     *redis.Client
	store   repository.ReservationStore
	closers []func() error
}

// bootstrap loads configuration, builds the logger and opens MySQL, which
// always holds users, tokens and reviews.
func bootstrap() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	log, err := logger.New(cfg.Env)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	a := &app{cfg: cfg, log: log}
	a.closers = append(a.closers, func() error { _ = log.Sync(); return nil })

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("mysql: %w", err)
	}
	a.db = db
	a.closers = append(a.closers, db.Close)

	a.rdb = config.NewRedisClient(cfg.Redis)
	if a.rdb != nil {
		a.closers = append(a.closers, a.rdb.Close)
	} else {
		log.Warn("redis.unavailable", zap.String("addr", cfg.Redis.Addr))
	}
	return a, nil
}

// Seams over the Postgres calls so backend selection can be tested
// without a server.
var (
	openPostgres    = database.OpenPostgres
	migratePostgres = database.MigratePostgres
)

// openStore connects the configured reservation backend.  With migrate
// set, a Postgres backend gets its schema applied before first use; Mongo
// indexes are ensured either way.
func (a *app) openStore(ctx context.Context, migrate bool) error {
	sc := a.cfg.Store
	switch sc.Backend {
	case repository.BackendMySQL:
		a.store = repository.NewReservationRepo(a.db)
	case repository.BackendPostgres:
		pool, err := openPostgres(ctx, sc.PostgresDSN)
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		if migrate {
			applied, err := migratePostgres(ctx, pool)
			if err != nil {
				pool.Close()
				return fmt.Errorf("migrate postgres: %w", err)
			}
			a.log.Info("migrate.postgres", zap.Strings("applied", applied))
		}
		a.store = repository.NewPostgresStore(pool)
	case repository.BackendRedis:
		if a.rdb == nil {
			return errors.New("STORE_BACKEND=redis but redis is unreachable")
		}
		a.store = repository.NewRedisStore(a.rdb, sc.RedisPrefix)
	case repository.BackendMongo:
		client, err := database.ConnectMongo(ctx, sc.MongoURI)
		if err != nil {
			return fmt.Errorf("mongo: %w", err)
		}
		ms := repository.NewMongoStore(client, sc.MongoDB, "reservation_days")
		if err := ms.EnsureIndexes(ctx); err != nil {
			_ = ms.Close()
			return fmt.Errorf("mongo indexes: %w", err)
		}
		a.store = ms
	case repository.BackendMemory:
		a.log.Warn("store.memory", zap.String("note", "reservations are lost on restart"))
		a.store = repository.NewMemoryStore()
	default:
		return fmt.Errorf("unknown store backend %q", sc.Backend)
	}
	a.closers = append(a.closers, a.store.Close)
	a.log.Info("store.opened", zap.String("backend", sc.Backend))
	return nil
}

func (a *app) engine() (*availability.Engine, error) {
	return availability.New(a.cfg.Schedule.ToAvailability(), availability.WithLocation(a.cfg.Schedule.Location()))
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
	a.closers = nil
}
