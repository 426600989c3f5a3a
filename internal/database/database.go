// Package database is the persistence gateway: it opens the store, bounds
// the connection pool and hands out one checked-out connection per unit of
// work, releasing it on every exit path.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"canteen/internal/metrics"
	"canteen/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var (
	// ErrConnection means no connection to the store could be obtained.
	ErrConnection = errors.New("database connection error")
	// ErrPersistence means a statement failed or timed out.
	ErrPersistence = errors.New("persistence error")
)

// Policy selects how connections are shared between requests.
type Policy string

const (
	// PolicyPerRequest checks a connection out of a bounded pool per unit of work.
	PolicyPerRequest Policy = "per-request"
	// PolicyShared bounds the pool to a single connection. Requests still
	// check it out and in, so they are serialized rather than interleaved.
	PolicyShared Policy = "shared"
)

const (
	defaultMaxOpenConns = 10
	defaultQueryTimeout = 5 * time.Second
	connMaxLifetime     = 30 * time.Minute
	connMaxIdleTime     = 5 * time.Minute
	migrateTimeout      = 30 * time.Second
)

// Config describes how to reach the store.
type Config struct {
	URL          string
	Policy       Policy
	MaxOpenConns int
	QueryTimeout time.Duration
	Logger       *slog.Logger
}

// Gateway owns the connection pool.
type Gateway struct {
	db      *gorm.DB
	sqlDB   *sql.DB
	policy  Policy
	timeout time.Duration
	logger  *slog.Logger
}

// Open creates the gateway. It pings the store but an unreachable store is
// not fatal: the error is returned wrapped in ErrConnection alongside a
// usable gateway so callers can keep serving and report unhealthy.
func Open(ctx context.Context, cfg Config) (*Gateway, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("database URL is empty")
	}
	dialector, err := dialectorFor(cfg.URL)
	if err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Policy == "" {
		cfg.Policy = PolicyPerRequest
	}
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = defaultQueryTimeout
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:               gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError:       true,
		DisableAutomaticPing: true,
		NowFunc:              func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("%w: open: %w", ErrConnection, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("%w: get sql.DB: %w", ErrConnection, err)
	}
	configurePool(sqlDB, cfg.Policy, cfg.MaxOpenConns)

	g := &Gateway{
		db:      db,
		sqlDB:   sqlDB,
		policy:  cfg.Policy,
		timeout: cfg.QueryTimeout,
		logger:  cfg.Logger,
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.QueryTimeout)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		return g, fmt.Errorf("%w: ping: %w", ErrConnection, err)
	}
	return g, nil
}

func dialectorFor(dsn string) (gorm.Dialector, error) {
	lower := strings.ToLower(dsn)
	switch {
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"),
		strings.Contains(lower, "host="):
		return postgres.Open(dsn), nil
	case strings.HasPrefix(lower, "sqlite://"):
		return sqlite.Open(dsn[len("sqlite://"):]), nil
	case strings.HasPrefix(lower, "file:"), strings.HasSuffix(lower, ".db"), lower == ":memory:":
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database URL (expected postgres://, sqlite:// or file:)")
	}
}

func configurePool(sqlDB *sql.DB, policy Policy, maxOpen int) {
	if maxOpen < 1 {
		maxOpen = defaultMaxOpenConns
	}
	if policy == PolicyShared {
		maxOpen = 1
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxOpen)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)
}

// Do runs fn on a connection checked out for this call only. The call is
// bounded by the configured query timeout and the connection is returned to
// the pool on every exit path, including a panic inside fn.
//
// A failed checkout is reported as ErrConnection and a deadline hit while
// fn runs as ErrPersistence. Other errors from fn are returned as is.
func (g *Gateway) Do(ctx context.Context, op string, fn func(tx *gorm.DB) error) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	checkedOut := false
	err := g.db.WithContext(ctx).Connection(func(tx *gorm.DB) error {
		checkedOut = true
		return fn(tx.Session(&gorm.Session{}))
	})
	metrics.ObserveQuery(op, time.Since(start), err)

	switch {
	case err == nil:
		return nil
	case !checkedOut:
		return fmt.Errorf("%w: %s: %w", ErrConnection, op, err)
	case errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, ErrPersistence):
		return fmt.Errorf("%w: %s: timed out after %s: %w", ErrPersistence, op, g.timeout, err)
	default:
		return err
	}
}

// Check performs a trivial round trip against the store.
func (g *Gateway) Check(ctx context.Context) error {
	return g.Do(ctx, "health.ping", func(tx *gorm.DB) error {
		var one int
		if err := tx.Raw("SELECT 1").Scan(&one).Error; err != nil {
			return fmt.Errorf("%w: select 1: %w", ErrPersistence, err)
		}
		return nil
	})
}

// Migrate creates the users and orders tables and their indexes if missing.
// The migrator manages its own connections, so this does not go through Do.
func (g *Gateway) Migrate(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, migrateTimeout)
	defer cancel()

	start := time.Now()
	err := g.db.WithContext(ctx).AutoMigrate(&models.User{}, &models.Order{})
	metrics.ObserveQuery("schema.migrate", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("%w: auto-migrate: %w", ErrPersistence, err)
	}
	return nil
}

// Stats is the startup diagnostics snapshot.
type Stats struct {
	Users       int64
	Orders      int64
	SampleUsers []models.User // password hashes are never selected
}

// Stats counts users and orders and samples a few users.
func (g *Gateway) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	err := g.Do(ctx, "diagnostics.stats", func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).Count(&s.Users).Error; err != nil {
			return fmt.Errorf("%w: count users: %w", ErrPersistence, err)
		}
		if err := tx.Model(&models.Order{}).Count(&s.Orders).Error; err != nil {
			return fmt.Errorf("%w: count orders: %w", ErrPersistence, err)
		}
		if err := tx.Select("id", "name", "email", "role").Order("id").Limit(3).Find(&s.SampleUsers).Error; err != nil {
			return fmt.Errorf("%w: sample users: %w", ErrPersistence, err)
		}
		return nil
	})
	return s, err
}

// Policy returns the configured connection policy.
func (g *Gateway) Policy() Policy {
	return g.policy
}

// PoolStats exposes the underlying pool counters.
func (g *Gateway) PoolStats() sql.DBStats {
	return g.sqlDB.Stats()
}

// Close releases every pooled connection.
func (g *Gateway) Close() error {
	if err := g.sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}
