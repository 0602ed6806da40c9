package db

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/yungbote/movierec-backend/internal/platform/envutil"
	"github.com/yungbote/movierec-backend/internal/platform/logger"
)

type PostgresConfig struct {
	DSN          string        `yaml:"dsn"`
	Host         string        `yaml:"host"`
	Port         string        `yaml:"port"`
	User         string        `yaml:"user"`
	Password     string        `yaml:"password"`
	Name         string        `yaml:"name"`
	SSLMode      string        `yaml:"ssl_mode"`
	MaxOpenConns int           `yaml:"max_open_conns"`
	MaxIdleConns int           `yaml:"max_idle_conns"`
	ConnMaxLife  time.Duration `yaml:"conn_max_life"`
	AutoMigrate  bool          `yaml:"auto_migrate"`
}

func DefaultPostgresConfig() PostgresConfig {
	return PostgresConfig{
		Host:         "localhost",
		Port:         "5432",
		User:         "postgres",
		Name:         "movierec",
		SSLMode:      "disable",
		MaxOpenConns: 20,
		MaxIdleConns: 5,
		ConnMaxLife:  30 * time.Minute,
		AutoMigrate:  true,
	}
}

func ApplyPostgresEnv(cfg PostgresConfig) PostgresConfig {
	cfg.DSN = envutil.String("POSTGRES_DSN", cfg.DSN)
	cfg.Host = envutil.String("POSTGRES_HOST", cfg.Host)
	cfg.Port = envutil.String("POSTGRES_PORT", cfg.Port)
	cfg.User = envutil.String("POSTGRES_USER", cfg.User)
	cfg.Password = envutil.String("POSTGRES_PASSWORD", cfg.Password)
	cfg.Name = envutil.String("POSTGRES_NAME", cfg.Name)
	cfg.SSLMode = envutil.String("POSTGRES_SSLMODE", cfg.SSLMode)
	cfg.MaxOpenConns = envutil.Int("POSTGRES_MAX_OPEN_CONNS", cfg.MaxOpenConns)
	cfg.MaxIdleConns = envutil.Int("POSTGRES_MAX_IDLE_CONNS", cfg.MaxIdleConns)
	cfg.AutoMigrate = envutil.Bool("POSTGRES_AUTO_MIGRATE", cfg.AutoMigrate)
	return cfg
}

// ConnString prefers an explicit DSN and otherwise assembles a postgres:// URL.
func (c PostgresConfig) ConnString() string {
	if dsn := strings.TrimSpace(c.DSN); dsn != "" {
		return dsn
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   c.Host + ":" + c.Port,
		Path:   "/" + c.Name,
	}
	q := url.Values{}
	if c.SSLMode != "" {
		q.Set("sslmode", c.SSLMode)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// OpenPostgres connects, tunes the pool and optionally migrates the schema.
func OpenPostgres(ctx context.Context, log *logger.Logger, cfg PostgresConfig) (*gorm.DB, error) {
	serviceLog := log.With("service", "PostgresService")

	gdb, err := gorm.Open(postgres.Open(cfg.ConnString()), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   NewGormLogger(log, time.Second),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("postgres pool: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLife > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLife)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	if cfg.AutoMigrate {
		if err := AutoMigrateAll(gdb.WithContext(ctx)); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("auto migrate: %w", err)
		}
	}
	serviceLog.Info("postgres connected", "host", cfg.Host, "name", cfg.Name, "auto_migrate", cfg.AutoMigrate)
	return gdb, nil
}
