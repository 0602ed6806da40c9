package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/movierec-backend/internal/data/db"
	types "github.com/yungbote/movierec-backend/internal/domain"
	"github.com/yungbote/movierec-backend/internal/platform/logger"
)

var dbSeq int64

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	log, err := logger.New("test")
	if err != nil {
		tb.Fatalf("failed to init logger: %v", err)
	}
	return log
}

// DB opens a private in-memory sqlite database with the schema migrated.
// A single connection keeps every query on the same memory database.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(tb.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, atomic.AddInt64(&dbSeq, 1))
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		tb.Fatalf("sqlite pool: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrateAll(gdb); err != nil {
		tb.Fatalf("auto migrate: %v", err)
	}
	return gdb
}

// Conn wraps DB(tb) for constructors that take a db.Conn.
func Conn(tb testing.TB) (db.Conn, *gorm.DB) {
	tb.Helper()
	gdb := DB(tb)
	return db.Static(gdb), gdb
}

func SeedMovie(tb testing.TB, gdb *gorm.DB, m *types.Movie) *types.Movie {
	tb.Helper()
	if m.Type == "" {
		m.Type = types.TypeMovie
	}
	if err := gdb.WithContext(context.Background()).Create(m).Error; err != nil {
		tb.Fatalf("seed movie %s: %v", m.ID, err)
	}
	return m
}

func SeedCustomer(tb testing.TB, gdb *gorm.DB, id string, history ...types.ViewingRecord) *types.Customer {
	tb.Helper()
	if history == nil {
		history = []types.ViewingRecord{}
	}
	c := &types.Customer{ID: id, ViewedMovies: history}
	if err := gdb.WithContext(context.Background()).Create(c).Error; err != nil {
		tb.Fatalf("seed customer %s: %v", id, err)
	}
	return c
}
