package db

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/yungbote/movierec-backend/internal/platform/logger"
)

// Conn hands out a ready *gorm.DB bound to ctx.
type Conn interface {
	DB(ctx context.Context) (*gorm.DB, error)
}

type Opener func(ctx context.Context) (*gorm.DB, error)

// Lazy opens the database on first use. Concurrent first callers share a single
// in-flight open; a failed open is not remembered, so the next call retries.
type Lazy struct {
	log    *logger.Logger
	open   Opener
	onOpen []func(*gorm.DB)

	group singleflight.Group
	mu    sync.RWMutex
	db    *gorm.DB
}

func NewLazy(log *logger.Logger, open Opener, onOpen ...func(*gorm.DB)) *Lazy {
	return &Lazy{log: log.With("service", "LazyDB"), open: open, onOpen: onOpen}
}

func (l *Lazy) current() *gorm.DB {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.db
}

func (l *Lazy) DB(ctx context.Context) (*gorm.DB, error) {
	if db := l.current(); db != nil {
		return db.WithContext(ctx), nil
	}
	// the open outlives a cancelled caller so other waiters still get a handle
	openCtx := context.WithoutCancel(ctx)
	ch := l.group.DoChan("open", func() (interface{}, error) {
		if db := l.current(); db != nil {
			return db, nil
		}
		db, err := l.open(openCtx)
		if err != nil {
			l.log.Warn("database open failed", "error", err)
			return nil, err
		}
		for _, fn := range l.onOpen {
			fn(db)
		}
		l.mu.Lock()
		l.db = db
		l.mu.Unlock()
		return db, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*gorm.DB).WithContext(ctx), nil
	}
}

// Close releases the pool if it was opened.
func (l *Lazy) Close() error {
	l.mu.Lock()
	db := l.db
	l.db = nil
	l.mu.Unlock()
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

type static struct{ db *gorm.DB }

// Static wraps an already open handle.
func Static(db *gorm.DB) Conn {
	return static{db: db}
}

func (s static) DB(ctx context.Context) (*gorm.DB, error) {
	if s.db == nil {
		return nil, errors.New("database not configured")
	}
	return s.db.WithContext(ctx), nil
}
