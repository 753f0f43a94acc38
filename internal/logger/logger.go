// Package logger holds the process-wide zap sugared logger used across
// handlers, services, and middleware.
package logger

import (
	"sync"

	"go.uber.org/zap"
)

var (
	global *zap.SugaredLogger
	once   sync.Once
)

// Init builds the global logger once for the given environment: JSON output
// in "production", console output everywhere else (including tests). Later
// calls are no-ops.
func Init(env string) {
	once.Do(func() {
		base := newBase(env)
		global = base.Sugar()
	})
}

func newBase(env string) *zap.Logger {
	var base *zap.Logger
	var err error
	if env == "production" {
		base, err = zap.NewProduction()
	} else {
		base, err = zap.NewDevelopment()
	}
	if err != nil {
		return zap.NewNop()
	}
	return base
}

// Get returns the global sugared logger, initializing a development logger
// on first use if Init was never called.
func Get() *zap.SugaredLogger {
	if global == nil {
		Init("development")
	}
	return global
}

// Sync flushes buffered entries. Deferred from main before exit.
func Sync() {
	if global != nil {
		_ = global.Sync()
	}
}
