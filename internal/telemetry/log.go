package telemetry

import (
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/calvinalkan/lazyslot/pkg/slot"
)

// ErrLogLevel indicates an unrecognized log level name.
var ErrLogLevel = errors.New("unknown log level")

// NewLogger returns a console logger writing to w at the given level
// ("debug", "info", "warn" or "error").
func NewLogger(level string, w io.Writer) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrLogLevel, level)
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.TimeKey = ""

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(w), lvl)

	return zap.New(core), nil
}

// LogHook logs every construction attempt: start at debug, success at info
// and failure at warn.
func LogHook(logger *zap.Logger) slot.Hook {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(name string, attempt int64) func(error) {
		start := time.Now()

		logger.Debug("constructing", zap.String("slot", name), zap.Int64("attempt", attempt))

		return func(err error) {
			fields := []zap.Field{
				zap.String("slot", name),
				zap.Int64("attempt", attempt),
				zap.Duration("elapsed", time.Since(start)),
			}

			if err != nil {
				logger.Warn("construction failed", append(fields, zap.Error(err))...)
				return
			}

			logger.Info("constructed", fields...)
		}
	}
}

// Multi fans a construction event out to every non-nil hook, in order.
func Multi(hooks ...slot.Hook) slot.Hook {
	active := make([]slot.Hook, 0, len(hooks))
	for _, h := range hooks {
		if h != nil {
			active = append(active, h)
		}
	}

	return func(name string, attempt int64) func(error) {
		dones := make([]func(error), 0, len(active))
		for _, h := range active {
			if done := h(name, attempt); done != nil {
				dones = append(dones, done)
			}
		}

		return func(err error) {
			for i := len(dones) - 1; i >= 0; i-- {
				dones[i](err)
			}
		}
	}
}
