package database

import (
	"context"
	"errors"
	"time"

	"github.com/leonardo-io/leonardo/internal/util"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/utils"
)

// zapLogger adapts a zap logger to gorm's logger.Interface.
type zapLogger struct {
	logger                    *zap.SugaredLogger
	SlowThreshold             time.Duration
	LogLevel                  logger.LogLevel
	IgnoreRecordNotFoundError bool
}

func NewLogger(sugar *zap.SugaredLogger) logger.Interface {
	return &zapLogger{
		logger:                    sugar,
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	}
}

func (z *zapLogger) LogMode(level logger.LogLevel) logger.Interface {
	l := *z
	l.LogLevel = level
	return &l
}

func (z *zapLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	if z.LogLevel >= logger.Info {
		util.WithTrace(ctx, z.logger).Infof(msg, args...)
	}
}

func (z *zapLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	if z.LogLevel >= logger.Warn {
		util.WithTrace(ctx, z.logger).Warnf(msg, args...)
	}
}

func (z *zapLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	if z.LogLevel >= logger.Error {
		util.WithTrace(ctx, z.logger).Errorf(msg, args...)
	}
}

func (z *zapLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if z.LogLevel <= logger.Silent {
		return
	}
	elapsed := time.Since(begin)
	log := func() *zap.SugaredLogger {
		sql, rows := fc()
		return util.WithTrace(ctx, z.logger).With(
			"line_number", utils.FileWithLineNum(),
			"sql", sql,
			"rows", rows,
			"elapsed_ms", float64(elapsed.Nanoseconds())/1e6,
		)
	}
	switch {
	case err != nil && z.LogLevel >= logger.Error && (!errors.Is(err, gorm.ErrRecordNotFound) || !z.IgnoreRecordNotFoundError):
		// constraint violations are expected under concurrent claims and placements
		log().Debugw("query failed", "error", err)
	case elapsed > z.SlowThreshold && z.SlowThreshold != 0 && z.LogLevel >= logger.Warn:
		log().Warnw("slow query", "threshold", z.SlowThreshold)
	case z.LogLevel == logger.Info:
		log().Infow("query")
	}
}
