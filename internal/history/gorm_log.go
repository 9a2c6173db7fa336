package history

import (
	"context"
	"errors"
	"time"

	"chat_widget_mini/internal/logger"

	gormLogger "gorm.io/gorm/logger"
)

// gormLog 将 GORM 日志写入 zerolog
type gormLog struct {
	slow time.Duration
}

func newGormLogger() gormLogger.Interface {
	return &gormLog{slow: 300 * time.Millisecond}
}

// LogMode 日志级别由 zerolog 控制
func (l *gormLog) LogMode(gormLogger.LogLevel) gormLogger.Interface {
	return l
}

func (l *gormLog) Info(_ context.Context, msg string, data ...any) {
	logger.Module("gorm").Info().Msgf(msg, data...)
}

func (l *gormLog) Warn(_ context.Context, msg string, data ...any) {
	logger.Module("gorm").Warn().Msgf(msg, data...)
}

func (l *gormLog) Error(_ context.Context, msg string, data ...any) {
	logger.Module("gorm").Error().Msgf(msg, data...)
}

// Trace 记录SQL耗时，错误优先于慢查询
func (l *gormLog) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)
	sql, rows := fc()
	log := logger.Module("gorm")

	switch {
	case err != nil && !errors.Is(err, gormLogger.ErrRecordNotFound):
		log.Error().Err(err).Dur("elapsed", elapsed).Int64("rows", rows).Str("sql", sql).Msg("SQL执行失败")
	case l.slow > 0 && elapsed > l.slow:
		log.Warn().Dur("elapsed", elapsed).Int64("rows", rows).Str("sql", sql).Msg("慢查询")
	default:
		log.Debug().Dur("elapsed", elapsed).Int64("rows", rows).Str("sql", sql).Msg("SQL")
	}
}
