package history

import (
	"context"
	"fmt"

	"chat_widget_mini/internal/config"
)

// NewStore 根据配置创建对话记录存储
func NewStore(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.History.Driver {
	case config.HistoryDriverFile, "":
		return NewFileStore(cfg.History.Dir)
	case config.HistoryDriverRedis:
		return NewRedisStore(ctx, RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Redis.TTL,
		})
	case config.HistoryDriverSQLite:
		return NewSQLiteStore(cfg.SQLite.Path)
	default:
		return nil, fmt.Errorf("%w: %s", config.ErrUnknownHistoryDriver, cfg.History.Driver)
	}
}
