package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chat_widget_mini/internal/models"

	"github.com/redis/go-redis/v9"
)

// RedisConfig Redis存储配置
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration // 0 表示不过期
}

// RedisStore 以Redis字符串保存对话记录，键为 SanitizeKey(history-path)
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore 连接Redis并创建存储
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("Redis地址未配置")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("Redis连接失败: %w", err)
	}
	return NewRedisStoreWithClient(client, cfg.TTL), nil
}

// NewRedisStoreWithClient 使用已有的客户端创建存储
func NewRedisStoreWithClient(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// Load 读取对话记录
func (s *RedisStore) Load(ctx context.Context, key string) ([]models.Message, error) {
	val, err := s.client.Get(ctx, SanitizeKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return []models.Message{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("读取对话记录失败: %w", err)
	}
	return Decode(val)
}

// Save 写入对话记录
func (s *RedisStore) Save(ctx context.Context, key string, messages []models.Message) error {
	data, err := encode(messages)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, SanitizeKey(key), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("保存对话记录失败: %w", err)
	}
	return nil
}

// Close 关闭连接
func (s *RedisStore) Close() error {
	return s.client.Close()
}
