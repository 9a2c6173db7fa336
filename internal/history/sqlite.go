package history

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"chat_widget_mini/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// ChatHistoryEntry 对话记录中的一条消息
type ChatHistoryEntry struct {
	ID         uint64 `gorm:"primaryKey;autoIncrement"`
	HistoryKey string `gorm:"index;size:255;not null"`
	Seq        int    `gorm:"not null"`
	Role       string `gorm:"size:16"`
	Kind       string `gorm:"size:32"`
	Payload    string `gorm:"type:text"` // 完整消息的JSON
	CreatedAt  time.Time
}

// TableName 表名
func (ChatHistoryEntry) TableName() string {
	return "chat_history_entries"
}

// SQLiteStore 以SQLite保存对话记录，每条消息一行
type SQLiteStore struct {
	db *gorm.DB
}

// NewSQLiteStore 打开数据库并迁移表结构，dbPath 支持 :memory:
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = "data/history.sqlite"
	}

	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("创建数据库目录失败 %s: %w", dir, err)
			}
		}
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{Logger: newGormLogger()})
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败 %s: %w", dbPath, err)
	}

	// 内存数据库每个连接都是独立的库
	if dbPath == ":memory:" {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.SetMaxOpenConns(1)
		}
	}

	if err := db.AutoMigrate(&ChatHistoryEntry{}); err != nil {
		return nil, fmt.Errorf("迁移表结构失败: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Load 按顺序读取对话记录
func (s *SQLiteStore) Load(ctx context.Context, key string) ([]models.Message, error) {
	var entries []ChatHistoryEntry
	err := s.db.WithContext(ctx).
		Where("history_key = ?", key).
		Order("seq").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("读取对话记录失败: %w", err)
	}

	messages := make([]models.Message, 0, len(entries))
	for _, e := range entries {
		var m models.Message
		if err := json.Unmarshal([]byte(e.Payload), &m); err != nil {
			return nil, fmt.Errorf("解析对话记录失败: id=%d: %w", e.ID, err)
		}
		messages = append(messages, m)
	}
	return normalize(messages), nil
}

// Save 在事务中删除旧记录并写入新记录
func (s *SQLiteStore) Save(ctx context.Context, key string, messages []models.Message) error {
	entries := make([]ChatHistoryEntry, 0, len(messages))
	for i, m := range messages {
		payload, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("序列化对话记录失败: %w", err)
		}
		entries = append(entries, ChatHistoryEntry{
			HistoryKey: key,
			Seq:        i,
			Role:       m.Role,
			Kind:       string(m.Kind),
			Payload:    string(payload),
		})
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("history_key = ?", key).Delete(&ChatHistoryEntry{}).Error; err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}
		return tx.CreateInBatches(entries, 100).Error
	})
	if err != nil {
		return fmt.Errorf("保存对话记录失败: %w", err)
	}
	return nil
}

// Close 关闭数据库连接
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
