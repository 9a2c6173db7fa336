package history

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"chat_widget_mini/internal/models"
)

// FileStore 以JSON文件保存对话记录，用于本地开发
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore 创建文件存储
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("创建对话记录目录失败: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Path 返回 key 对应的文件路径，key 中的 ".." 不会跳出存储目录
func (s *FileStore) Path(key string) string {
	clean := path.Clean("/" + key)
	if clean == "/" {
		clean = "/history.json"
	}
	if !strings.HasSuffix(clean, ".json") {
		clean += ".json"
	}
	return filepath.Join(s.dir, filepath.FromSlash(strings.TrimPrefix(clean, "/")))
}

// Load 读取对话记录
func (s *FileStore) Load(_ context.Context, key string) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.Path(key))
	if os.IsNotExist(err) {
		return []models.Message{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("读取对话记录失败: %w", err)
	}
	return Decode(data)
}

// Save 写入对话记录，先写临时文件再重命名
func (s *FileStore) Save(_ context.Context, key string, messages []models.Message) error {
	data, err := encode(messages)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	target := s.Path(key)
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("创建对话记录目录失败: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".history-*.tmp")
	if err != nil {
		return fmt.Errorf("创建临时文件失败: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("写入对话记录失败: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("写入对话记录失败: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return fmt.Errorf("保存对话记录失败: %w", err)
	}
	return nil
}

// Close 文件存储无需释放资源
func (s *FileStore) Close() error {
	return nil
}
