package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"chat_widget_mini/internal/history"
	"chat_widget_mini/internal/logger"
	"chat_widget_mini/internal/metrics"
	"chat_widget_mini/internal/models"

	"github.com/google/uuid"
)

// ManagerOptions 会话管理器依赖
type ManagerOptions struct {
	Client      ChatClient
	Store       history.Store // 为 nil 时不持久化
	Responder   *Responder
	Metrics     *metrics.Metrics
	Orders      []models.Order
	IdleTTL     time.Duration // 0 表示不回收
	SaveTimeout time.Duration
	Now         func() time.Time

	DefaultHistoryPath string // 未指定 history-path 时使用
}

// Manager 管理所有聊天会话
type Manager struct {
	opts     ManagerOptions
	sessions map[string]*Session
	mu       sync.RWMutex

	notifyMu sync.RWMutex
	notify   func(Snapshot)
}

// NewManager 创建会话管理器
func NewManager(opts ManagerOptions) *Manager {
	if opts.Responder == nil {
		opts.Responder = NewResponder(nil, nil, opts.Metrics)
	}
	if opts.Orders == nil {
		opts.Orders = MockOrders()
	}
	if opts.SaveTimeout == 0 {
		opts.SaveTimeout = 5 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Manager{
		opts:     opts,
		sessions: make(map[string]*Session),
	}
}

// OnChange 设置会话状态变化的回调
func (m *Manager) OnChange(fn func(Snapshot)) {
	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()
	m.notify = fn
}

func (m *Manager) publish(snap Snapshot) {
	m.notifyMu.RLock()
	fn := m.notify
	m.notifyMu.RUnlock()
	if fn != nil {
		fn(snap)
	}
}

// Create 创建会话，以会话ID作为访客ID，不会读到其他访客的对话记录
func (m *Manager) Create(ctx context.Context, historyPath string) *Session {
	return m.CreateForVisitor(ctx, historyPath, "")
}

// CreateForVisitor 创建会话并恢复该访客在 historyPath 下的对话记录
//
// 访客ID由前端保存在自己的本地存储中，下次打开时带回来；
// 为空或只含非法字符时使用新的会话ID。
func (m *Manager) CreateForVisitor(ctx context.Context, historyPath, visitorID string) *Session {
	if strings.TrimSpace(historyPath) == "" {
		historyPath = m.opts.DefaultHistoryPath
	}
	cfg := models.ResolveWidgetConfig("", historyPath)
	id := uuid.New().String()
	visitorID = history.CleanVisitorID(visitorID)
	if visitorID == "" {
		visitorID = id
	}
	s := &Session{
		id:          id,
		visitorID:   visitorID,
		historyPath: cfg.HistoryPath,
		historyKey:  history.VisitorKey(cfg.HistoryPath, visitorID),
		client:      m.opts.Client,
		store:       m.opts.Store,
		responder:   m.opts.Responder,
		metrics:     m.opts.Metrics,
		orders:      m.opts.Orders,
		saveTimeout: m.opts.SaveTimeout,
		now:         m.opts.Now,
		notify:      m.publish,
	}
	s.restore(ctx)

	m.mu.Lock()
	m.sessions[s.id] = s
	count := len(m.sessions)
	m.mu.Unlock()

	m.opts.Metrics.SetActiveSessions(count)
	logger.Module("session").Info().
		Str("session_id", s.id).
		Str("visitor_id", s.visitorID).
		Str("history_path", s.historyPath).
		Int("messages", len(s.Messages())).
		Msg("创建会话")
	return s
}

// Get 获取会话
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

// GetOrCreate 会话不存在时为该访客新建一个
func (m *Manager) GetOrCreate(ctx context.Context, id, historyPath, visitorID string) *Session {
	if id != "" {
		if s, err := m.Get(id); err == nil {
			return s
		}
	}
	return m.CreateForVisitor(ctx, historyPath, visitorID)
}

// Remove 删除会话
func (m *Manager) Remove(id string) bool {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	count := len(m.sessions)
	m.mu.Unlock()

	m.opts.Metrics.SetActiveSessions(count)
	return ok
}

// Count 当前会话数
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep 回收空闲超过 IdleTTL 的会话，正在等待回复的会话不回收
func (m *Manager) Sweep() int {
	if m.opts.IdleTTL <= 0 {
		return 0
	}
	deadline := m.opts.Now().Add(-m.opts.IdleTTL)

	m.mu.Lock()
	removed := 0
	for id, s := range m.sessions {
		if !s.Busy() && s.LastActivity().Before(deadline) {
			delete(m.sessions, id)
			removed++
		}
	}
	count := len(m.sessions)
	m.mu.Unlock()

	if removed > 0 {
		m.opts.Metrics.SetActiveSessions(count)
		logger.Module("session").Info().
			Int("removed", removed).
			Int("remaining", count).
			Msg("回收空闲会话")
	}
	return removed
}

// Run 定期回收空闲会话，直到 ctx 结束
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}
