package services

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"chat_widget_mini/internal/clients/flowise"
	"chat_widget_mini/internal/history"
	"chat_widget_mini/internal/logger"
	"chat_widget_mini/internal/metrics"
	"chat_widget_mini/internal/models"
)

// ChatClient 对话端点客户端
type ChatClient interface {
	Chat(ctx context.Context, req flowise.ChatRequest) (string, error)
}

// Snapshot 会话状态快照，用于接口返回和 WebSocket 推送
type Snapshot struct {
	ID             string           `json:"id"`
	VisitorID      string           `json:"visitorId"`
	HistoryPath    string           `json:"historyPath"`
	Messages       []models.Message `json:"messages"`
	ShowOptions    bool             `json:"showOptions"`
	IsLoggedIn     bool             `json:"isLoggedIn"`
	ShowLoginModal bool             `json:"showLoginModal"`
	Loading        bool             `json:"loading"`
	SaveError      string           `json:"saveError,omitempty"`
	Options        []Option         `json:"options,omitempty"`
}

// Session 一个聊天窗口的对话状态
//
// 所有状态由 mu 保护，请求对话端点和读写存储时不持有锁。
// messages 每次变化都整体替换，已经交出去的切片不会再被修改。
type Session struct {
	id          string
	visitorID   string
	historyPath string
	historyKey  string // historyPath 加上访客ID

	client      ChatClient
	store       history.Store
	responder   *Responder
	metrics     *metrics.Metrics
	orders      []models.Order
	saveTimeout time.Duration
	now         func() time.Time
	notify      func(Snapshot)

	mu             sync.Mutex
	messages       []models.Message
	nextID         uint64
	showOptions    bool
	isLoggedIn     bool
	showLoginModal bool
	loading        bool
	searchPending  bool
	saveError      string
	lastActivity   time.Time
}

// ID 会话ID
func (s *Session) ID() string {
	return s.id
}

// VisitorID 访客ID，对话记录按访客分开保存
func (s *Session) VisitorID() string {
	return s.visitorID
}

// HistoryPath 对话记录路径
func (s *Session) HistoryPath() string {
	return s.historyPath
}

// restore 读取已保存的对话记录，没有记录或读取失败时显示欢迎语
func (s *Session) restore(ctx context.Context) {
	var saved []models.Message
	if s.store != nil {
		var err error
		saved, err = s.store.Load(ctx, s.historyKey)
		s.metrics.ObserveHistory("load", err)
		if err != nil {
			logger.Module("session").Warn().Err(err).
				Str("session_id", s.id).
				Str("history_path", s.historyPath).
				Msg("读取对话记录失败，使用欢迎语")
			saved = nil
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActivity = s.now()

	// 重新编号，保证“查看更多”等操作使用的ID唯一
	messages := make([]models.Message, 0, len(saved))
	for _, m := range saved {
		if err := m.Validate(); err != nil {
			logger.Module("session").Warn().Err(err).
				Str("session_id", s.id).
				Msg("跳过无效的历史消息")
			continue
		}
		m.ID = s.nextID
		s.nextID++
		messages = append(messages, m)
	}
	if len(messages) == 0 {
		s.resetLocked()
		return
	}
	s.messages = messages
	s.showOptions = len(messages) == 1
}

// Send 发送用户消息并等待回复
//
// 对话端点失败时不返回错误，而是在对话中追加一条错误提示；
// 返回的 error 只表示请求没有被接受。
func (s *Session) Send(ctx context.Context, text string) (models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.Message{}, ErrEmptyInput
	}

	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return models.Message{}, ErrSessionBusy
	}
	turns := chatTurns(s.messages)
	awaitingSearch := s.searchPending
	user := s.stampLocked(models.NewText(models.RoleUser, text))
	placeholder := s.stampLocked(models.NewLoading(LoadingText))
	s.appendLocked(user, placeholder)
	s.searchPending = false
	s.showOptions = false
	s.loading = true
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.publish(snap)

	start := s.now()
	reply, err := s.client.Chat(ctx, flowise.ChatRequest{UserQuery: text, ChatHistory: turns})
	result := Classify(err)
	s.metrics.ObserveChat(result, s.now().Sub(start))

	var final models.Message
	if err != nil {
		logger.Module("session").Error().Err(err).
			Str("session_id", s.id).
			Str("result", result).
			Msg("对话请求失败")
		final = models.NewError(UserMessage(err))
	} else {
		final = s.responder.Respond(text, reply, awaitingSearch)
	}

	s.mu.Lock()
	final = s.stampLocked(final)
	s.settleLocked(placeholder.ID, final, err == nil)
	s.loading = false
	s.mu.Unlock()

	s.commit(ctx)
	return final, nil
}

// settleLocked 成功时用结果替换占位消息，失败时去掉占位消息并追加错误提示
func (s *Session) settleLocked(placeholderID uint64, final models.Message, replace bool) {
	idx := s.indexLocked(placeholderID)
	if idx < 0 {
		s.appendLocked(final)
		return
	}
	if replace {
		s.messages = slices.Concat(s.messages[:idx], []models.Message{final}, s.messages[idx+1:])
		return
	}
	s.messages = slices.Concat(s.messages[:idx], s.messages[idx+1:], []models.Message{final})
}

// ClickOption 处理快捷选项
func (s *Session) ClickOption(ctx context.Context, key string) error {
	option, ok := findOption(key)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownOption, key)
	}

	s.mu.Lock()
	user := s.stampLocked(models.NewText(models.RoleUser, option.Text))
	var reply models.Message
	switch option.Key {
	case OptionGift:
		reply = models.NewText(models.RoleAssistant, option.Response)
		s.searchPending = true
	case OptionOrder:
		if s.isLoggedIn {
			reply = models.NewOrderSummary(OrderSummaryText, models.NewOrderSummaryPayload(s.orders))
		} else {
			reply = models.NewPrompt(models.KindLoginPrompt, LoginPromptText)
			s.showLoginModal = true
		}
	case OptionAbout:
		reply = models.NewPrompt(models.KindAbout, AboutText)
	}
	s.appendLocked(user, s.stampLocked(reply))
	s.showOptions = false
	s.mu.Unlock()

	s.commit(ctx)
	return nil
}

// Login 模拟登录，登录后展示最近的订单
func (s *Session) Login(ctx context.Context) {
	s.mu.Lock()
	s.isLoggedIn = true
	s.showLoginModal = false
	summary := models.NewOrderSummary(LoginSuccessText, models.NewOrderSummaryPayload(s.orders))
	s.appendLocked(s.stampLocked(summary))
	s.mu.Unlock()

	s.commit(ctx)
}

// CloseLoginModal 关闭登录弹窗
func (s *Session) CloseLoginModal() {
	s.mu.Lock()
	s.showLoginModal = false
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.publish(snap)
}

// LoadMore 商品或订单消息多显示一页，返回新的显示数量
func (s *Session) LoadMore(ctx context.Context, msgID uint64) (int, error) {
	s.mu.Lock()
	idx := s.indexLocked(msgID)
	if idx < 0 {
		s.mu.Unlock()
		return 0, fmt.Errorf("%w: %d", ErrMessageNotFound, msgID)
	}

	m := s.messages[idx].Clone()
	var count int
	switch {
	case m.Kind == models.KindProductSearch && m.ProductData != nil:
		count = m.ProductData.LoadMore()
	case m.Kind == models.KindOrderSummary && m.OrderData != nil:
		count = m.OrderData.LoadMore(s.orders)
	default:
		s.mu.Unlock()
		return 0, fmt.Errorf("%w: %d", ErrNotPaginated, msgID)
	}
	s.replaceLocked(idx, m)
	s.mu.Unlock()

	s.commit(ctx)
	return count, nil
}

// BackToMenu 回到主选单，只保留欢迎语
func (s *Session) BackToMenu(ctx context.Context) {
	s.mu.Lock()
	s.resetLocked()
	s.mu.Unlock()

	s.commit(ctx)
}

// SearchPrompt 提示用户输入搜索关键字
func (s *Session) SearchPrompt(ctx context.Context) {
	s.mu.Lock()
	s.appendLocked(s.stampLocked(models.NewPrompt(models.KindSearchPrompt, SearchPromptText)))
	s.searchPending = true
	s.showOptions = false
	s.mu.Unlock()

	s.commit(ctx)
}

// ClickProduct 点击商品卡片
func (s *Session) ClickProduct(ctx context.Context, msgID uint64, productID string) error {
	s.mu.Lock()
	idx := s.indexLocked(msgID)
	if idx < 0 || s.messages[idx].ProductData == nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrMessageNotFound, msgID)
	}

	var product *models.ProductRecord
	for i, p := range s.messages[idx].ProductData.TotalProducts {
		if p.ID == productID {
			product = &s.messages[idx].ProductData.TotalProducts[i]
			break
		}
	}
	if product == nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrProductNotFound, productID)
	}

	content := fmt.Sprintf(productClickTemplate, product.Name, product.Price)
	s.appendLocked(s.stampLocked(models.NewText(models.RoleAssistant, content)))
	s.mu.Unlock()

	s.commit(ctx)
	return nil
}

// Save 立即保存对话记录
func (s *Session) Save(ctx context.Context) error {
	if s.store == nil {
		return nil
	}

	s.mu.Lock()
	messages := s.messages
	s.mu.Unlock()

	ctx, cancel := s.saveContext(ctx)
	defer cancel()

	err := s.store.Save(ctx, s.historyKey, history.CleanForSave(messages))
	s.metrics.ObserveHistory("save", err)

	s.mu.Lock()
	if err != nil {
		s.saveError = SaveFailedText
	} else {
		s.saveError = ""
	}
	s.mu.Unlock()

	if err != nil {
		logger.Module("session").Error().Err(err).
			Str("session_id", s.id).
			Str("history_path", s.historyPath).
			Msg("保存对话记录失败")
		return fmt.Errorf("保存对话记录失败: %w", err)
	}
	return nil
}

// Snapshot 返回当前状态
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Messages 返回当前消息列表
func (s *Session) Messages() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.messages
}

// LastActivity 最近一次操作的时间
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// Busy 是否有请求正在进行
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// commit 推送最新状态并保存对话记录，保存失败只记录不中断对话
func (s *Session) commit(ctx context.Context) {
	_ = s.Save(ctx)
	s.publish(s.Snapshot())
}

// saveContext 请求结束后也要完成保存
func (s *Session) saveContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = context.WithoutCancel(ctx)
	if s.saveTimeout > 0 {
		return context.WithTimeout(ctx, s.saveTimeout)
	}
	return context.WithCancel(ctx)
}

func (s *Session) publish(snap Snapshot) {
	if s.notify != nil {
		s.notify(snap)
	}
}

func (s *Session) resetLocked() {
	s.messages = nil
	s.appendLocked(s.stampLocked(models.NewText(models.RoleAssistant, WelcomeText)))
	s.showOptions = true
	s.searchPending = false
}

func (s *Session) stampLocked(m models.Message) models.Message {
	m.ID = s.nextID
	s.nextID++
	m.Time = s.now().Format("15:04")
	return m
}

func (s *Session) appendLocked(msgs ...models.Message) {
	s.messages = slices.Concat(s.messages, msgs)
	s.lastActivity = s.now()
}

func (s *Session) replaceLocked(idx int, m models.Message) {
	next := slices.Clone(s.messages)
	next[idx] = m
	s.messages = next
	s.lastActivity = s.now()
}

func (s *Session) indexLocked(id uint64) int {
	return slices.IndexFunc(s.messages, func(m models.Message) bool { return m.ID == id })
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		ID:             s.id,
		VisitorID:      s.visitorID,
		HistoryPath:    s.historyPath,
		Messages:       s.messages,
		ShowOptions:    s.showOptions,
		IsLoggedIn:     s.isLoggedIn,
		ShowLoginModal: s.showLoginModal,
		Loading:        s.loading,
		SaveError:      s.saveError,
	}
	if snap.ShowOptions {
		snap.Options = Options()
	}
	return snap
}

// chatTurns 转换为发送给对话端点的历史，不含加载中和错误提示
func chatTurns(messages []models.Message) []models.ChatTurn {
	turns := make([]models.ChatTurn, 0, len(messages))
	for _, m := range messages {
		if m.Kind == models.KindLoading || m.Kind == models.KindError {
			continue
		}
		turns = append(turns, m.Turn())
	}
	return turns
}
