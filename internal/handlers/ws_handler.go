package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"chat_widget_mini/internal/config"
	"chat_widget_mini/internal/logger"
	"chat_widget_mini/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// 客户端发来的帧类型
const (
	actionSend         = "send"
	actionOption       = "option"
	actionMore         = "more"
	actionLogin        = "login"
	actionCloseLogin   = "close_login"
	actionMenu         = "menu"
	actionSearchPrompt = "search_prompt"
	actionClick        = "click"
	actionSave         = "save"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 64 * 1024
)

// clientFrame 客户端发来的帧
type clientFrame struct {
	Type      string `json:"type"`
	Text      string `json:"text,omitempty"`
	Key       string `json:"key,omitempty"`
	MessageID uint64 `json:"messageId,omitempty"`
	ProductID string `json:"productId,omitempty"`
}

// WSHandler 聊天 WebSocket 处理器
type WSHandler struct {
	manager    *services.Manager
	hub        *services.Hub
	upgrader   websocket.Upgrader
	pingPeriod time.Duration
	pongWait   time.Duration
}

// NewWSHandler 创建 WebSocket 处理器
func NewWSHandler(manager *services.Manager, hub *services.Hub, cfg config.WebSocketConfig) *WSHandler {
	if cfg.PingPeriod <= 0 {
		cfg.PingPeriod = 30 * time.Second
	}
	if cfg.PongWait <= cfg.PingPeriod {
		cfg.PongWait = 2 * cfg.PingPeriod
	}
	return &WSHandler{
		manager: manager,
		hub:     hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		pingPeriod: cfg.PingPeriod,
		pongWait:   cfg.PongWait,
	}
}

// wsConn 一个 WebSocket 连接
type wsConn struct {
	conn    *websocket.Conn
	client  *services.HubClient
	session *services.Session
	direct  chan []byte // 只发给当前连接的帧
}

// HandleWebSocket 处理 /ws/chat 连接，session_id 不存在时为 visitor_id 新建会话
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	session := h.manager.GetOrCreate(c.Request.Context(),
		c.Query("session_id"), c.Query("history-path"), c.Query("visitor_id"))

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Module("ws").Error().Err(err).Msg("升级WebSocket连接失败")
		return
	}

	wc := &wsConn{
		conn:    conn,
		client:  services.NewHubClient(session.ID(), 16),
		session: session,
		direct:  make(chan []byte, 8),
	}
	h.hub.Register(wc.client)
	logger.Module("ws").Info().Str("session_id", session.ID()).Msg("WebSocket连接建立")

	// 连接后先推送一次当前状态
	h.hub.PublishSnapshot(session.Snapshot())

	go h.writePump(wc)
	h.readPump(wc)
}

// readPump 读取客户端帧，直到连接关闭
func (h *WSHandler) readPump(wc *wsConn) {
	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		h.hub.Unregister(wc.client)
		wc.conn.Close()
		logger.Module("ws").Info().Str("session_id", wc.session.ID()).Msg("WebSocket连接关闭")
	}()

	wc.conn.SetReadLimit(maxMessageSize)
	_ = wc.conn.SetReadDeadline(time.Now().Add(h.pongWait))
	wc.conn.SetPongHandler(func(string) error {
		return wc.conn.SetReadDeadline(time.Now().Add(h.pongWait))
	})

	for {
		_, data, err := wc.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Module("ws").Warn().Err(err).Msg("读取消息错误")
			}
			return
		}

		var frame clientFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			wc.sendError("無法解析的訊息")
			continue
		}

		if frame.Type == actionSend {
			// 等待回复期间仍要处理心跳和其他帧
			go func() {
				if _, err := wc.session.Send(ctx, frame.Text); err != nil {
					_, message := statusFor(err)
					wc.sendError(message)
				}
			}()
			continue
		}
		if err := h.dispatch(ctx, wc.session, frame); err != nil {
			_, message := statusFor(err)
			wc.sendError(message)
		}
	}
}

// dispatch 处理除发送消息以外的操作，状态变化由 Hub 推送
func (h *WSHandler) dispatch(ctx context.Context, s *services.Session, frame clientFrame) error {
	switch frame.Type {
	case actionOption:
		return s.ClickOption(ctx, frame.Key)
	case actionMore:
		_, err := s.LoadMore(ctx, frame.MessageID)
		return err
	case actionLogin:
		s.Login(ctx)
	case actionCloseLogin:
		s.CloseLoginModal()
	case actionMenu:
		s.BackToMenu(ctx)
	case actionSearchPrompt:
		s.SearchPrompt(ctx)
	case actionClick:
		return s.ClickProduct(ctx, frame.MessageID, frame.ProductID)
	case actionSave:
		return s.Save(ctx)
	default:
		return errUnknownFrame
	}
	return nil
}

// writePump 把推送写到连接上，并定期发送 ping
func (h *WSHandler) writePump(wc *wsConn) {
	ticker := time.NewTicker(h.pingPeriod)
	defer func() {
		ticker.Stop()
		wc.conn.Close()
	}()

	for {
		select {
		case data, ok := <-wc.client.Send:
			_ = wc.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = wc.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := wc.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case data := <-wc.direct:
			_ = wc.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wc.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = wc.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wc.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (wc *wsConn) sendError(message string) {
	data, err := json.Marshal(services.Frame{Type: services.FrameError, Message: message})
	if err != nil {
		return
	}
	select {
	case wc.direct <- data:
	default:
	}
}
