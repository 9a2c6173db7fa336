package services

import (
	"context"
	"encoding/json"
	"sync"

	"chat_widget_mini/internal/logger"
)

// 推送给 WebSocket 客户端的帧类型
const (
	FrameSnapshot = "snapshot"
	FrameError    = "error"
)

// Frame 服务端推送的消息帧
type Frame struct {
	Type    string    `json:"type"`
	Data    *Snapshot `json:"data,omitempty"`
	Message string    `json:"message,omitempty"`
}

// HubClient 订阅某个会话的连接
type HubClient struct {
	SessionID string
	Send      chan []byte
}

// NewHubClient 创建订阅者，buffer 为发送队列长度
func NewHubClient(sessionID string, buffer int) *HubClient {
	if buffer <= 0 {
		buffer = 16
	}
	return &HubClient{SessionID: sessionID, Send: make(chan []byte, buffer)}
}

type hubMessage struct {
	sessionID string
	data      []byte
}

// Hub 按会话把状态变化推送给所有订阅的连接
type Hub struct {
	clients    map[string]map[*HubClient]struct{}
	publish    chan hubMessage
	register   chan *HubClient
	unregister chan *HubClient
	done       chan struct{}
	mu         sync.RWMutex
}

// NewHub 创建推送中心
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*HubClient]struct{}),
		publish:    make(chan hubMessage, 256),
		register:   make(chan *HubClient),
		unregister: make(chan *HubClient),
		done:       make(chan struct{}),
	}
}

// Run 处理订阅和推送，直到 ctx 结束
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			set, ok := h.clients[client.SessionID]
			if !ok {
				set = make(map[*HubClient]struct{})
				h.clients[client.SessionID] = set
			}
			set[client] = struct{}{}
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			h.removeLocked(client)
			h.mu.Unlock()

		case msg := <-h.publish:
			h.mu.Lock()
			for client := range h.clients[msg.sessionID] {
				select {
				case client.Send <- msg.data:
				default:
					// 发送队列满，断开慢连接
					logger.Module("ws").Warn().Str("session_id", client.SessionID).Msg("发送队列已满，断开连接")
					h.removeLocked(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Register 订阅会话
func (h *Hub) Register(client *HubClient) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

// Unregister 取消订阅
func (h *Hub) Unregister(client *HubClient) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Publish 推送原始数据，队列满时丢弃
func (h *Hub) Publish(sessionID string, data []byte) {
	select {
	case h.publish <- hubMessage{sessionID: sessionID, data: data}:
	default:
		logger.Module("ws").Warn().Str("session_id", sessionID).Msg("推送队列已满，丢弃消息")
	}
}

// PublishSnapshot 推送会话快照，可直接作为 Manager.OnChange 的回调
func (h *Hub) PublishSnapshot(snap Snapshot) {
	data, err := json.Marshal(Frame{Type: FrameSnapshot, Data: &snap})
	if err != nil {
		logger.Module("ws").Error().Err(err).Msg("序列化会话快照失败")
		return
	}
	h.Publish(snap.ID, data)
}

// ClientCount 订阅某个会话的连接数
func (h *Hub) ClientCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sessionID])
}

func (h *Hub) removeLocked(client *HubClient) {
	set, ok := h.clients[client.SessionID]
	if !ok {
		return
	}
	if _, ok := set[client]; !ok {
		return
	}
	delete(set, client)
	close(client.Send)
	if len(set) == 0 {
		delete(h.clients, client.SessionID)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, set := range h.clients {
		for client := range set {
			close(client.Send)
		}
	}
	h.clients = make(map[string]map[*HubClient]struct{})
}
