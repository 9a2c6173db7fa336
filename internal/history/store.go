// Package history 持久化对话记录
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"chat_widget_mini/internal/models"
)

// KeyPrefix 对话记录键的前缀
const KeyPrefix = "inkslap_chat_history_"

// 访客ID最长保留的字符数
const maxVisitorID = 64

var (
	dataMarkerPattern = regexp.MustCompile(`data:\s*`)
	visitorIDPattern  = regexp.MustCompile(`[^A-Za-z0-9_-]`)
)

// Store 对话记录存储
type Store interface {
	// Load 读取对话记录，不存在时返回空列表
	Load(ctx context.Context, key string) ([]models.Message, error)
	// Save 整体替换对话记录
	Save(ctx context.Context, key string, messages []models.Message) error
	// Close 释放连接
	Close() error
}

// SanitizeKey 将 history-path 转为存储键，非字母数字的字符替换为 "_"
func SanitizeKey(path string) string {
	var b strings.Builder
	b.WriteString(KeyPrefix)
	for _, r := range path {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// CleanVisitorID 只保留字母、数字、"-" 和 "_"，过长时截断
func CleanVisitorID(id string) string {
	id = visitorIDPattern.ReplaceAllString(id, "")
	if len(id) > maxVisitorID {
		id = id[:maxVisitorID]
	}
	return id
}

// VisitorKey 在 history-path 后附加访客ID，同一路径下每个访客的记录分开保存
func VisitorKey(path, visitorID string) string {
	visitorID = CleanVisitorID(visitorID)
	if visitorID == "" {
		return path
	}
	if base, ok := strings.CutSuffix(path, ".json"); ok {
		return base + "_" + visitorID + ".json"
	}
	return path + "_" + visitorID
}

// CleanForSave 丢弃加载中的占位消息，并去掉助手回复中残留的 data: 标记
func CleanForSave(messages []models.Message) []models.Message {
	cleaned := make([]models.Message, 0, len(messages))
	for _, m := range messages {
		if m.Kind == models.KindLoading {
			continue
		}
		m = m.Clone()
		if m.Role == models.RoleAssistant {
			m.Content = strings.TrimSpace(dataMarkerPattern.ReplaceAllString(m.Content, ""))
		}
		cleaned = append(cleaned, m)
	}
	return cleaned
}

// encode 序列化对话记录
func encode(messages []models.Message) ([]byte, error) {
	if messages == nil {
		messages = []models.Message{}
	}
	data, err := json.Marshal(messages)
	if err != nil {
		return nil, fmt.Errorf("序列化对话记录失败: %w", err)
	}
	return data, nil
}

// storedMessage 兼容网页版组件保存的格式，消息类型用布尔标记表示
type storedMessage struct {
	models.Message

	IsLoading       bool `json:"isLoading"`
	IsProductSearch bool `json:"isProductSearch"`
	IsOrderSummary  bool `json:"isOrderSummary"`
	IsNoResults     bool `json:"isNoResults"`
	IsSearchPrompt  bool `json:"isSearchPrompt"`
	IsLoginPrompt   bool `json:"isLoginPrompt"`
	IsAboutInkslap  bool `json:"isAboutInkslap"`
	IsError         bool `json:"isError"`
}

// kind 没有 kind 字段时按布尔标记推断
func (m storedMessage) kind() models.MessageKind {
	switch {
	case m.Kind != "":
		return m.Kind
	case m.IsLoading:
		return models.KindLoading
	case m.IsProductSearch:
		return models.KindProductSearch
	case m.IsOrderSummary:
		return models.KindOrderSummary
	case m.IsNoResults:
		return models.KindNoResults
	case m.IsSearchPrompt:
		return models.KindSearchPrompt
	case m.IsLoginPrompt:
		return models.KindLoginPrompt
	case m.IsAboutInkslap:
		return models.KindAbout
	case m.IsError:
		return models.KindError
	default:
		return models.KindText
	}
}

// Decode 反序列化对话记录，兼容只有 role/content 或使用布尔标记的旧格式
func Decode(data []byte) ([]models.Message, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return []models.Message{}, nil
	}
	var stored []storedMessage
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("解析对话记录失败: %w", err)
	}
	messages := make([]models.Message, 0, len(stored))
	for _, sm := range stored {
		m := sm.Message
		m.Kind = sm.kind()
		messages = append(messages, m)
	}
	return normalize(messages), nil
}

// normalize 丢弃加载中的占位消息，并去掉与类型不符的负载
//
// 负载不足以构成该类型时退化为文本消息，保证每条消息都能通过 Validate。
func normalize(messages []models.Message) []models.Message {
	cleaned := make([]models.Message, 0, len(messages))
	for _, m := range messages {
		if m.Kind == "" {
			m.Kind = models.KindText
		}
		if m.Kind == models.KindLoading {
			continue
		}
		m = fitPayload(m)
		if m.Validate() != nil {
			continue
		}
		cleaned = append(cleaned, m)
	}
	return cleaned
}

func fitPayload(m models.Message) models.Message {
	if m.Kind == models.KindProductSearch && m.ProductData == nil ||
		m.Kind == models.KindOrderSummary && m.OrderData == nil {
		m.Kind = models.KindText
	}
	product, order, keyword := m.ProductData, m.OrderData, m.SearchKeyword
	m.ProductData, m.OrderData, m.SearchKeyword = nil, nil, ""
	switch m.Kind {
	case models.KindProductSearch:
		m.ProductData = product
	case models.KindOrderSummary:
		m.OrderData = order
	case models.KindNoResults:
		m.SearchKeyword = keyword
	}
	return m
}
