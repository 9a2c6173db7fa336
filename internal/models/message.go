package models

import "fmt"

// 消息角色
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// MessageKind 消息类型，决定前端使用哪种渲染方式
type MessageKind string

// 消息类型常量
const (
	KindText          MessageKind = "text"
	KindLoading       MessageKind = "loading"
	KindProductSearch MessageKind = "product_search"
	KindOrderSummary  MessageKind = "order_summary"
	KindNoResults     MessageKind = "no_results"
	KindSearchPrompt  MessageKind = "search_prompt"
	KindLoginPrompt   MessageKind = "login_prompt"
	KindAbout         MessageKind = "about"
	KindError         MessageKind = "error"
)

// Message 对话消息
//
// 每条消息只有一种 Kind，且只携带该类型对应的负载：
// product_search 对应 ProductData，order_summary 对应 OrderData，
// no_results 对应 SearchKeyword。Content 始终存在。
type Message struct {
	ID            uint64                `json:"id"`
	Role          string                `json:"role"`
	Kind          MessageKind           `json:"kind"`
	Content       string                `json:"content"`
	Time          string                `json:"time,omitempty"`
	ProductData   *ProductSearchPayload `json:"productData,omitempty"`
	OrderData     *OrderSummaryPayload  `json:"orderData,omitempty"`
	SearchKeyword string                `json:"searchKeyword,omitempty"`
}

// ChatTurn 发送给对话端点的历史消息
type ChatTurn struct {
	Role    string `json:"role"`    // 消息角色：user/assistant
	Content string `json:"content"` // 消息内容
}

// NewText 创建纯文本消息
func NewText(role, content string) Message {
	return Message{Role: role, Kind: KindText, Content: content}
}

// NewLoading 创建占位的加载中消息
func NewLoading(content string) Message {
	return Message{Role: RoleAssistant, Kind: KindLoading, Content: content}
}

// NewError 创建错误提示消息
func NewError(content string) Message {
	return Message{Role: RoleAssistant, Kind: KindError, Content: content}
}

// NewProductSearch 创建商品搜索结果消息
func NewProductSearch(content string, payload *ProductSearchPayload) Message {
	return Message{Role: RoleAssistant, Kind: KindProductSearch, Content: content, ProductData: payload}
}

// NewOrderSummary 创建订单摘要消息
func NewOrderSummary(content string, payload *OrderSummaryPayload) Message {
	return Message{Role: RoleAssistant, Kind: KindOrderSummary, Content: content, OrderData: payload}
}

// NewNoResults 创建无搜索结果消息
func NewNoResults(content, keyword string) Message {
	return Message{Role: RoleAssistant, Kind: KindNoResults, Content: content, SearchKeyword: keyword}
}

// NewPrompt 创建搜索提示、登录提示或平台介绍这类无负载的助手消息
func NewPrompt(kind MessageKind, content string) Message {
	return Message{Role: RoleAssistant, Kind: kind, Content: content}
}

// Turn 转换为对话端点使用的历史格式
func (m Message) Turn() ChatTurn {
	return ChatTurn{Role: m.Role, Content: m.Content}
}

// Clone 复制消息及其负载，修改副本不会影响原消息
func (m Message) Clone() Message {
	if m.ProductData != nil {
		p := *m.ProductData
		m.ProductData = &p
	}
	if m.OrderData != nil {
		o := *m.OrderData
		m.OrderData = &o
	}
	return m
}

// Validate 检查消息类型与负载是否一致
func (m Message) Validate() error {
	if m.Role != RoleUser && m.Role != RoleAssistant {
		return fmt.Errorf("无效的消息角色: %q", m.Role)
	}
	switch m.Kind {
	case KindProductSearch:
		if m.ProductData == nil || m.OrderData != nil || m.SearchKeyword != "" {
			return fmt.Errorf("商品搜索消息负载不一致: id=%d", m.ID)
		}
	case KindOrderSummary:
		if m.OrderData == nil || m.ProductData != nil || m.SearchKeyword != "" {
			return fmt.Errorf("订单摘要消息负载不一致: id=%d", m.ID)
		}
	case KindNoResults:
		if m.ProductData != nil || m.OrderData != nil {
			return fmt.Errorf("无结果消息不应携带负载: id=%d", m.ID)
		}
	case KindText, KindLoading, KindSearchPrompt, KindLoginPrompt, KindAbout, KindError:
		if m.ProductData != nil || m.OrderData != nil || m.SearchKeyword != "" {
			return fmt.Errorf("%s 消息不应携带负载: id=%d", m.Kind, m.ID)
		}
	default:
		return fmt.Errorf("未知的消息类型: %q", m.Kind)
	}
	return nil
}
