// Package flowise 对话端点客户端
package flowise

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"chat_widget_mini/internal/logger"
	"chat_widget_mini/internal/models"
	"chat_widget_mini/internal/stream"
)

// 错误正文最多读取的字节数
const maxErrorBody = 4096

// Config 对话端点客户端配置
type Config struct {
	Host         string        // 主端点基础地址（不含 /chat）
	FallbackHost string        // 主端点连接失败时使用的备用地址，可为空
	Timeout      time.Duration // 请求超时，0 表示不限制
}

// ChatRequest 对话请求
type ChatRequest struct {
	UserQuery   string            `json:"user_query"`   // 用户输入
	ChatHistory []models.ChatTurn `json:"chat_history"` // 之前的对话记录
}

// Client 对话端点客户端
type Client struct {
	config Config
	client *http.Client
}

// NewClient 创建新的对话端点客户端
func NewClient(config Config) *Client {
	return &Client{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
	}
}

// Chat 发送对话请求并返回拼接好的完整回复
func (c *Client) Chat(ctx context.Context, req ChatRequest) (string, error) {
	var b strings.Builder
	err := c.ChatStream(ctx, req, func(chunk string) error {
		b.WriteString(chunk)
		return nil
	})
	if err != nil {
		return "", err
	}
	return stream.Finish(b.String()), nil
}

// ChatStream 发送对话请求，逐个回调事件中的文本
func (c *Client) ChatStream(ctx context.Context, req ChatRequest, callback func(string) error) error {
	if req.ChatHistory == nil {
		req.ChatHistory = []models.ChatTurn{}
	}
	jsonData, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("序列化请求失败: %w", err)
	}

	resp, err := c.post(ctx, c.config.Host, jsonData)
	if err != nil {
		var transportErr *TransportError
		fallback := c.config.FallbackHost
		if !errors.As(err, &transportErr) || fallback == "" || fallback == c.config.Host || ctx.Err() != nil {
			return err
		}

		logger.Module("flowise").Warn().Err(err).Str("fallback", fallback).Msg("主端点请求失败，改用备用端点")
		resp, err = c.post(ctx, fallback, jsonData)
		if err != nil {
			return err
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		text := string(body)
		if readErr != nil {
			text = "無法讀取錯誤詳情"
		}
		return &APIError{
			StatusCode: resp.StatusCode,
			Status:     http.StatusText(resp.StatusCode),
			Body:       text,
		}
	}

	if err := stream.Each(ctx, resp.Body, callback); err != nil {
		if ctx.Err() != nil {
			return err
		}
		return &TransportError{URL: resp.Request.URL.String(), Err: err}
	}
	return nil
}

// Ping 发送一条测试消息，检查对话端点是否可用
func (c *Client) Ping(ctx context.Context) error {
	jsonData, err := json.Marshal(ChatRequest{UserQuery: "測試連接", ChatHistory: []models.ChatTurn{}})
	if err != nil {
		return fmt.Errorf("序列化请求失败: %w", err)
	}

	resp, err := c.post(ctx, c.config.Host, jsonData)
	if err != nil && c.config.FallbackHost != "" {
		resp, err = c.post(ctx, c.config.FallbackHost, jsonData)
	}
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Status: http.StatusText(resp.StatusCode)}
	}
	return nil
}

// ChatURL 返回基础地址对应的对话接口地址
func ChatURL(host string) string {
	return strings.TrimRight(host, "/") + "/chat"
}

func (c *Client) post(ctx context.Context, host string, body []byte) (*http.Response, error) {
	url := ChatURL(host)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &TransportError{URL: url, Err: err}
	}
	return resp, nil
}
