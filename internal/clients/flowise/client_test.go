package flowise

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"chat_widget_mini/internal/models"
	"chat_widget_mini/internal/stream"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newChatServer 创建按事件流返回给定文本的测试服务器
func newChatServer(t *testing.T, hits *int32, events ...string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}
		if r.Method != http.MethodPost || r.URL.Path != "/chat" {
			t.Errorf("无效的请求: %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, e := range events {
			stream.WriteEvent(w, e)
		}
		stream.WriteDone(w)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestClient_Chat(t *testing.T) {
	var got ChatRequest
	var rawBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))

		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		rawBody = string(body)
		assert.NoError(t, json.Unmarshal(body, &got))

		stream.WriteEvent(w, "你好，")
		stream.WriteEvent(w, "我是 Inky")
		stream.WriteDone(w)
	}))
	defer server.Close()

	client := NewClient(Config{Host: server.URL + "/"})

	tests := []struct {
		name        string
		req         ChatRequest
		wantHistory string
	}{
		{
			name:        "空对话记录编码为空数组",
			req:         ChatRequest{UserQuery: "哈囉"},
			wantHistory: `"chat_history":[]`,
		},
		{
			name: "携带对话记录",
			req: ChatRequest{
				UserQuery:   "推薦贈品",
				ChatHistory: []models.ChatTurn{{Role: models.RoleAssistant, Content: "歡迎"}},
			},
			wantHistory: `"chat_history":[{"role":"assistant","content":"歡迎"}]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply, err := client.Chat(context.Background(), tt.req)
			require.NoError(t, err)
			assert.Equal(t, "你好，我是 Inky", reply)
			assert.Equal(t, tt.req.UserQuery, got.UserQuery)
			assert.Contains(t, rawBody, tt.wantHistory)
		})
	}
}

func TestClient_APIError(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "端点不存在", status: http.StatusNotFound, body: "not found"},
		{name: "服务器错误", status: http.StatusInternalServerError, body: "boom"},
		{name: "访问被拒绝", status: http.StatusForbidden, body: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var fallbackHits int32
			fallback := newChatServer(t, &fallbackHits, "不應該用到")
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer server.Close()

			client := NewClient(Config{Host: server.URL, FallbackHost: fallback.URL})
			_, err := client.Chat(context.Background(), ChatRequest{UserQuery: "你好"})
			require.Error(t, err)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.body, apiErr.Body)
			assert.Contains(t, err.Error(), http.StatusText(tt.status))
			// 非 2xx 不切换备用端点
			assert.Equal(t, int32(0), atomic.LoadInt32(&fallbackHits))
		})
	}
}

func TestClient_Fallback(t *testing.T) {
	dead := httptest.NewServer(http.NotFoundHandler())
	deadURL := dead.URL
	dead.Close()

	var hits int32
	fallback := newChatServer(t, &hits, "備用端點回覆")

	client := NewClient(Config{Host: deadURL, FallbackHost: fallback.URL})
	reply, err := client.Chat(context.Background(), ChatRequest{UserQuery: "你好"})
	require.NoError(t, err)
	assert.Equal(t, "備用端點回覆", reply)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestClient_TransportError(t *testing.T) {
	dead := httptest.NewServer(http.NotFoundHandler())
	deadURL := dead.URL
	dead.Close()

	client := NewClient(Config{Host: deadURL})
	_, err := client.Chat(context.Background(), ChatRequest{UserQuery: "你好"})
	require.Error(t, err)

	var transportErr *TransportError
	assert.True(t, errors.As(err, &transportErr))
}

func TestClient_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	client := NewClient(Config{Host: server.URL, FallbackHost: server.URL + "/other"})
	_, err := client.Chat(ctx, ChatRequest{UserQuery: "你好"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_Ping(t *testing.T) {
	ok := newChatServer(t, nil, "pong")
	assert.NoError(t, NewClient(Config{Host: ok.URL}).Ping(context.Background()))

	unavailable := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer unavailable.Close()

	err := NewClient(Config{Host: unavailable.URL}).Ping(context.Background())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
}

func TestChatURL(t *testing.T) {
	assert.Equal(t, "http://example.com/flowise/abc/chat", ChatURL("http://example.com/flowise/abc/"))
	assert.Equal(t, "http://example.com/chat", ChatURL("http://example.com"))
}
