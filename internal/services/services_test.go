package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"chat_widget_mini/internal/clients/flowise"
	"chat_widget_mini/internal/history"
	"chat_widget_mini/internal/metrics"
	"chat_widget_mini/internal/models"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient 记录请求并返回预设的回复
type fakeClient struct {
	mu       sync.Mutex
	reply    string
	err      error
	requests []flowise.ChatRequest
	block    chan struct{}
	started  chan struct{}
}

func (f *fakeClient) Chat(ctx context.Context, req flowise.ChatRequest) (string, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	block, started := f.block, f.started
	f.mu.Unlock()

	if started != nil {
		close(started)
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.reply, f.err
}

func (f *fakeClient) lastRequest() flowise.ChatRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

// failingStore 保存总是失败
type failingStore struct{}

func (failingStore) Load(context.Context, string) ([]models.Message, error) {
	return nil, errors.New("磁盘不可用")
}

func (failingStore) Save(context.Context, string, []models.Message) error {
	return errors.New("磁盘不可用")
}

func (failingStore) Close() error { return nil }

func newTestManager(t *testing.T, client ChatClient, store history.Store) (*Manager, *metrics.Metrics) {
	t.Helper()
	m := metrics.New()
	return NewManager(ManagerOptions{
		Client:  client,
		Store:   store,
		Metrics: m,
		Now:     func() time.Time { return time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC) },
	}), m
}

func productListReply(n int) string {
	var b strings.Builder
	b.WriteString("以下是為您推薦的商品：<ul>")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "<li><strong>帆布包%d</strong><br>單價：NT$%d<br>材質：帆布</li>", i, 100+i)
	}
	b.WriteString("</ul>")
	return b.String()
}

func lastMessage(s *Session) models.Message {
	msgs := s.Messages()
	return msgs[len(msgs)-1]
}

func TestSessionWelcome(t *testing.T) {
	mgr, _ := newTestManager(t, &fakeClient{}, nil)
	s := mgr.Create(context.Background(), "")

	snap := s.Snapshot()
	require.Len(t, snap.Messages, 1)
	assert.Equal(t, WelcomeText, snap.Messages[0].Content)
	assert.Equal(t, models.KindText, snap.Messages[0].Kind)
	assert.Equal(t, "09:30", snap.Messages[0].Time)
	assert.True(t, snap.ShowOptions)
	assert.Len(t, snap.Options, 3)
	assert.Equal(t, models.DefaultHistoryPath, snap.HistoryPath)
}

func TestSessionSendProducts(t *testing.T) {
	client := &fakeClient{reply: productListReply(5)}
	mgr, m := newTestManager(t, client, nil)
	s := mgr.Create(context.Background(), "")

	final, err := s.Send(context.Background(), "  我想找帆布包  ")
	require.NoError(t, err)

	assert.Equal(t, models.KindProductSearch, final.Kind)
	require.NotNil(t, final.ProductData)
	assert.Len(t, final.ProductData.TotalProducts, 5)
	assert.Equal(t, 3, final.ProductData.DisplayedCount)
	assert.Equal(t, "我想找帆布包", final.ProductData.SearchKeyword)
	for _, p := range final.ProductData.TotalProducts {
		assert.True(t, strings.HasPrefix(p.ID, "product_"), p.ID)
	}

	// 当前的用户消息不在历史中
	req := client.lastRequest()
	assert.Equal(t, "我想找帆布包", req.UserQuery)
	require.Len(t, req.ChatHistory, 1)
	assert.Equal(t, WelcomeText, req.ChatHistory[0].Content)

	snap := s.Snapshot()
	assert.False(t, snap.Loading)
	assert.False(t, snap.ShowOptions)
	require.Len(t, snap.Messages, 3)
	assert.Equal(t, models.RoleUser, snap.Messages[1].Role)
	for _, msg := range snap.Messages {
		assert.NotEqual(t, models.KindLoading, msg.Kind)
		assert.NoError(t, msg.Validate())
	}

	count, err := testutil.GatherAndCount(m.Registry(), "chat_widget_chat_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSessionSendErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "接口返回404", err: &flowise.APIError{StatusCode: 404, Status: "Not Found"}, want: "服務器錯誤：API 端點不存在，請檢查 API 地址是否正確。請稍後再試或聯繫技術支援。"},
		{name: "网络错误", err: &flowise.TransportError{URL: "http://x/chat", Err: errors.New("connection refused")}, want: networkErrorText},
		{name: "超时", err: fmt.Errorf("请求失败: %w", context.DeadlineExceeded), want: timeoutErrorText},
		{name: "其他错误", err: errors.New("boom"), want: genericErrorText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mgr, _ := newTestManager(t, &fakeClient{err: tt.err}, nil)
			s := mgr.Create(context.Background(), "")

			final, err := s.Send(context.Background(), "你好")
			require.NoError(t, err)
			assert.Equal(t, models.KindError, final.Kind)
			assert.Equal(t, tt.want, final.Content)

			msgs := s.Messages()
			require.Len(t, msgs, 3)
			assert.Equal(t, final, msgs[2])
			assert.False(t, s.Snapshot().Loading)
		})
	}
}

func TestSessionSendEmpty(t *testing.T) {
	mgr, _ := newTestManager(t, &fakeClient{}, nil)
	s := mgr.Create(context.Background(), "")

	_, err := s.Send(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyInput)
	assert.Len(t, s.Messages(), 1)
}

func TestSessionBusy(t *testing.T) {
	client := &fakeClient{
		reply:   "您好",
		block:   make(chan struct{}),
		started: make(chan struct{}),
	}
	mgr, _ := newTestManager(t, client, nil)
	s := mgr.Create(context.Background(), "")

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := s.Send(context.Background(), "第一則")
		assert.NoError(t, err)
	}()
	<-client.started

	snap := s.Snapshot()
	assert.True(t, snap.Loading)
	assert.Equal(t, models.KindLoading, snap.Messages[len(snap.Messages)-1].Kind)
	assert.Equal(t, LoadingText, snap.Messages[len(snap.Messages)-1].Content)

	_, err := s.Send(context.Background(), "第二則")
	assert.ErrorIs(t, err, ErrSessionBusy)

	close(client.block)
	<-done
	assert.False(t, s.Busy())
	assert.Equal(t, "您好", lastMessage(s).Content)
}

func TestSessionEscalation(t *testing.T) {
	tests := []struct {
		name         string
		query        string
		reply        string
		searchPrompt bool
		wantKind     models.MessageKind
	}{
		{name: "找不到时使用内置目录", query: "杯子", reply: "抱歉，找不到相關商品", wantKind: models.KindProductSearch},
		{name: "搜索提示后无结果", query: "火箭", reply: "抱歉，目前沒有符合的結果", searchPrompt: true, wantKind: models.KindNoResults},
		{name: "送礼查询无结果", query: "禮品火箭", reply: "抱歉，目前沒有符合的結果", wantKind: models.KindNoResults},
		{name: "普通问题按文本显示", query: "火箭", reply: "抱歉，目前沒有符合的結果", wantKind: models.KindText},
		{name: "普通回复", query: "你好", reply: "您好！<script>x()</script>有什麼可以幫您？", wantKind: models.KindText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mgr, _ := newTestManager(t, &fakeClient{reply: tt.reply}, nil)
			s := mgr.Create(context.Background(), "")
			if tt.searchPrompt {
				s.SearchPrompt(context.Background())
				assert.Equal(t, models.KindSearchPrompt, lastMessage(s).Kind)
			}

			final, err := s.Send(context.Background(), tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, final.Kind)
			assert.NoError(t, final.Validate())

			switch final.Kind {
			case models.KindNoResults:
				assert.Equal(t, tt.query, final.SearchKeyword)
				assert.Contains(t, final.Content, "「"+tt.query+"」")
			case models.KindProductSearch:
				assert.NotEmpty(t, final.ProductData.TotalProducts)
				assert.Equal(t, ProductResultText, final.Content)
			case models.KindText:
				assert.NotContains(t, final.Content, "<script>")
			}
		})
	}
}

func TestSessionEmptyReply(t *testing.T) {
	mgr, _ := newTestManager(t, &fakeClient{reply: "  "}, nil)
	s := mgr.Create(context.Background(), "")

	final, err := s.Send(context.Background(), "你好")
	require.NoError(t, err)
	assert.Equal(t, EmptyReplyText, final.Content)
}

func TestSessionOptions(t *testing.T) {
	ctx := context.Background()
	mgr, _ := newTestManager(t, &fakeClient{}, nil)
	s := mgr.Create(ctx, "")

	t.Run("寻找赠品", func(t *testing.T) {
		require.NoError(t, s.ClickOption(ctx, OptionGift))
		msgs := s.Messages()
		assert.Equal(t, "尋找贈品", msgs[len(msgs)-2].Content)
		assert.Equal(t, "請問您的送禮需求是什麼？（如送禮目的、數量、預算）", msgs[len(msgs)-1].Content)
		assert.False(t, s.Snapshot().ShowOptions)
	})

	t.Run("未登录查询订单", func(t *testing.T) {
		require.NoError(t, s.ClickOption(ctx, OptionOrder))
		assert.Equal(t, models.KindLoginPrompt, lastMessage(s).Kind)
		assert.True(t, s.Snapshot().ShowLoginModal)

		s.CloseLoginModal()
		assert.False(t, s.Snapshot().ShowLoginModal)
	})

	t.Run("登录", func(t *testing.T) {
		s.Login(ctx)
		last := lastMessage(s)
		assert.Equal(t, models.KindOrderSummary, last.Kind)
		assert.Equal(t, LoginSuccessText, last.Content)
		assert.Len(t, last.OrderData.Orders, 3)
		assert.True(t, last.OrderData.HasMore)
		assert.True(t, s.Snapshot().IsLoggedIn)
	})

	t.Run("已登录查询订单", func(t *testing.T) {
		require.NoError(t, s.ClickOption(ctx, OptionOrder))
		last := lastMessage(s)
		assert.Equal(t, models.KindOrderSummary, last.Kind)
		assert.Equal(t, OrderSummaryText, last.Content)
	})

	t.Run("平台介绍", func(t *testing.T) {
		require.NoError(t, s.ClickOption(ctx, OptionAbout))
		last := lastMessage(s)
		assert.Equal(t, models.KindAbout, last.Kind)
		assert.Contains(t, last.Content, "專業客製化禮贈品平台")
	})

	t.Run("未知选项", func(t *testing.T) {
		assert.ErrorIs(t, s.ClickOption(ctx, "refund"), ErrUnknownOption)
	})
}

func TestSessionLoadMore(t *testing.T) {
	ctx := context.Background()
	mgr, _ := newTestManager(t, &fakeClient{reply: productListReply(5)}, nil)
	s := mgr.Create(ctx, "")

	t.Run("商品", func(t *testing.T) {
		final, err := s.Send(ctx, "帆布包")
		require.NoError(t, err)
		before := s.Messages()

		count, err := s.LoadMore(ctx, final.ID)
		require.NoError(t, err)
		assert.Equal(t, 5, count)

		// 旧的消息列表不受影响
		assert.Equal(t, 3, before[len(before)-1].ProductData.DisplayedCount)
		assert.Equal(t, 5, lastMessage(s).ProductData.DisplayedCount)
		assert.False(t, lastMessage(s).ProductData.HasMore())
	})

	t.Run("订单", func(t *testing.T) {
		s.Login(ctx)
		id := lastMessage(s).ID

		for _, want := range []int{6, 9, 10, 10} {
			count, err := s.LoadMore(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, want, count)
		}
		last := lastMessage(s)
		assert.True(t, last.OrderData.AllLoaded)
		assert.False(t, last.OrderData.HasMore)
		assert.Len(t, last.OrderData.Orders, 10)
	})

	t.Run("不能分页的消息", func(t *testing.T) {
		_, err := s.LoadMore(ctx, s.Messages()[0].ID)
		assert.ErrorIs(t, err, ErrNotPaginated)
	})

	t.Run("消息不存在", func(t *testing.T) {
		_, err := s.LoadMore(ctx, 9999)
		assert.ErrorIs(t, err, ErrMessageNotFound)
	})
}

func TestSessionClickProduct(t *testing.T) {
	ctx := context.Background()
	mgr, _ := newTestManager(t, &fakeClient{reply: productListReply(2)}, nil)
	s := mgr.Create(ctx, "")

	final, err := s.Send(ctx, "帆布包")
	require.NoError(t, err)
	product := final.ProductData.TotalProducts[1]

	require.NoError(t, s.ClickProduct(ctx, final.ID, product.ID))
	assert.Equal(t, "您點擊了商品：帆布包1，價格：101元。商品詳情頁面開發中...", lastMessage(s).Content)

	assert.ErrorIs(t, s.ClickProduct(ctx, final.ID, "product_x"), ErrProductNotFound)
	assert.ErrorIs(t, s.ClickProduct(ctx, s.Messages()[0].ID, product.ID), ErrMessageNotFound)
}

func TestSessionBackToMenu(t *testing.T) {
	ctx := context.Background()
	mgr, _ := newTestManager(t, &fakeClient{reply: "您好"}, nil)
	s := mgr.Create(ctx, "")

	_, err := s.Send(ctx, "你好")
	require.NoError(t, err)
	s.SearchPrompt(ctx)

	s.BackToMenu(ctx)
	snap := s.Snapshot()
	require.Len(t, snap.Messages, 1)
	assert.Equal(t, WelcomeText, snap.Messages[0].Content)
	assert.True(t, snap.ShowOptions)
}

func TestSessionPersistence(t *testing.T) {
	ctx := context.Background()
	store, err := history.NewFileStore(t.TempDir())
	require.NoError(t, err)

	mgr, m := newTestManager(t, &fakeClient{reply: "data: 您好，這裡是 Inky"}, store)
	s := mgr.CreateForVisitor(ctx, "/history.json", "visitor-1")
	_, err = s.Send(ctx, "你好")
	require.NoError(t, err)
	assert.Empty(t, s.Snapshot().SaveError)

	restored := mgr.CreateForVisitor(ctx, "/history.json", "visitor-1")
	msgs := restored.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, WelcomeText, msgs[0].Content)
	assert.Equal(t, "你好", msgs[1].Content)
	assert.Equal(t, "您好，這裡是 Inky", msgs[2].Content)
	assert.False(t, restored.Snapshot().ShowOptions)

	// 重新编号后ID唯一
	seen := map[uint64]bool{}
	for _, msg := range msgs {
		assert.False(t, seen[msg.ID])
		seen[msg.ID] = true
	}

	count, err := testutil.GatherAndCount(m.Registry(), "chat_widget_history_operations_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count) // load/success 与 save/success
}

func TestSessionVisitorIsolation(t *testing.T) {
	ctx := context.Background()
	store, err := history.NewFileStore(t.TempDir())
	require.NoError(t, err)
	mgr, _ := newTestManager(t, &fakeClient{reply: "好的"}, store)

	a := mgr.Create(ctx, "")
	_, err = a.Send(ctx, "我的私人訂單問題 0912-345-678")
	require.NoError(t, err)
	require.Len(t, a.Messages(), 3)

	// 同一路径下的新会话看不到 a 的对话
	b := mgr.Create(ctx, "")
	assert.NotEqual(t, a.VisitorID(), b.VisitorID())
	require.Len(t, b.Messages(), 1)
	assert.Equal(t, WelcomeText, b.Messages()[0].Content)

	// b 回到主选单不会覆盖 a 的记录
	b.BackToMenu(ctx)
	again := mgr.CreateForVisitor(ctx, "", a.VisitorID())
	require.Len(t, again.Messages(), 3)
	assert.Equal(t, "我的私人訂單問題 0912-345-678", again.Messages()[1].Content)

	t.Run("非法字符被过滤", func(t *testing.T) {
		s := mgr.CreateForVisitor(ctx, "", "../../etc")
		assert.Equal(t, "etc", s.VisitorID())
		s = mgr.CreateForVisitor(ctx, "", "///")
		assert.Equal(t, s.ID(), s.VisitorID())
	})
}

func TestSessionRestoreSkipsInvalid(t *testing.T) {
	ctx := context.Background()
	store, err := history.NewFileStore(t.TempDir())
	require.NoError(t, err)

	bad := models.NewText(models.RoleAssistant, "壞掉的")
	bad.ProductData = models.NewProductSearchPayload(nil, "")
	require.NoError(t, store.Save(ctx, history.VisitorKey("/history.json", "v1"), []models.Message{
		models.NewText(models.RoleAssistant, WelcomeText),
		bad,
		{Role: "bot", Kind: models.KindText, Content: "未知角色"},
		models.NewText(models.RoleUser, "你好"),
	}))

	mgr, _ := newTestManager(t, &fakeClient{}, store)
	s := mgr.CreateForVisitor(ctx, "/history.json", "v1")
	msgs := s.Messages()
	require.Len(t, msgs, 3)
	for _, m := range msgs {
		assert.NoError(t, m.Validate())
	}
	assert.Nil(t, msgs[1].ProductData)
	assert.Equal(t, "你好", msgs[2].Content)
}

func TestSessionSaveFailure(t *testing.T) {
	ctx := context.Background()
	mgr, _ := newTestManager(t, &fakeClient{reply: "您好"}, failingStore{})

	s := mgr.Create(ctx, "")
	require.Len(t, s.Messages(), 1, "读取失败时显示欢迎语")

	final, err := s.Send(ctx, "你好")
	require.NoError(t, err)
	assert.Equal(t, "您好", final.Content)
	assert.Equal(t, SaveFailedText, s.Snapshot().SaveError)
	assert.Error(t, s.Save(ctx))
}

func TestManager(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	mgr := NewManager(ManagerOptions{
		Client:  &fakeClient{},
		IdleTTL: 10 * time.Minute,
		Now:     func() time.Time { return now },
	})

	old := mgr.Create(ctx, "")
	now = now.Add(8 * time.Minute)
	fresh := mgr.Create(ctx, "/other.json")
	assert.Equal(t, 2, mgr.Count())

	got, err := mgr.Get(fresh.ID())
	require.NoError(t, err)
	assert.Same(t, fresh, got)
	assert.Same(t, fresh, mgr.GetOrCreate(ctx, fresh.ID(), "", ""))

	now = now.Add(5 * time.Minute)
	assert.Equal(t, 1, mgr.Sweep())
	_, err = mgr.Get(old.ID())
	assert.ErrorIs(t, err, ErrSessionNotFound)

	assert.True(t, mgr.Remove(fresh.ID()))
	assert.False(t, mgr.Remove(fresh.ID()))
	assert.Equal(t, 0, mgr.Count())
}

func TestManagerRunStops(t *testing.T) {
	mgr := NewManager(ManagerOptions{Client: &fakeClient{}})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		mgr.Run(ctx, time.Millisecond)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run 没有在取消后退出")
	}
}

func TestHub(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub()
	go hub.Run(ctx)

	mgr, _ := newTestManager(t, &fakeClient{}, nil)
	mgr.OnChange(hub.PublishSnapshot)
	s := mgr.Create(ctx, "")

	client := NewHubClient(s.ID(), 4)
	other := NewHubClient("another", 4)
	hub.Register(client)
	hub.Register(other)
	require.Eventually(t, func() bool { return hub.ClientCount(s.ID()) == 1 }, time.Second, time.Millisecond)

	s.SearchPrompt(ctx)

	select {
	case data := <-client.Send:
		var frame Frame
		require.NoError(t, json.Unmarshal(data, &frame))
		assert.Equal(t, FrameSnapshot, frame.Type)
		require.NotNil(t, frame.Data)
		assert.Equal(t, s.ID(), frame.Data.ID)
		assert.Len(t, frame.Data.Messages, 2)
	case <-time.After(time.Second):
		t.Fatal("没有收到推送")
	}
	assert.Empty(t, other.Send)

	hub.Unregister(client)
	require.Eventually(t, func() bool { return hub.ClientCount(s.ID()) == 0 }, time.Second, time.Millisecond)
	_, open := <-client.Send
	assert.False(t, open)
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		result string
		want   string
	}{
		{name: "500", err: &flowise.APIError{StatusCode: 500}, result: ResultAPIError, want: "服務器錯誤：服務器內部錯誤，請稍後再試。請稍後再試或聯繫技術支援。"},
		{name: "403", err: &flowise.APIError{StatusCode: 403}, result: ResultAPIError, want: "服務器錯誤：API 訪問被拒絕，請檢查權限設置。請稍後再試或聯繫技術支援。"},
		{name: "400", err: &flowise.APIError{StatusCode: 422}, result: ResultAPIError, want: "服務器錯誤：請求格式錯誤，請檢查發送的數據。請稍後再試或聯繫技術支援。"},
		{name: "502", err: &flowise.APIError{StatusCode: 502, Status: "Bad Gateway"}, result: ResultAPIError, want: "服務器錯誤：API 請求失敗: 502 Bad Gateway。請稍後再試或聯繫技術支援。"},
		{name: "包装后的网络错误", err: fmt.Errorf("对话失败: %w", &flowise.TransportError{Err: errors.New("refused")}), result: ResultTransportError, want: networkErrorText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.result, Classify(tt.err))
			assert.Equal(t, tt.want, UserMessage(tt.err))
		})
	}
	assert.Equal(t, ResultSuccess, Classify(nil))
}
