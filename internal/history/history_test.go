package history

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"chat_widget_mini/internal/config"
	"chat_widget_mini/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleMessages() []models.Message {
	products := []models.ProductRecord{
		{Name: "帆布托特包", Price: "160元", Category: "包袋收納、配件商品、生活雜貨"},
		{Name: "網格收納包", Price: "130元", Category: "包袋收納、生活雜貨"},
	}
	msgs := []models.Message{
		models.NewText(models.RoleAssistant, "歡迎"),
		models.NewText(models.RoleUser, "收納"),
		models.NewProductSearch("以下是符合您需求的推薦商品：", models.NewProductSearchPayload(products, "收納")),
	}
	for i := range msgs {
		msgs[i].ID = uint64(i + 1)
		msgs[i].Time = "10:30"
	}
	return msgs
}

func newStores(t *testing.T) map[string]Store {
	t.Helper()

	fileStore, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	redisStore := NewRedisStoreWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), 0)

	sqliteStore, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)

	stores := map[string]Store{
		"文件":     fileStore,
		"Redis":  redisStore,
		"SQLite": sqliteStore,
	}
	t.Cleanup(func() {
		for _, s := range stores {
			s.Close()
		}
	})
	return stores
}

func TestStoreContract(t *testing.T) {
	ctx := context.Background()

	for name, store := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			got, err := store.Load(ctx, "/missing.json")
			require.NoError(t, err)
			assert.NotNil(t, got)
			assert.Empty(t, got)

			msgs := sampleMessages()
			require.NoError(t, store.Save(ctx, "/history.json", msgs))

			got, err = store.Load(ctx, "/history.json")
			require.NoError(t, err)
			assert.Equal(t, msgs, got)

			// 整体替换
			require.NoError(t, store.Save(ctx, "/history.json", msgs[:1]))
			got, err = store.Load(ctx, "/history.json")
			require.NoError(t, err)
			assert.Equal(t, msgs[:1], got)

			// 不同的键互不影响
			require.NoError(t, store.Save(ctx, "/shop/history.json", msgs))
			got, err = store.Load(ctx, "/history.json")
			require.NoError(t, err)
			assert.Len(t, got, 1)

			require.NoError(t, store.Save(ctx, "/history.json", nil))
			got, err = store.Load(ctx, "/history.json")
			require.NoError(t, err)
			assert.Empty(t, got)
		})
	}
}

func TestSanitizeKey(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{path: "/history.json", want: "inkslap_chat_history__history_json"},
		{path: "abc123", want: "inkslap_chat_history_abc123"},
		{path: "/商店/h", want: "inkslap_chat_history_____h"},
		{path: "", want: "inkslap_chat_history_"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeKey(tt.path))
		})
	}
}

func TestCleanForSave(t *testing.T) {
	msgs := []models.Message{
		models.NewText(models.RoleUser, "data: 使用者輸入"),
		models.NewText(models.RoleAssistant, "data: 你好data:  世界"),
		models.NewLoading("正在查詢中，請稍等..."),
	}

	cleaned := CleanForSave(msgs)
	require.Len(t, cleaned, 2)
	assert.Equal(t, "data: 使用者輸入", cleaned[0].Content)
	assert.Equal(t, "你好世界", cleaned[1].Content)
	// 原列表不变
	assert.Equal(t, "data: 你好data:  世界", msgs[1].Content)
}

func TestFileStorePath(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "history.json"), store.Path("/history.json"))
	assert.Equal(t, filepath.Join(dir, "history.json"), store.Path(""))
	assert.Equal(t, filepath.Join(dir, "shop", "chat.json"), store.Path("shop/chat"))

	escaped := store.Path("../../etc/passwd")
	assert.True(t, strings.HasPrefix(escaped, dir), escaped)
}

func TestFileStoreLegacyFormat(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	legacy := `[{"role":"assistant","content":"歡迎"},{"role":"user","content":"你好"}]`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "history.json"), []byte(legacy), 0644))

	got, err := store.Load(context.Background(), "/history.json")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, models.KindText, got[0].Kind)
	assert.Equal(t, "你好", got[1].Content)
}

func TestDecodeFlaggedFormat(t *testing.T) {
	legacy := `[
		{"id":1,"role":"assistant","content":"正在查詢中，請稍等...","isLoading":true},
		{"id":2,"role":"assistant","content":"推薦商品","isProductSearch":true,
		 "productData":{"totalProducts":[{"name":"帆布包","price":"160元"}],"displayedCount":1,"searchKeyword":"帆布"}},
		{"id":3,"role":"assistant","content":"訂單","isOrderSummary":true,
		 "orderData":{"orders":[{"id":"202506010001"}],"displayedCount":1,"hasMore":true}},
		{"id":4,"role":"assistant","content":"找不到","isNoResults":true,"searchKeyword":"火箭"},
		{"id":5,"role":"assistant","content":"請輸入","isSearchPrompt":true},
		{"id":6,"role":"assistant","content":"請登入","isLoginPrompt":true},
		{"id":7,"role":"assistant","content":"關於","isAboutInkslap":true},
		{"id":8,"role":"assistant","content":"缺少負載","isOrderSummary":true},
		{"id":9,"role":"user","content":"夾帶負載","productData":{"totalProducts":[]}}
	]`

	got, err := Decode([]byte(legacy))
	require.NoError(t, err)

	want := []models.MessageKind{
		models.KindProductSearch,
		models.KindOrderSummary,
		models.KindNoResults,
		models.KindSearchPrompt,
		models.KindLoginPrompt,
		models.KindAbout,
		models.KindText,
		models.KindText,
	}
	require.Len(t, got, len(want), "加载中的占位消息被丢弃")
	for i, kind := range want {
		assert.Equal(t, kind, got[i].Kind, got[i].Content)
		assert.NoError(t, got[i].Validate(), got[i].Content)
	}

	require.NotNil(t, got[0].ProductData)
	assert.Equal(t, "帆布包", got[0].ProductData.TotalProducts[0].Name)
	require.NotNil(t, got[1].OrderData)
	assert.True(t, got[1].OrderData.HasMore)
	assert.Equal(t, "火箭", got[2].SearchKeyword)
	assert.Nil(t, got[7].ProductData)
}

func TestVisitorKey(t *testing.T) {
	assert.Equal(t, "/history_v1.json", VisitorKey("/history.json", "v1"))
	assert.Equal(t, "shop/chat_a-b_c", VisitorKey("shop/chat", "a-b_c"))
	assert.Equal(t, "/history.json", VisitorKey("/history.json", ""))
	assert.Equal(t, "/history_etc.json", VisitorKey("/history.json", "../etc"))
	assert.Len(t, CleanVisitorID(strings.Repeat("x", 100)), 64)

	// 不同访客落在不同的 Redis 键
	assert.NotEqual(t, SanitizeKey(VisitorKey("/history.json", "a")), SanitizeKey(VisitorKey("/history.json", "b")))
}

func TestFileStoreCorrupted(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "history.json"), []byte("{"), 0644))

	_, err = store.Load(context.Background(), "/history.json")
	assert.Error(t, err)
}

func TestRedisStoreTTL(t *testing.T) {
	mr := miniredis.RunT(t)

	store, err := NewRedisStore(context.Background(), RedisConfig{Addr: mr.Addr(), TTL: time.Hour})
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Save(context.Background(), "/history.json", sampleMessages()))
	assert.True(t, mr.Exists(SanitizeKey("/history.json")))
	assert.Equal(t, time.Hour, mr.TTL(SanitizeKey("/history.json")))
}

func TestNewRedisStoreErrors(t *testing.T) {
	_, err := NewRedisStore(context.Background(), RedisConfig{})
	assert.Error(t, err)

	_, err = NewRedisStore(context.Background(), RedisConfig{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}

func TestNewStore(t *testing.T) {
	cfg := config.Default()
	cfg.History.Dir = t.TempDir()

	store, err := NewStore(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, store)

	cfg.History.Driver = config.HistoryDriverSQLite
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "db", "history.sqlite")
	store, err = NewStore(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, store)
	require.NoError(t, store.Close())

	cfg.History.Driver = "mongo"
	_, err = NewStore(context.Background(), cfg)
	assert.ErrorIs(t, err, config.ErrUnknownHistoryDriver)
}
