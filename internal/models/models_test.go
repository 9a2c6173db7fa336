package models

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func makeProducts(n int) []ProductRecord {
	products := make([]ProductRecord, n)
	for i := range products {
		products[i] = ProductRecord{Name: fmt.Sprintf("商品%d", i), Price: "10元"}
	}
	return products
}

func TestProductSearchPayloadLoadMore(t *testing.T) {
	tests := []struct {
		name  string
		total int
		want  []int
	}{
		{name: "空结果", total: 0, want: []int{0, 0}},
		{name: "少于一页", total: 2, want: []int{2, 2, 2}},
		{name: "刚好两页", total: 6, want: []int{3, 6, 6}},
		{name: "不满三页", total: 7, want: []int{3, 6, 7, 7}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProductSearchPayload(makeProducts(tt.total), "杯子")
			counts := []int{p.DisplayedCount}
			for i := 1; i < len(tt.want); i++ {
				counts = append(counts, p.LoadMore())
			}
			assert.Equal(t, tt.want, counts)
			assert.LessOrEqual(t, p.DisplayedCount, len(p.TotalProducts))
			assert.Len(t, p.Visible(), p.DisplayedCount)
			assert.False(t, p.HasMore())
		})
	}
}

func TestDisplayedCountMonotonic(t *testing.T) {
	p := NewProductSearchPayload(makeProducts(10), "")
	prev := p.DisplayedCount
	for i := 0; i < 10; i++ {
		cur := p.LoadMore()
		assert.GreaterOrEqual(t, cur, prev)
		assert.LessOrEqual(t, cur, 10)
		prev = cur
	}
}

func TestOrderSummaryPayload(t *testing.T) {
	orders := make([]Order, 7)
	for i := range orders {
		orders[i] = Order{ID: fmt.Sprintf("%d", i)}
	}

	p := NewOrderSummaryPayload(orders)
	assert.Equal(t, 3, p.DisplayedCount)
	assert.Len(t, p.Orders, 3)
	assert.True(t, p.HasMore)
	assert.False(t, p.AllLoaded)

	assert.Equal(t, 6, p.LoadMore(orders))
	assert.Equal(t, 7, p.LoadMore(orders))
	assert.Len(t, p.Orders, 7)
	assert.True(t, p.AllLoaded)
	assert.False(t, p.HasMore)
	assert.Equal(t, 7, p.LoadMore(orders))
}

func TestMessageValidate(t *testing.T) {
	tests := []struct {
		name    string
		msg     Message
		wantErr bool
	}{
		{name: "纯文本", msg: NewText(RoleUser, "你好")},
		{name: "商品搜索", msg: NewProductSearch("以下是", NewProductSearchPayload(makeProducts(1), "包"))},
		{name: "订单摘要", msg: NewOrderSummary("訂單", NewOrderSummaryPayload(nil))},
		{name: "无结果", msg: NewNoResults("找不到", "杯子")},
		{name: "商品搜索缺少负载", msg: Message{Role: RoleAssistant, Kind: KindProductSearch}, wantErr: true},
		{name: "文本携带负载", msg: Message{Role: RoleAssistant, Kind: KindText, OrderData: &OrderSummaryPayload{}}, wantErr: true},
		{name: "未知类型", msg: Message{Role: RoleAssistant, Kind: "card"}, wantErr: true},
		{name: "未知角色", msg: Message{Role: "system", Kind: KindText}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.msg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMessageClone(t *testing.T) {
	original := NewProductSearch("以下是", NewProductSearchPayload(makeProducts(5), "包"))
	cloned := original.Clone()
	cloned.ProductData.LoadMore()

	assert.Equal(t, 3, original.ProductData.DisplayedCount)
	assert.Equal(t, 5, cloned.ProductData.DisplayedCount)
}

func TestResolveWidgetConfig(t *testing.T) {
	cfg := ResolveWidgetConfig("", "  ")
	assert.Equal(t, DefaultAPIURL, cfg.APIURL)
	assert.Equal(t, DefaultHistoryPath, cfg.HistoryPath)

	cfg = ResolveWidgetConfig("https://example.com/chat", "/shop/history.json")
	assert.Equal(t, "https://example.com/chat", cfg.APIURL)
	assert.Equal(t, "/shop/history.json", cfg.HistoryPath)
}
