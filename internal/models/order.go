package models

// OrderItem 订单明细
type OrderItem struct {
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int    `json:"unitPrice"`
}

// Order 订单
type Order struct {
	ID            string      `json:"id"`
	Date          string      `json:"date"`
	Status        string      `json:"status"`
	StatusColor   string      `json:"statusColor"`
	CustomerName  string      `json:"customerName"`
	PaymentMethod string      `json:"paymentMethod"`
	TotalAmount   int         `json:"totalAmount"`
	Items         []OrderItem `json:"items"`
}

// OrderSummaryPayload 订单摘要，Orders 只包含当前显示的订单
type OrderSummaryPayload struct {
	Orders         []Order `json:"orders"`
	DisplayedCount int     `json:"displayedCount"`
	HasMore        bool    `json:"hasMore"`
	AllLoaded      bool    `json:"allLoaded"`
}

// NewOrderSummaryPayload 创建订单摘要，默认显示前 PageSize 笔
func NewOrderSummaryPayload(all []Order) *OrderSummaryPayload {
	p := &OrderSummaryPayload{}
	p.reveal(all, min(PageSize, len(all)))
	return p
}

// LoadMore 多显示 PageSize 笔订单，不超过总数
func (p *OrderSummaryPayload) LoadMore(all []Order) int {
	p.reveal(all, min(p.DisplayedCount+PageSize, len(all)))
	return p.DisplayedCount
}

func (p *OrderSummaryPayload) reveal(all []Order, count int) {
	// 订单列表被替换成更短的列表时不回退
	if count < p.DisplayedCount {
		count = min(p.DisplayedCount, len(all))
	}
	p.Orders = all[:count]
	p.DisplayedCount = count
	p.AllLoaded = count >= len(all)
	p.HasMore = !p.AllLoaded
}
