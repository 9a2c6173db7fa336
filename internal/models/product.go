package models

// PageSize 每次“查看更多”增加的显示数量
const PageSize = 3

// ProductRecord 从回复中解析出的商品
type ProductRecord struct {
	ID          string `json:"id,omitempty" yaml:"id,omitempty"`
	Name        string `json:"name" yaml:"name"`
	Price       string `json:"price" yaml:"price"` // 格式为 "<数字>元"
	Category    string `json:"category" yaml:"category"`
	Description string `json:"description" yaml:"description"`
	Image       string `json:"image,omitempty" yaml:"image,omitempty"`
}

// ProductSearchPayload 商品搜索结果
type ProductSearchPayload struct {
	TotalProducts  []ProductRecord `json:"totalProducts"`
	DisplayedCount int             `json:"displayedCount"`
	SearchKeyword  string          `json:"searchKeyword"`
}

// NewProductSearchPayload 创建搜索结果，默认显示前 PageSize 个
func NewProductSearchPayload(products []ProductRecord, keyword string) *ProductSearchPayload {
	return &ProductSearchPayload{
		TotalProducts:  products,
		DisplayedCount: min(PageSize, len(products)),
		SearchKeyword:  keyword,
	}
}

// LoadMore 多显示 PageSize 个商品，不超过总数，返回新的显示数量
func (p *ProductSearchPayload) LoadMore() int {
	p.DisplayedCount = min(p.DisplayedCount+PageSize, len(p.TotalProducts))
	return p.DisplayedCount
}

// Visible 返回当前可见的商品
func (p *ProductSearchPayload) Visible() []ProductRecord {
	return p.TotalProducts[:min(p.DisplayedCount, len(p.TotalProducts))]
}

// HasMore 是否还有未显示的商品
func (p *ProductSearchPayload) HasMore() bool {
	return p.DisplayedCount < len(p.TotalProducts)
}
