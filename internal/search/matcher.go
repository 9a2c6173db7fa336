package search

import (
	"sort"
	"strings"

	"chat_widget_mini/internal/models"
)

// 匹配权重
const (
	nameWeight     = 3
	categoryWeight = 2
)

// ScoredProduct 带匹配分数的商品
type ScoredProduct struct {
	models.ProductRecord
	Score int `json:"matchScore"`
}

// Matcher 商品模糊匹配器
type Matcher struct {
	expander *Expander
	catalog  CatalogProvider
}

// NewMatcher 创建模糊匹配器
func NewMatcher(expander *Expander, catalog CatalogProvider) *Matcher {
	return &Matcher{expander: expander, catalog: catalog}
}

// NewDefaultMatcher 使用内置同义词表与商品目录创建匹配器
func NewDefaultMatcher() *Matcher {
	return NewMatcher(NewExpander(DefaultSynonyms()), DefaultCatalog())
}

// Search 按相关度从高到低返回匹配的商品，没有任何匹配时返回空
func (m *Matcher) Search(keyword string) []ScoredProduct {
	if strings.TrimSpace(keyword) == "" {
		return nil
	}

	keywords := m.expander.Expand(keyword)
	var results []ScoredProduct
	for _, product := range m.catalog.Products() {
		name := strings.ToLower(product.Name)
		category := strings.ToLower(product.Category)

		score := 0
		for _, kw := range keywords {
			if strings.Contains(name, kw) {
				score += nameWeight
			}
		}
		for _, kw := range keywords {
			if strings.Contains(category, kw) {
				score += categoryWeight
			}
		}

		if score > 0 {
			results = append(results, ScoredProduct{ProductRecord: product, Score: score})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}

// SearchProducts 同 Search，但只返回商品
func (m *Matcher) SearchProducts(keyword string) []models.ProductRecord {
	scored := m.Search(keyword)
	if len(scored) == 0 {
		return nil
	}
	products := make([]models.ProductRecord, 0, len(scored))
	for _, sp := range scored {
		products = append(products, sp.ProductRecord)
	}
	return products
}
