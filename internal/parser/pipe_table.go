package parser

import (
	"regexp"
	"strings"

	"chat_widget_mini/internal/models"
)

var pipeRowPattern = regexp.MustCompile(`^\s*\|([^|]*)\|([^|]*)\|([^|]*)\|?`)

// PipeTableExtractor 解析 Markdown 风格的 |名称|价格|描述| 表格
type PipeTableExtractor struct{}

// Name 策略名称
func (PipeTableExtractor) Name() string { return StrategyPipeTable }

// TryExtract 提取表格中的商品，跳过表头与分隔行
func (PipeTableExtractor) TryExtract(text string) []models.ProductRecord {
	var products []models.ProductRecord
	first := true
	for _, line := range strings.Split(text, "\n") {
		m := pipeRowPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if first || strings.Contains(m[1], "---") {
			first = false
			continue
		}

		name := strings.TrimSpace(m[1])
		price, ok := NormalizePrice(m[2])
		if name == "" || strings.TrimSpace(m[2]) == "" || !ok {
			continue
		}

		products = append(products, models.ProductRecord{
			Name:        name,
			Price:       price,
			Category:    CategoryBagsMixed,
			Description: strings.TrimSpace(m[3]),
		})
	}
	return products
}
