package parser

import (
	"regexp"
	"strings"

	"chat_widget_mini/internal/models"
)

var (
	tableRowPattern  = regexp.MustCompile(`(?s)<tr[^>]*>(.*?)</tr>`)
	tableCellPattern = regexp.MustCompile(`(?s)<td[^>]*>(.*?)</td>`)
)

// HTMLTableExtractor 解析 <table> 格式，列依次为名称、价格、描述
type HTMLTableExtractor struct{}

// Name 策略名称
func (HTMLTableExtractor) Name() string { return StrategyHTMLTable }

// TryExtract 提取表格中的商品，跳过表头
func (HTMLTableExtractor) TryExtract(text string) []models.ProductRecord {
	var products []models.ProductRecord
	for i, row := range tableRowPattern.FindAllStringSubmatch(text, -1) {
		content := row[1]
		if i == 0 || strings.Contains(content, "<th") {
			continue
		}

		var cells []string
		for _, cell := range tableCellPattern.FindAllStringSubmatch(content, -1) {
			cells = append(cells, textContent(cell[1]))
		}
		if len(cells) < 3 {
			continue
		}

		name := cells[0]
		price, ok := NormalizePrice(cells[1])
		if name == "" || !ok {
			continue
		}

		products = append(products, models.ProductRecord{
			Name:        name,
			Price:       price,
			Category:    InferCategory(name),
			Description: cells[2],
		})
	}
	return products
}
