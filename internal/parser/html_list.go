package parser

import (
	"regexp"
	"strings"

	"chat_widget_mini/internal/models"

	"golang.org/x/net/html"
)

var (
	listItemPattern = regexp.MustCompile(`(?s)<li[^>]*>(.*?)</li>`)
	strongPattern   = regexp.MustCompile(`<strong>([^<]+)</strong>`)

	// 价格按优先级匹配：单价、价格、裸 NT$
	listPricePatterns = []*regexp.Regexp{
		regexp.MustCompile(`單價[：:\s]*NT\$\s*` + priceDigits),
		regexp.MustCompile(`價格[：:\s]*NT\$\s*` + priceDigits),
		regexp.MustCompile(`NT\$\s*` + priceDigits),
	}

	listDescPatterns = []*regexp.Regexp{
		regexp.MustCompile(`材質[：:\s]*([^<\n]+)`),
		regexp.MustCompile(`規格[：:\s]*([^<\n]+)`),
		regexp.MustCompile(`尺寸[：:\s]*([^<\n]+)`),
	}
)

// HTMLListExtractor 解析 <ul><li><strong>名称</strong>...</li></ul> 格式
type HTMLListExtractor struct{}

// Name 策略名称
func (HTMLListExtractor) Name() string { return StrategyHTMLList }

// TryExtract 提取列表中的商品
func (HTMLListExtractor) TryExtract(text string) []models.ProductRecord {
	// 流式回复可能截断开头的 "<"
	if strings.Contains(text, "ul>") && !strings.Contains(text, "<ul>") {
		text = "<" + text
	}

	var products []models.ProductRecord
	for _, item := range listItemPattern.FindAllStringSubmatch(text, -1) {
		content := item[1]

		nameMatch := strongPattern.FindStringSubmatch(content)
		if nameMatch == nil {
			continue
		}
		name := strings.TrimSpace(html.UnescapeString(nameMatch[1]))
		if name == "" {
			continue
		}

		price := ""
		for _, p := range listPricePatterns {
			if m := p.FindStringSubmatch(content); m != nil {
				price = capturedPrice(m[1])
				break
			}
		}
		if price == "" {
			continue
		}

		var parts []string
		for _, p := range listDescPatterns {
			if m := p.FindStringSubmatch(content); m != nil {
				parts = append(parts, strings.TrimSpace(html.UnescapeString(m[1])))
			}
		}

		products = append(products, models.ProductRecord{
			Name:        name,
			Price:       price,
			Category:    InferCategory(name),
			Description: strings.Join(parts, "，"),
		})
	}
	return products
}
