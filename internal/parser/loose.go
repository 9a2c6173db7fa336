package parser

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"chat_widget_mini/internal/models"
)

// 价格要么跟在「價格」或 NT$ 之后，要么以「元」结尾，名称中的数字不会被当成价格。
// 名称尾部使用非贪婪匹配，避免把价格的前几位数字吞进名称
var loosePattern = regexp.MustCompile(`([^，。！？\n]*包[^，。！？\n]*?)[，。]?\s*` +
	`(?:(?:價格[：:]?\s*(?:NT\$)?|NT\$)\s*` + priceDigits + `\s*元?|` + priceDigits + `\s*元)`)

// 可接受的名称长度（字符数）
const (
	looseMinName = 3
	looseMaxName = 19
)

// LooseExtractor 在其他策略都失败时，宽松匹配 "<含「包」的名称> 价格 <数字>元"
type LooseExtractor struct{}

// Name 策略名称
func (LooseExtractor) Name() string { return StrategyLoose }

// TryExtract 提取文本中的商品名称与价格
func (LooseExtractor) TryExtract(text string) []models.ProductRecord {
	var products []models.ProductRecord
	for _, m := range loosePattern.FindAllStringSubmatch(text, -1) {
		name := strings.TrimSpace(m[1])
		n := utf8.RuneCountInString(name)
		if n < looseMinName || n > looseMaxName {
			continue
		}
		number := m[2]
		if number == "" {
			number = m[3]
		}
		products = append(products, models.ProductRecord{
			Name:     name,
			Price:    capturedPrice(number),
			Category: CategoryBagsMixed,
		})
	}
	return products
}
