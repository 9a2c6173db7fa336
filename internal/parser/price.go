package parser

import (
	"regexp"
	"strings"
)

// priceDigits 价格数字的捕获组，允许千分位逗号
const priceDigits = `(\d{1,3}(?:,\d{3})+(?:\.\d+)?|\d+(?:\.\d+)?)`

var (
	priceNumberPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)`)
	validPricePattern  = regexp.MustCompile(`^\d+(\.\d+)?元$`)
)

// formatPrice 数字转为 "<数字>元"
func formatPrice(number string) string {
	return number + "元"
}

// capturedPrice 格式化正则捕获的价格数字
func capturedPrice(number string) string {
	price, _ := NormalizePrice(number)
	return price
}

// NormalizePrice 从价格文本中取出第一个数字并格式化，千分位逗号会被忽略
func NormalizePrice(text string) (string, bool) {
	cleaned := strings.ReplaceAll(Normalize(text), ",", "")
	m := priceNumberPattern.FindStringSubmatch(cleaned)
	if m == nil {
		return "", false
	}
	return formatPrice(m[1]), true
}

// ValidPrice 价格是否为 "<数字>元" 格式
func ValidPrice(price string) bool {
	return validPricePattern.MatchString(price)
}
