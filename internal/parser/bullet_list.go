package parser

import (
	"regexp"
	"strings"

	"chat_widget_mini/internal/models"
)

// 出现这些词的行表示商品列表开始
var introWords = []string{"推薦", "以下", "商品", "選擇", "參考"}

// 以这些标签开头的项目符号行视为当前商品的属性
var fieldLabels = []string{"價格", "單價", "材質", "規格", "尺寸", "最小起訂量"}

var (
	bulletPattern          = regexp.MustCompile(`^(?:[•·]\s*|[-*]\s+)(.+)$`)
	bulletWithPricePattern = regexp.MustCompile(`^(.+?)\s*[-–:：]?\s*NT\$\s*` + priceDigits)
	linePricePattern       = regexp.MustCompile(`(?:(?:單價|價格)[：:\s]*(?:NT\$)?|NT\$)\s*` + priceDigits)
	materialPattern        = regexp.MustCompile(`材質[：:\s]*(.+)`)
	specPattern            = regexp.MustCompile(`(?:規格|尺寸)[：:\s]*(.+)`)
)

// BulletListExtractor 逐行解析项目符号列表
//
//	以下是推薦商品：
//	• 帆布托特包
//	  價格：NT$160
//	  材質：帆布
type BulletListExtractor struct{}

// Name 策略名称
func (BulletListExtractor) Name() string { return StrategyBulletList }

// TryExtract 提取列表中的商品，没有价格的商品会被丢弃
func (BulletListExtractor) TryExtract(text string) []models.ProductRecord {
	var (
		products  []models.ProductRecord
		current   *models.ProductRecord
		inSection bool
	)

	flush := func() {
		if current != nil && current.Name != "" && current.Price != "" {
			products = append(products, *current)
		}
		current = nil
	}

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if m := bulletPattern.FindStringSubmatch(line); m != nil {
			item := strings.TrimSpace(m[1])
			if current != nil && hasFieldLabel(item) {
				applyField(current, item)
				continue
			}
			if !inSection {
				continue
			}
			flush()
			current = newBulletProduct(item)
			continue
		}

		if current != nil && applyField(current, line) {
			continue
		}
		if containsAny(line, introWords) {
			inSection = true
		}
	}
	flush()

	return products
}

func newBulletProduct(item string) *models.ProductRecord {
	if m := bulletWithPricePattern.FindStringSubmatch(item); m != nil {
		name := cleanBulletName(strings.TrimRight(m[1], "-–:：，, "))
		if name != "" {
			return &models.ProductRecord{Name: name, Price: capturedPrice(m[2])}
		}
	}
	return &models.ProductRecord{Name: cleanBulletName(item)}
}

// cleanBulletName 去掉 Markdown 粗体标记
func cleanBulletName(name string) string {
	return strings.TrimSpace(strings.ReplaceAll(name, "**", ""))
}

func hasFieldLabel(item string) bool {
	for _, label := range fieldLabels {
		if strings.HasPrefix(item, label) {
			return true
		}
	}
	return false
}

// applyField 将属性行写入当前商品，返回该行是否为属性行
func applyField(p *models.ProductRecord, line string) bool {
	switch {
	case strings.Contains(line, "價格") || strings.Contains(line, "單價") || strings.Contains(line, "NT$"):
		if m := linePricePattern.FindStringSubmatch(line); m != nil {
			p.Price = capturedPrice(m[1])
		}
	case strings.Contains(line, "材質"):
		if m := materialPattern.FindStringSubmatch(line); m != nil {
			appendDescription(p, m[1])
		}
	case strings.Contains(line, "規格") || strings.Contains(line, "尺寸"):
		if m := specPattern.FindStringSubmatch(line); m != nil {
			appendDescription(p, m[1])
		}
	case strings.Contains(line, "最小起訂量"):
		p.Category = inferCategory(bulletCategoryRules, p.Name, CategoryAccessory)
	default:
		return false
	}
	return true
}

func appendDescription(p *models.ProductRecord, part string) {
	part = strings.TrimSpace(part)
	if part == "" {
		return
	}
	if p.Description == "" {
		p.Description = part
		return
	}
	p.Description += "，" + part
}
