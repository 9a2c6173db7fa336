package parser

import "strings"

// 商品分类
const (
	CategoryBags       = "包袋收納、生活雜貨"
	CategoryStationery = "文具、辦公用品"
	CategoryDrinkware  = "杯瓶餐具、生活雜貨"
	CategoryApparel    = "衣物配件、生活雜貨"
	CategoryGeneral    = "生活雜貨"
	CategoryAccessory  = "生活雜貨、配件飾品"
	CategoryBagsMixed  = "包袋收納、配件商品、生活雜貨"
)

type categoryRule struct {
	keywords []string
	category string
}

// HTML列表与表格使用的分类规则，按顺序匹配
var htmlCategoryRules = []categoryRule{
	{keywords: []string{"包", "袋", "箱"}, category: CategoryBags},
	{keywords: []string{"筆", "本"}, category: CategoryStationery},
	{keywords: []string{"杯", "瓶"}, category: CategoryDrinkware},
	{keywords: []string{"帽", "衣"}, category: CategoryApparel},
}

// 项目符号列表使用的分类规则
var bulletCategoryRules = []categoryRule{
	{keywords: []string{"包", "袋"}, category: CategoryBags},
	{keywords: []string{"筆", "本"}, category: CategoryStationery},
	{keywords: []string{"杯", "瓶"}, category: CategoryDrinkware},
	{keywords: []string{"帽", "衣"}, category: CategoryApparel},
}

// InferCategory 根据商品名称推断分类
func InferCategory(name string) string {
	return inferCategory(htmlCategoryRules, name, CategoryGeneral)
}

func inferCategory(rules []categoryRule, name, fallback string) string {
	lower := strings.ToLower(name)
	for _, rule := range rules {
		if containsAny(lower, rule.keywords) {
			return rule.category
		}
	}
	return fallback
}
