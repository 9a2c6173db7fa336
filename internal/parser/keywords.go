package parser

import (
	"regexp"
	"strings"
)

// 文本中至少出现一个才会尝试解析商品
var productKeywords = []string{"價格", "材質", "包", "NT$", "推薦", "商品", "元", "規格", "尺寸", "分類", "筆", "杯", "帽"}

// 回复中表示没有找到结果的用语
var notFoundPhrases = []string{"找不到", "沒有", "無法", "抱歉", "很遺憾", "無結果", "不存在", "查無"}

// 送礼搜索相关的关键字
var giftKeywords = []string{"包", "收納", "禮品", "贈品", "辦公", "生活", "馬克杯", "筆記本", "帆布袋", "文具", "用品", "小物"}

var quotedKeywordPattern = regexp.MustCompile(`「(.+?)」`)

// HasProductKeywords 文本是否可能包含商品信息
func HasProductKeywords(text string) bool {
	return containsAny(text, productKeywords)
}

// IsNotFound 回复是否表示没有找到结果
func IsNotFound(text string) bool {
	return containsAny(text, notFoundPhrases)
}

// IsGiftSearchQuery 用户输入是否是在找赠品
func IsGiftSearchQuery(query string) bool {
	return containsAny(query, giftKeywords)
}

// ExtractSearchKeyword 优先使用用户输入，否则取回复中第一个「」引用的内容
func ExtractSearchKeyword(userInput, response string) string {
	if kw := strings.TrimSpace(userInput); kw != "" {
		return kw
	}
	if m := quotedKeywordPattern.FindStringSubmatch(response); m != nil {
		return m[1]
	}
	return ""
}
