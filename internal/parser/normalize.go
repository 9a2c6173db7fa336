package parser

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// fullWidthFolder 全角数字、货币符号与小数点转为半角
var fullWidthFolder = runes.Map(func(r rune) rune {
	switch {
	case r >= '０' && r <= '９':
		return r - '０' + '0'
	case r == '＄':
		return '$'
	case r == '．':
		return '.'
	}
	return r
})

// Normalize 解析前的文本预处理
func Normalize(text string) string {
	folded, _, err := transform.String(fullWidthFolder, text)
	if err != nil {
		return text
	}
	return folded
}

// textContent 去掉HTML标签并反转义实体，返回纯文本
func textContent(fragment string) string {
	z := html.NewTokenizer(strings.NewReader(fragment))
	var b strings.Builder
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.TrimSpace(b.String())
		case html.TextToken:
			b.Write(z.Text())
		}
	}
}

// containsAny 文本是否包含任一关键字
func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
