// Package render 处理助手回复的HTML与终端显示
package render

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

// 连同内容一起丢弃的标签
var droppedTags = map[string]bool{
	"script": true, "style": true, "iframe": true, "object": true, "embed": true, "noscript": true,
}

// policy 助手回复允许保留的标签与属性，链接只接受 http、https 和 mailto
var policy = newPolicy()

func newPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements(
		"p", "br", "div", "span",
		"ul", "ol", "li",
		"strong", "b", "em", "i",
		"h3", "h4",
		"table", "thead", "tbody", "tr", "th", "td",
	)
	p.RequireParseableURLs(true)
	p.AllowURLSchemes("http", "https", "mailto")
	p.AllowDataURIImages()
	p.AllowAttrs("href", "title").OnElements("a")
	p.AllowAttrs("src", "alt").OnElements("img")
	return p
}

// Sanitize 按白名单过滤HTML片段，其余标签去掉但保留文本
func Sanitize(fragment string) string {
	return policy.Sanitize(fragment)
}

// PlainText 把HTML片段转为适合终端显示的纯文本
func PlainText(fragment string) string {
	z := html.NewTokenizer(strings.NewReader(fragment))
	var b strings.Builder
	skip := 0

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return collapseBlankLines(b.String())
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			tag := string(name)
			switch {
			case droppedTags[tag]:
				if tt == html.StartTagToken {
					skip++
				}
			case tag == "li":
				b.WriteString("\n• ")
			case tag == "br", tag == "p", tag == "div", tag == "tr", tag == "h3", tag == "h4":
				b.WriteString("\n")
			case tag == "td", tag == "th":
				b.WriteString(" | ")
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if droppedTags[tag] && skip > 0 {
				skip--
			}
			if tag == "p" || tag == "ul" || tag == "ol" || tag == "table" {
				b.WriteString("\n")
			}
		}
	}
}

func collapseBlankLines(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if strings.TrimSpace(line) == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
