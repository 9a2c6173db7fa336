package services

import (
	"fmt"
	"strings"
	"time"

	"chat_widget_mini/internal/metrics"
	"chat_widget_mini/internal/models"
	"chat_widget_mini/internal/parser"
	"chat_widget_mini/internal/render"
	"chat_widget_mini/internal/search"
)

// Responder 把对话端点的回复转换为最终展示的消息
type Responder struct {
	parser  *parser.Parser
	matcher *search.Matcher
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewResponder 创建回复处理器，parser 或 matcher 为 nil 时使用默认实现
func NewResponder(p *parser.Parser, matcher *search.Matcher, m *metrics.Metrics) *Responder {
	if p == nil {
		p = parser.New()
	}
	if matcher == nil {
		matcher = search.NewDefaultMatcher()
	}
	return &Responder{parser: p, matcher: matcher, metrics: m, now: time.Now}
}

// Respond 根据用户输入和机器人回复生成助手消息
//
// 回复中解析出商品时生成商品列表；解析不到且回复表示没找到时，
// 用用户输入在内置目录中模糊搜索；仍然没有结果时，送礼类查询得到
// no_results 消息，其他情况按普通文本展示。
func (r *Responder) Respond(query, reply string, awaitingSearch bool) models.Message {
	query = strings.TrimSpace(query)
	reply = strings.TrimSpace(reply)
	if reply == "" {
		r.metrics.ObserveParse(parser.StrategyNone)
		return models.NewText(models.RoleAssistant, EmptyReplyText)
	}

	result := r.parser.Parse(reply)
	r.metrics.ObserveParse(result.Strategy)
	if result.Found() {
		keyword := parser.ExtractSearchKeyword(query, reply)
		return r.productMessage(result.Products, keyword)
	}

	if parser.IsNotFound(reply) && query != "" {
		if products := r.matcher.SearchProducts(query); len(products) > 0 {
			return r.productMessage(products, query)
		}
		if awaitingSearch || parser.IsGiftSearchQuery(query) {
			return models.NewNoResults(fmt.Sprintf(noResultsTemplate, query), query)
		}
	}

	return models.NewText(models.RoleAssistant, render.Sanitize(reply))
}

func (r *Responder) productMessage(products []models.ProductRecord, keyword string) models.Message {
	stamp := r.now().UnixMilli()
	withIDs := make([]models.ProductRecord, len(products))
	for i, p := range products {
		if p.ID == "" {
			p.ID = fmt.Sprintf("product_%d_%d", stamp, i)
		}
		withIDs[i] = p
	}
	return models.NewProductSearch(ProductResultText, models.NewProductSearchPayload(withIDs, keyword))
}
