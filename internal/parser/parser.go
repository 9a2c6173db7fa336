// Package parser 从对话机器人的自由文本/HTML回复中提取结构化的商品信息
//
// 回复格式不稳定，因此按从结构化到启发式的顺序依次尝试多种提取策略，
// 第一个得到结果的策略胜出；全部失败时再做一次宽松匹配。
package parser

import (
	"strings"

	"chat_widget_mini/internal/logger"
	"chat_widget_mini/internal/models"
)

// Result 解析结果
type Result struct {
	Products []models.ProductRecord
	Strategy string // 命中的策略，未命中为 StrategyNone
}

// Found 是否解析出商品
func (r Result) Found() bool {
	return len(r.Products) > 0
}

// Parser 商品解析器
type Parser struct {
	chain []Extractor
	loose Extractor
}

// New 使用默认策略创建解析器
func New() *Parser {
	return NewWithExtractors(LooseExtractor{}, DefaultExtractors()...)
}

// NewWithExtractors 使用指定的策略链创建解析器，loose 可以为 nil
func NewWithExtractors(loose Extractor, chain ...Extractor) *Parser {
	return &Parser{chain: chain, loose: loose}
}

var defaultParser = New()

// Parse 使用默认解析器提取商品，没有结果时返回 nil
func Parse(text string) []models.ProductRecord {
	return defaultParser.Parse(text).Products
}

// Parse 提取商品
func (p *Parser) Parse(text string) Result {
	text = Normalize(text)
	if strings.TrimSpace(text) == "" {
		return Result{Strategy: StrategyNone}
	}

	if HasProductKeywords(text) {
		for _, ex := range p.chain {
			if products := finalize(ex.TryExtract(text)); len(products) > 0 {
				logger.Module("parser").Debug().
					Str("strategy", ex.Name()).
					Int("count", len(products)).
					Msg("解析到商品")
				return Result{Products: products, Strategy: ex.Name()}
			}
		}
	}

	if p.loose != nil {
		if products := finalize(p.loose.TryExtract(text)); len(products) > 0 {
			return Result{Products: products, Strategy: p.loose.Name()}
		}
	}
	return Result{Strategy: StrategyNone}
}

// finalize 清理字段并丢弃名称为空或价格格式不正确的记录
func finalize(records []models.ProductRecord) []models.ProductRecord {
	if len(records) == 0 {
		return nil
	}
	out := make([]models.ProductRecord, 0, len(records))
	for _, r := range records {
		r.Name = strings.TrimSpace(r.Name)
		r.Description = strings.TrimSpace(r.Description)
		if r.Name == "" || !ValidPrice(r.Price) {
			continue
		}
		out = append(out, r)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
