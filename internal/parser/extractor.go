package parser

import "chat_widget_mini/internal/models"

// 解析策略名称
const (
	StrategyHTMLList   = "html_list"
	StrategyHTMLTable  = "html_table"
	StrategyBulletList = "bullet_list"
	StrategyPipeTable  = "pipe_table"
	StrategyLoose      = "loose"
	StrategyNone       = "none"
)

// Extractor 商品提取策略
type Extractor interface {
	// Name 策略名称
	Name() string
	// TryExtract 尝试从文本中提取商品，失败时返回空
	TryExtract(text string) []models.ProductRecord
}

// DefaultExtractors 按优先级排列的默认提取策略
func DefaultExtractors() []Extractor {
	return []Extractor{
		HTMLListExtractor{},
		HTMLTableExtractor{},
		BulletListExtractor{},
		PipeTableExtractor{},
	}
}
