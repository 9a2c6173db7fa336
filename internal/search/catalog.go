package search

import (
	"fmt"
	"os"

	"chat_widget_mini/internal/models"

	"gopkg.in/yaml.v3"
)

// CatalogProvider 商品目录
type CatalogProvider interface {
	Products() []models.ProductRecord
}

// StaticCatalog 固定的内存商品目录
type StaticCatalog struct {
	items []models.ProductRecord
}

// NewStaticCatalog 使用给定商品创建目录
func NewStaticCatalog(items []models.ProductRecord) *StaticCatalog {
	copied := make([]models.ProductRecord, len(items))
	copy(copied, items)
	return &StaticCatalog{items: copied}
}

// Products 返回目录中的全部商品
func (c *StaticCatalog) Products() []models.ProductRecord {
	return c.items
}

// catalogFile YAML商品目录文件格式
type catalogFile struct {
	Products []models.ProductRecord `yaml:"products"`
	Synonyms SynonymTable           `yaml:"synonyms"`
}

// LoadCatalogFile 从YAML文件加载商品目录与同义词表，文件未提供同义词时返回 nil
func LoadCatalogFile(path string) (*StaticCatalog, SynonymTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("读取商品目录失败: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, nil, fmt.Errorf("解析商品目录失败: %w", err)
	}
	if len(file.Products) == 0 {
		return nil, nil, fmt.Errorf("商品目录为空: %s", path)
	}

	return NewStaticCatalog(file.Products), file.Synonyms, nil
}

// DefaultCatalog 内置商品目录
func DefaultCatalog() *StaticCatalog {
	return NewStaticCatalog([]models.ProductRecord{
		{Name: "帆布托特包", Price: "160元", Category: "包袋收納、配件商品、生活雜貨"},
		{Name: "網格收納包", Price: "130元", Category: "包袋收納、生活雜貨"},
		{Name: "燈芯絨兩用包", Price: "300元", Category: "包袋收納、生活雜貨"},
		{Name: "密碼鎖收納包", Price: "250元", Category: "包袋收納、生活雜貨、配件飾品"},
		{Name: "帆布零錢包", Price: "95元", Category: "包袋收納、配件飾品、生活雜貨"},
		{Name: "皮革筆袋", Price: "50元", Category: "文具、配件飾品、生活雜貨"},
		{Name: "不銹鋼杯", Price: "160元", Category: "杯瓶餐具、生活雜貨、家居"},
		{Name: "環保杯 800mL", Price: "750元", Category: "杯瓶餐具、生活雜貨、家居、環保"},
		{Name: "電鍍圓珠筆", Price: "20元", Category: "文具、辦公用品、配件飾品"},
		{Name: "PU束繩記事本", Price: "200元", Category: "文具、辦公用品、生活雜貨"},
		{Name: "金屬圓珠筆", Price: "25元", Category: "文具、辦公用品"},
		{Name: "商務金屬圓珠筆", Price: "25元", Category: "文具、辦公用品"},
		{Name: "便條紙", Price: "14元", Category: "文具、辦公用品"},
		{Name: "皮革文件夾", Price: "90元", Category: "文具、辦公用品"},
		{Name: "棒球帽", Price: "160元", Category: "衣物配件、配件飾品、生活雜貨"},
		{Name: "針織毛帽", Price: "270元", Category: "衣物配件、生活雜貨"},
	})
}
