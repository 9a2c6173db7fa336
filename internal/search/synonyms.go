// Package search 实现同义词扩展与商品模糊匹配
package search

import "strings"

// SynonymEntry 同义词表中的一项：规范词及其同义词
type SynonymEntry struct {
	Key      string   `yaml:"key"`
	Synonyms []string `yaml:"synonyms"`
}

// SynonymTable 有序的同义词表
type SynonymTable []SynonymEntry

// DefaultSynonyms 内置同义词表
func DefaultSynonyms() SynonymTable {
	return SynonymTable{
		{Key: "辦公", Synonyms: []string{"辦公用品", "文具", "商務"}},
		{Key: "辦公小物", Synonyms: []string{"文具", "辦公用品", "商務用品"}},
		{Key: "生活", Synonyms: []string{"生活雜貨", "家居", "日用品"}},
		{Key: "生活用品", Synonyms: []string{"生活雜貨", "家居", "日用品"}},
		{Key: "收納", Synonyms: []string{"包袋收納", "整理", "儲物"}},
		{Key: "包包", Synonyms: []string{"包袋收納", "袋子", "背包"}},
		{Key: "杯子", Synonyms: []string{"杯瓶餐具", "水杯", "茶杯"}},
		{Key: "餐具", Synonyms: []string{"杯瓶餐具", "用餐", "廚具"}},
		{Key: "衣服", Synonyms: []string{"衣物配件", "服裝", "穿搭"}},
		{Key: "配件", Synonyms: []string{"配件飾品", "裝飾", "飾品"}},
		{Key: "送男友", Synonyms: []string{"男性", "男士", "紳士"}},
		{Key: "送女友", Synonyms: []string{"女性", "女士", "淑女"}},
		{Key: "療癒系", Synonyms: []string{"舒壓", "放鬆", "可愛"}},
		{Key: "科技感", Synonyms: []string{"現代", "時尚", "高科技"}},
		{Key: "環保", Synonyms: []string{"綠色", "永續", "生態"}},
	}
}

// Expander 同义词扩展器
//
// 匹配是字面上的子串匹配：两个无关的词只要共享子串就会互相扩展，
// 这是已知的不精确之处。
type Expander struct {
	table SynonymTable
}

// NewExpander 使用给定的同义词表创建扩展器，表中的词统一转为小写
func NewExpander(table SynonymTable) *Expander {
	normalized := make(SynonymTable, 0, len(table))
	for _, entry := range table {
		syns := make([]string, 0, len(entry.Synonyms))
		for _, s := range entry.Synonyms {
			syns = append(syns, strings.ToLower(s))
		}
		normalized = append(normalized, SynonymEntry{Key: strings.ToLower(entry.Key), Synonyms: syns})
	}
	return &Expander{table: normalized}
}

// Expand 返回去重后的小写关键字集合，原关键字排在第一位
func (e *Expander) Expand(keyword string) []string {
	kw := strings.ToLower(strings.TrimSpace(keyword))
	if kw == "" {
		return nil
	}

	seen := make(map[string]struct{})
	expanded := make([]string, 0, 8)
	add := func(words ...string) {
		for _, w := range words {
			if _, ok := seen[w]; ok {
				continue
			}
			seen[w] = struct{}{}
			expanded = append(expanded, w)
		}
	}

	add(kw)
	for _, entry := range e.table {
		if overlaps(entry.Key, kw) {
			add(entry.Synonyms...)
		}
		for _, syn := range entry.Synonyms {
			if overlaps(syn, kw) {
				add(entry.Key)
				add(entry.Synonyms...)
				break
			}
		}
	}
	return expanded
}

// overlaps 任一方包含另一方
func overlaps(a, b string) bool {
	return strings.Contains(a, b) || strings.Contains(b, a)
}
