package models

import "strings"

// 嵌入式组件属性的默认值
const (
	DefaultAPIURL      = "/api/chat"
	DefaultHistoryPath = "/history.json"
)

// WidgetConfig 嵌入式聊天组件的配置，对应 api-url 与 history-path 两个属性
type WidgetConfig struct {
	APIURL      string `json:"apiUrl"`
	HistoryPath string `json:"historyPath"`
}

// ResolveWidgetConfig 补全未设置的属性
func ResolveWidgetConfig(apiURL, historyPath string) WidgetConfig {
	cfg := WidgetConfig{
		APIURL:      strings.TrimSpace(apiURL),
		HistoryPath: strings.TrimSpace(historyPath),
	}
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if cfg.HistoryPath == "" {
		cfg.HistoryPath = DefaultHistoryPath
	}
	return cfg
}
