package config

import "errors"

// 对话记录存储驱动
const (
	HistoryDriverFile   = "file"
	HistoryDriverRedis  = "redis"
	HistoryDriverSQLite = "sqlite"
)

// DefaultFlowiseURL 默认的对话端点
const DefaultFlowiseURL = "https://bot.agatha-ai.com/flowise/16347ad1-56a3-45ff-950c-35bc259865d3"

// 配置相关错误
var (
	ErrInvalidPort          = errors.New("服务器端口必须大于0")
	ErrEmptyChatURL         = errors.New("对话端点地址不能为空")
	ErrEmptyRedisAddr       = errors.New("Redis地址不能为空")
	ErrUnknownHistoryDriver = errors.New("未知的对话记录存储驱动")
)
