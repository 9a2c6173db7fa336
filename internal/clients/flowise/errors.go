package flowise

import "fmt"

// APIError 对话端点返回了非 2xx 状态码
type APIError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API 請求失敗: %d %s - %s", e.StatusCode, e.Status, e.Body)
}

// TransportError 请求未能到达对话端点或读取回复时连接中断
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("发送请求失败: %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
