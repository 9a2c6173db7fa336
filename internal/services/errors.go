package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"chat_widget_mini/internal/clients/flowise"
)

// 会话相关错误
var (
	ErrSessionBusy     = errors.New("上一則訊息仍在處理中")
	ErrEmptyInput      = errors.New("訊息內容不能為空")
	ErrSessionNotFound = errors.New("会话不存在")
	ErrMessageNotFound = errors.New("消息不存在")
	ErrNotPaginated    = errors.New("该消息不支持查看更多")
	ErrProductNotFound = errors.New("商品不存在")
	ErrUnknownOption   = errors.New("未知的快捷选项")
)

// 用户看到的错误提示
const (
	networkErrorText = "網路連接錯誤，請檢查您的網路連接後重試。"
	timeoutErrorText = "請求超時，請稍後再試。"
	genericErrorText = "抱歉，發生了一些錯誤。請稍後再試。"
	apiErrorTemplate = "服務器錯誤：%s。請稍後再試或聯繫技術支援。"
)

// 对话请求结果分类，用于指标
const (
	ResultSuccess        = "success"
	ResultTimeout        = "timeout"
	ResultAPIError       = "api_error"
	ResultTransportError = "transport_error"
	ResultError          = "error"
)

// Classify 对话请求错误分类
func Classify(err error) string {
	var (
		apiErr       *flowise.APIError
		transportErr *flowise.TransportError
		netErr       net.Error
	)
	switch {
	case err == nil:
		return ResultSuccess
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return ResultTimeout
	case errors.As(err, &apiErr):
		return ResultAPIError
	case errors.As(err, &transportErr):
		return ResultTransportError
	default:
		return ResultError
	}
}

// UserMessage 将对话请求错误转为给用户看的提示
func UserMessage(err error) string {
	switch Classify(err) {
	case ResultTimeout:
		return timeoutErrorText
	case ResultAPIError:
		var apiErr *flowise.APIError
		errors.As(err, &apiErr)
		return fmt.Sprintf(apiErrorTemplate, apiStatusMessage(apiErr))
	case ResultTransportError:
		return networkErrorText
	default:
		return genericErrorText
	}
}

func apiStatusMessage(e *flowise.APIError) string {
	switch {
	case e.StatusCode == http.StatusNotFound:
		return "API 端點不存在，請檢查 API 地址是否正確"
	case e.StatusCode == http.StatusInternalServerError:
		return "服務器內部錯誤，請稍後再試"
	case e.StatusCode == http.StatusForbidden:
		return "API 訪問被拒絕，請檢查權限設置"
	case e.StatusCode >= 400 && e.StatusCode < 500:
		return "請求格式錯誤，請檢查發送的數據"
	default:
		return fmt.Sprintf("API 請求失敗: %d %s", e.StatusCode, e.Status)
	}
}
