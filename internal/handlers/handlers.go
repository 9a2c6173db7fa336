// Package handlers HTTP与WebSocket处理器
package handlers

import (
	"context"
	"net/http"
	"time"

	"chat_widget_mini/internal/services"

	"github.com/gin-gonic/gin"
)

// Pinger 可以检查连通性的上游
type Pinger interface {
	Ping(ctx context.Context) error
}

// SystemHandler 根路由和健康检查
type SystemHandler struct {
	manager  *services.Manager
	upstream Pinger
}

// NewSystemHandler 创建系统处理器，upstream 为 nil 时不检查对话端点
func NewSystemHandler(manager *services.Manager, upstream Pinger) *SystemHandler {
	return &SystemHandler{manager: manager, upstream: upstream}
}

// Root 根路由
func (h *SystemHandler) Root(c *gin.Context) {
	c.String(http.StatusOK, "Chat Widget Mini Server Running")
}

// Health 健康检查，对话端点不可用时仍返回 200，只在 upstream 字段中标记
func (h *SystemHandler) Health(c *gin.Context) {
	body := gin.H{
		"status":   "ok",
		"service":  "chat_widget_mini",
		"time":     time.Now().Format(time.RFC3339),
		"sessions": h.manager.Count(),
	}

	if h.upstream != nil && c.Query("upstream") != "" {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()
		if err := h.upstream.Ping(ctx); err != nil {
			body["upstream"] = "unreachable"
			body["upstream_error"] = err.Error()
		} else {
			body["upstream"] = "ok"
		}
	}

	c.JSON(http.StatusOK, body)
}
