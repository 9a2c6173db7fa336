package handlers

import (
	"chat_widget_mini/internal/models"

	"github.com/gin-gonic/gin"
)

// WidgetConfig 返回嵌入式组件补全后的配置
func WidgetConfig(c *gin.Context) {
	OK(c, models.ResolveWidgetConfig(c.Query("api-url"), c.Query("history-path")))
}
