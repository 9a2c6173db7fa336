// Package routes 注册HTTP路由
package routes

import (
	"fmt"

	"chat_widget_mini/internal/config"
	"chat_widget_mini/internal/handlers"
	"chat_widget_mini/internal/history"
	"chat_widget_mini/internal/metrics"
	"chat_widget_mini/internal/services"

	"github.com/gin-gonic/gin"
)

// Deps 路由依赖
type Deps struct {
	Config   *config.Config
	Manager  *services.Manager
	Hub      *services.Hub
	Store    history.Store
	Metrics  *metrics.Metrics
	Upstream handlers.Pinger
}

// RegisterRoutes 注册所有路由
func RegisterRoutes(r *gin.Engine, d Deps) error {
	system := handlers.NewSystemHandler(d.Manager, d.Upstream)
	r.GET("/", system.Root)
	r.GET("/health", system.Health)
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}

	// 嵌入式组件
	r.GET("/widget/config", handlers.WidgetConfig)
	if d.Config.Static.Dir != "" {
		r.Static(d.Config.Static.Prefix, d.Config.Static.Dir)
	}

	// 开发代理和本地对话记录
	proxy, err := handlers.NewProxyHandler(d.Config.Flowise.URL)
	if err != nil {
		return fmt.Errorf("创建代理失败: %w", err)
	}
	r.POST("/api/chat", proxy.Handle)

	historyHandler := handlers.NewHistoryHandler(d.Store, d.Metrics, d.Config.History.DefaultPath)
	r.GET("/local_chat_history", historyHandler.Get)
	r.POST("/local_chat_history", historyHandler.Save)

	RegisterSessionRoutes(r, d.Manager)

	ws := handlers.NewWSHandler(d.Manager, d.Hub, d.Config.WebSocket)
	r.GET("/ws/chat", ws.HandleWebSocket)
	return nil
}

// RegisterSessionRoutes 注册会话接口
func RegisterSessionRoutes(r *gin.Engine, manager *services.Manager) {
	h := handlers.NewSessionHandler(manager)

	g := r.Group("/api/sessions")
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.DELETE("/:id", h.Delete)
	g.POST("/:id/messages", h.Send)
	g.POST("/:id/options/:key", h.Option)
	g.POST("/:id/messages/:msgID/more", h.LoadMore)
	g.POST("/:id/messages/:msgID/products/:productID/click", h.ClickProduct)
	g.POST("/:id/login", h.Login)
	g.DELETE("/:id/login", h.CloseLogin)
	g.POST("/:id/menu", h.Menu)
	g.POST("/:id/search-prompt", h.SearchPrompt)
}
