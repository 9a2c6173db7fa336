package handlers

import (
	"encoding/json"
	"net/http"

	"chat_widget_mini/internal/history"
	"chat_widget_mini/internal/metrics"
	"chat_widget_mini/internal/models"

	"github.com/gin-gonic/gin"
)

// HistoryHandler 本地对话记录接口，供嵌入式组件在开发环境读写
type HistoryHandler struct {
	store       history.Store
	metrics     *metrics.Metrics
	defaultPath string
}

// NewHistoryHandler 创建对话记录处理器
func NewHistoryHandler(store history.Store, m *metrics.Metrics, defaultPath string) *HistoryHandler {
	if defaultPath == "" {
		defaultPath = models.DefaultHistoryPath
	}
	return &HistoryHandler{store: store, metrics: m, defaultPath: defaultPath}
}

type saveHistoryRequest struct {
	ChatHistory json.RawMessage `json:"chat_history"`
}

func (h *HistoryHandler) key(c *gin.Context) string {
	if p := c.Query("path"); p != "" {
		return p
	}
	return h.defaultPath
}

// Get 读取对话记录，文件不存在时返回空列表
func (h *HistoryHandler) Get(c *gin.Context) {
	messages, err := h.store.Load(c.Request.Context(), h.key(c))
	h.metrics.ObserveHistory("load", err)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":       "error",
			"message":      err.Error(),
			"chat_history": []models.Message{},
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":       "success",
		"chat_history": messages,
	})
}

// Save 保存对话记录
func (h *HistoryHandler) Save(c *gin.Context) {
	var req saveHistoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "請求格式錯誤: " + err.Error()})
		return
	}
	if len(req.ChatHistory) == 0 || string(req.ChatHistory) == "null" {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "沒有提供對話記錄"})
		return
	}

	messages, err := history.Decode(req.ChatHistory)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	err = h.store.Save(c.Request.Context(), h.key(c), history.CleanForSave(messages))
	h.metrics.ObserveHistory("save", err)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}
