package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"chat_widget_mini/internal/services"

	"github.com/gin-gonic/gin"
)

// SessionHandler 会话接口
type SessionHandler struct {
	manager *services.Manager
}

// NewSessionHandler 创建会话处理器
func NewSessionHandler(manager *services.Manager) *SessionHandler {
	return &SessionHandler{manager: manager}
}

type createSessionRequest struct {
	HistoryPath string `json:"historyPath"`
	VisitorID   string `json:"visitorId"`
}

type sendMessageRequest struct {
	Text string `json:"text" binding:"required"`
}

// Create 创建会话
func (h *SessionHandler) Create(c *gin.Context) {
	var req createSessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			Fail(c, http.StatusBadRequest, "請求格式錯誤", err)
			return
		}
	}
	if req.HistoryPath == "" {
		req.HistoryPath = c.Query("history-path")
	}
	if req.VisitorID == "" {
		req.VisitorID = c.Query("visitor_id")
	}

	s := h.manager.CreateForVisitor(c.Request.Context(), req.HistoryPath, req.VisitorID)
	Created(c, s.Snapshot())
}

// Get 获取会话状态
func (h *SessionHandler) Get(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	OK(c, s.Snapshot())
}

// Delete 删除会话
func (h *SessionHandler) Delete(c *gin.Context) {
	if !h.manager.Remove(c.Param("id")) {
		Fail(c, http.StatusNotFound, "會話不存在", services.ErrSessionNotFound)
		return
	}
	OK(c, nil)
}

// Send 发送消息，等待回复后返回
func (h *SessionHandler) Send(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, "請求格式錯誤", err)
		return
	}

	final, err := s.Send(c.Request.Context(), req.Text)
	if err != nil {
		h.fail(c, err)
		return
	}
	OK(c, gin.H{"message": final, "session": s.Snapshot()})
}

// Option 点击快捷选项
func (h *SessionHandler) Option(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	if err := s.ClickOption(c.Request.Context(), c.Param("key")); err != nil {
		h.fail(c, err)
		return
	}
	OK(c, s.Snapshot())
}

// LoadMore 查看更多
func (h *SessionHandler) LoadMore(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	msgID, ok := messageID(c)
	if !ok {
		return
	}
	count, err := s.LoadMore(c.Request.Context(), msgID)
	if err != nil {
		h.fail(c, err)
		return
	}
	OK(c, gin.H{"displayedCount": count, "session": s.Snapshot()})
}

// Login 模拟登录
func (h *SessionHandler) Login(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	s.Login(c.Request.Context())
	OK(c, s.Snapshot())
}

// CloseLogin 关闭登录弹窗
func (h *SessionHandler) CloseLogin(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	s.CloseLoginModal()
	OK(c, s.Snapshot())
}

// Menu 回到主选单
func (h *SessionHandler) Menu(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	s.BackToMenu(c.Request.Context())
	OK(c, s.Snapshot())
}

// SearchPrompt 显示搜索提示
func (h *SessionHandler) SearchPrompt(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	s.SearchPrompt(c.Request.Context())
	OK(c, s.Snapshot())
}

// ClickProduct 点击商品
func (h *SessionHandler) ClickProduct(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	msgID, ok := messageID(c)
	if !ok {
		return
	}
	if err := s.ClickProduct(c.Request.Context(), msgID, c.Param("productID")); err != nil {
		h.fail(c, err)
		return
	}
	OK(c, s.Snapshot())
}

func (h *SessionHandler) session(c *gin.Context) (*services.Session, bool) {
	s, err := h.manager.Get(c.Param("id"))
	if err != nil {
		Fail(c, http.StatusNotFound, "會話不存在", err)
		return nil, false
	}
	return s, true
}

func (h *SessionHandler) fail(c *gin.Context, err error) {
	status, message := statusFor(err)
	Fail(c, status, message, err)
}

func messageID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("msgID"), 10, 64)
	if err != nil {
		Fail(c, http.StatusBadRequest, "無效的消息ID", err)
		return 0, false
	}
	return id, true
}

// statusFor 会话错误对应的状态码和提示
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrEmptyInput):
		return http.StatusBadRequest, "訊息內容不能為空"
	case errors.Is(err, services.ErrSessionBusy):
		return http.StatusConflict, "上一則訊息仍在處理中"
	case errors.Is(err, services.ErrSessionNotFound):
		return http.StatusNotFound, "會話不存在"
	case errors.Is(err, services.ErrMessageNotFound), errors.Is(err, services.ErrProductNotFound):
		return http.StatusNotFound, "找不到指定的內容"
	case errors.Is(err, services.ErrUnknownOption):
		return http.StatusBadRequest, "未知的選項"
	case errors.Is(err, errUnknownFrame):
		return http.StatusBadRequest, "未知的訊息類型"
	case errors.Is(err, services.ErrNotPaginated):
		return http.StatusUnprocessableEntity, "此訊息沒有更多內容"
	default:
		return http.StatusInternalServerError, "伺服器內部錯誤"
	}
}
