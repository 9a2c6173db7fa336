package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response 统一的接口响应
type Response struct {
	Code    int    `json:"code"`
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// OK 成功响应
func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{Code: http.StatusOK, Success: true, Message: "ok", Data: data})
}

// Created 创建成功响应
func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, Response{Code: http.StatusCreated, Success: true, Message: "created", Data: data})
}

// Fail 失败响应
func Fail(c *gin.Context, status int, message string, err error) {
	resp := Response{Code: status, Success: false, Message: message}
	if err != nil {
		resp.Error = err.Error()
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, resp)
}
