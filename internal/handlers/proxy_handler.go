package handlers

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"chat_widget_mini/internal/logger"

	"github.com/gin-gonic/gin"
)

// ProxyHandler 开发环境代理，把 /api/* 转发到对话端点，解决跨域问题
type ProxyHandler struct {
	target *url.URL
	proxy  *httputil.ReverseProxy
}

// NewProxyHandler 创建代理，target 为对话端点的基础地址
func NewProxyHandler(target string) (*ProxyHandler, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("解析代理地址失败: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("代理地址缺少协议或主机: %s", target)
	}

	h := &ProxyHandler{target: u}
	h.proxy = &httputil.ReverseProxy{
		Rewrite:        h.rewrite,
		ModifyResponse: addCORSHeaders,
		ErrorHandler:   proxyError,
		// SSE 需要立即转发
		FlushInterval: -1,
	}
	return h, nil
}

// Handle 转发请求
func (h *ProxyHandler) Handle(c *gin.Context) {
	h.proxy.ServeHTTP(c.Writer, c.Request)
}

// rewrite 去掉 /api 前缀并拼接到目标路径上，Host 改为目标主机
func (h *ProxyHandler) rewrite(r *httputil.ProxyRequest) {
	r.SetURL(h.target)
	r.Out.URL.Path = strings.TrimSuffix(h.target.Path, "/") + strings.TrimPrefix(r.In.URL.Path, "/api")
	r.Out.URL.RawPath = ""
	r.SetXForwarded()
}

func addCORSHeaders(resp *http.Response) error {
	resp.Header.Set("Access-Control-Allow-Origin", "*")
	resp.Header.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	resp.Header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	return nil
}

func proxyError(w http.ResponseWriter, r *http.Request, err error) {
	logger.Module("proxy").Error().Err(err).Str("path", r.URL.Path).Msg("代理请求失败")
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = fmt.Fprintf(w, "代理錯誤: %s", err.Error())
}
