// Package logger 基于 zerolog 提供全局结构化日志
package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	mu   sync.RWMutex
	base = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.DateTime}).
		With().Timestamp().Logger()
)

// Options 日志选项
type Options struct {
	Level  string    // debug/info/warn/error
	Format string    // console/json
	Output io.Writer // 默认 os.Stderr
}

// Setup 初始化全局日志
func Setup(opts Options) {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	var zl zerolog.Logger
	if opts.Format == "json" {
		zl = zerolog.New(out)
	} else {
		zl = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.DateTime})
	}
	zl = zl.Level(parseLevel(opts.Level)).With().Timestamp().Str("service", "chat_widget_mini").Logger()

	mu.Lock()
	base = zl
	mu.Unlock()
}

// Get 返回全局日志
func Get() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := base
	return &l
}

// Module 返回带模块名的日志
func Module(name string) *zerolog.Logger {
	l := Get().With().Str("module", name).Logger()
	return &l
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}
