package stream

import (
	"fmt"
	"io"
	"net/http"
)

// WriteEvent 写出一个 data 事件，w 支持 http.Flusher 时立即刷新
func WriteEvent(w io.Writer, data string) error {
	if _, err := fmt.Fprintf(w, "%s%s\n\n", dataPrefix, data); err != nil {
		return fmt.Errorf("写入事件失败: %w", err)
	}
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}

// WriteDone 写出结束标记
func WriteDone(w io.Writer) error {
	return WriteEvent(w, doneSentinel)
}
