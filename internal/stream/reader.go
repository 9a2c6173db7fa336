// Package stream 读取 text/event-stream 格式的对话回复
package stream

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"
)

const (
	dataPrefix   = "data: "
	doneSentinel = "done"

	// 单个事件的最大长度
	maxEventSize = 1 << 20
)

var (
	eventDelimiter    = []byte("\n\n")
	innerDataPattern  = regexp.MustCompile(`data:\s*`)
	trailingDoneRegex = regexp.MustCompile(`done$`)
)

// splitEvents bufio.SplitFunc，按空行切分事件
//
// 数据会一直缓存到读到完整的分隔符，跨读取边界的事件和多字节字符不会被截断。
func splitEvents(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.Index(data, eventDelimiter); i >= 0 {
		return i + len(eventDelimiter), data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// Each 逐个回调事件中的数据部分，已丢弃结束标记
func Each(ctx context.Context, r io.Reader, fn func(data string) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxEventSize)
	scanner.Split(splitEvents)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		event := scanner.Text()
		if strings.Contains(event, doneSentinel) {
			continue
		}
		if !strings.HasPrefix(event, dataPrefix) {
			continue
		}

		data := innerDataPattern.ReplaceAllString(strings.TrimPrefix(event, dataPrefix), "")
		if data == "" {
			continue
		}
		if err := fn(data); err != nil {
			return fmt.Errorf("处理事件失败: %w", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("读取事件流失败: %w", err)
	}
	return ctx.Err()
}

// ReadAll 读取完整的事件流并拼接为文本
func ReadAll(ctx context.Context, r io.Reader) (string, error) {
	var b strings.Builder
	err := Each(ctx, r, func(data string) error {
		b.WriteString(data)
		return nil
	})
	if err != nil {
		return "", err
	}
	return Finish(b.String()), nil
}

// Finish 去掉结尾的结束标记与首尾空白
func Finish(text string) string {
	return strings.TrimSpace(trailingDoneRegex.ReplaceAllString(text, ""))
}
