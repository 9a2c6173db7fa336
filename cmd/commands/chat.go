package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"chat_widget_mini/internal/models"
	"chat_widget_mini/internal/render"
	"chat_widget_mini/internal/services"

	"github.com/spf13/cobra"
)

var (
	chatHistoryPath string
	chatVisitorID   string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "在终端中与 Inky 对话",
	RunE:  runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatHistoryPath, "history-path", "", "对话记录路径，默认使用配置中的路径")
	chatCmd.Flags().StringVar(&chatVisitorID, "visitor", "terminal", "访客ID，相同访客会恢复之前的对话")
	rootCmd.AddCommand(chatCmd)
}

const chatHelp = `可用命令:
  <文字>                 - 发送消息
  /option <gift|order|about> - 点击快捷选项
  /more <消息ID>          - 查看更多商品或订单
  /click <消息ID> <商品ID> - 点击商品
  /search                - 搜索商品
  /login                 - 登录
  /menu                  - 回到主选单
  /save                  - 保存对话记录
  /help                  - 显示帮助
  /quit                  - 退出`

func runChat(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	session := a.manager.CreateForVisitor(ctx, chatHistoryPath, chatVisitorID)
	repl := &chatREPL{session: session, out: cmd.OutOrStdout(), lastID: -1}
	fmt.Fprintln(repl.out, chatHelp)
	repl.printNew()
	return repl.run(ctx, cmd.InOrStdin())
}

// chatREPL 终端对话
type chatREPL struct {
	session *services.Session
	out     io.Writer
	lastID  int64 // 已经打印过的最大消息ID
}

func (r *chatREPL) run(ctx context.Context, in io.Reader) error {
	reader := bufio.NewReader(in)
	for {
		snap := r.session.Snapshot()
		if snap.ShowOptions {
			for _, o := range snap.Options {
				fmt.Fprintf(r.out, "  [/option %s] %s\n", o.Key, o.Text)
			}
		}
		fmt.Fprint(r.out, "> ")

		line, err := reader.ReadString('\n')
		if errors.Is(err, io.EOF) && strings.TrimSpace(line) == "" {
			return nil
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("读取输入失败: %w", err)
		}
		if ctx.Err() != nil {
			return nil
		}

		quit, err := r.handle(ctx, strings.TrimSpace(line))
		if err != nil {
			fmt.Fprintf(r.out, "⚠️ %v\n", err)
		}
		if quit {
			return nil
		}
	}
}

// handle 处理一行输入，返回是否退出
func (r *chatREPL) handle(ctx context.Context, line string) (bool, error) {
	if line == "" {
		return false, nil
	}
	if !strings.HasPrefix(line, "/") {
		fmt.Fprintln(r.out, "⏳ "+services.LoadingText)
		if _, err := r.session.Send(ctx, line); err != nil {
			return false, err
		}
		r.printNew()
		return false, nil
	}

	parts := strings.Fields(line)
	switch parts[0] {
	case "/option":
		if len(parts) != 2 {
			return false, errors.New("用法: /option <gift|order|about>")
		}
		if err := r.session.ClickOption(ctx, parts[1]); err != nil {
			return false, err
		}
		if r.session.Snapshot().ShowLoginModal {
			fmt.Fprintln(r.out, "🔐 需要登入，输入 /login 继续")
		}
	case "/more":
		if len(parts) != 2 {
			return false, errors.New("用法: /more <消息ID>")
		}
		id, err := strconv.ParseUint(parts[1], 10, 64)
		if err != nil {
			return false, fmt.Errorf("无效的消息ID: %s", parts[1])
		}
		if _, err := r.session.LoadMore(ctx, id); err != nil {
			return false, err
		}
		r.printMessage(id)
	case "/click":
		if len(parts) != 3 {
			return false, errors.New("用法: /click <消息ID> <商品ID>")
		}
		id, err := strconv.ParseUint(parts[1], 10, 64)
		if err != nil {
			return false, fmt.Errorf("无效的消息ID: %s", parts[1])
		}
		if err := r.session.ClickProduct(ctx, id, parts[2]); err != nil {
			return false, err
		}
	case "/search":
		r.session.SearchPrompt(ctx)
	case "/login":
		r.session.Login(ctx)
	case "/menu":
		r.session.BackToMenu(ctx)
		r.lastID = -1
	case "/save":
		if err := r.session.Save(ctx); err != nil {
			return false, err
		}
		fmt.Fprintln(r.out, "✅ 已保存")
	case "/help":
		fmt.Fprintln(r.out, chatHelp)
	case "/quit", "/exit":
		return true, nil
	default:
		return false, fmt.Errorf("未知命令: %s", parts[0])
	}
	r.printNew()
	return false, nil
}

// printNew 打印还没显示过的消息
func (r *chatREPL) printNew() {
	for _, m := range r.session.Messages() {
		if int64(m.ID) <= r.lastID {
			continue
		}
		r.print(m)
		r.lastID = int64(m.ID)
	}
	if notice := r.session.Snapshot().SaveError; notice != "" {
		fmt.Fprintln(r.out, "⚠️ "+notice)
	}
}

func (r *chatREPL) printMessage(id uint64) {
	for _, m := range r.session.Messages() {
		if m.ID == id {
			r.print(m)
			return
		}
	}
}

func (r *chatREPL) print(m models.Message) {
	fmt.Fprintln(r.out, render.Text(m))
	if m.Kind == models.KindProductSearch && m.ProductData != nil {
		for _, p := range m.ProductData.Visible() {
			fmt.Fprintf(r.out, "     商品ID: %s\n", p.ID)
		}
	}
}
