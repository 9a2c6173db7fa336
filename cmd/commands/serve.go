package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"chat_widget_mini/internal/logger"
	"chat_widget_mini/internal/middleware"
	"chat_widget_mini/internal/routes"
	"chat_widget_mini/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动HTTP服务",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	hub := services.NewHub()
	a.manager.OnChange(hub.PublishSnapshot)
	go hub.Run(ctx)
	go a.manager.Run(ctx, cfg.Session.SweepInterval)

	gin.SetMode(cfg.Server.Mode)
	engine := gin.New()
	middleware.Setup(engine, a.metrics)
	if err := routes.RegisterRoutes(engine, routes.Deps{
		Config:   cfg,
		Manager:  a.manager,
		Hub:      hub,
		Store:    a.store,
		Metrics:  a.metrics,
		Upstream: a.client,
	}); err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Module("server").Info().Str("addr", addr).Msg("HTTP服务启动")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP服务异常退出: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Module("server").Info().Msg("正在关闭HTTP服务")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("关闭HTTP服务失败: %w", err)
	}
	return nil
}
