package commands

import (
	"context"
	"fmt"

	"chat_widget_mini/internal/clients/flowise"
	"chat_widget_mini/internal/config"
	"chat_widget_mini/internal/history"
	"chat_widget_mini/internal/logger"
	"chat_widget_mini/internal/metrics"
	"chat_widget_mini/internal/parser"
	"chat_widget_mini/internal/search"
	"chat_widget_mini/internal/services"
)

// app 服务和命令行共用的组件
type app struct {
	client  *flowise.Client
	store   history.Store
	metrics *metrics.Metrics
	manager *services.Manager
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	m := metrics.New()

	store, err := history.NewStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("创建对话记录存储失败: %w", err)
	}

	matcher, err := newMatcher(cfg.Catalog.File)
	if err != nil {
		store.Close()
		return nil, err
	}

	client := flowise.NewClient(flowise.Config{
		Host:         cfg.Flowise.URL,
		FallbackHost: cfg.Flowise.FallbackURL,
		Timeout:      cfg.Flowise.Timeout,
	})

	manager := services.NewManager(services.ManagerOptions{
		Client:             client,
		Store:              store,
		Responder:          services.NewResponder(parser.New(), matcher, m),
		Metrics:            m,
		IdleTTL:            cfg.Session.IdleTTL,
		DefaultHistoryPath: cfg.History.DefaultPath,
	})

	logger.Module("app").Info().
		Str("chat_url", flowise.ChatURL(cfg.Flowise.URL)).
		Str("history_driver", cfg.History.Driver).
		Msg("组件初始化完成")

	return &app{client: client, store: store, metrics: m, manager: manager}, nil
}

// newMatcher 配置了商品目录文件时使用文件中的目录和同义词
func newMatcher(file string) (*search.Matcher, error) {
	if file == "" {
		return search.NewDefaultMatcher(), nil
	}
	catalog, synonyms, err := search.LoadCatalogFile(file)
	if err != nil {
		return nil, fmt.Errorf("加载商品目录失败: %w", err)
	}
	if len(synonyms) == 0 {
		synonyms = search.DefaultSynonyms()
	}
	logger.Module("app").Info().
		Str("file", file).
		Int("products", len(catalog.Products())).
		Int("synonyms", len(synonyms)).
		Msg("加载商品目录")
	return search.NewMatcher(search.NewExpander(synonyms), catalog), nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		logger.Module("app").Warn().Err(err).Msg("关闭对话记录存储失败")
	}
}
