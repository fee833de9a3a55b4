package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/wfunc/idle-miner/internal/api"
	"github.com/wfunc/idle-miner/internal/config"
	"github.com/wfunc/idle-miner/internal/errors"
	"github.com/wfunc/idle-miner/internal/game"
	"github.com/wfunc/idle-miner/internal/logger"
	"github.com/wfunc/idle-miner/internal/notify"
	"github.com/wfunc/idle-miner/internal/storage"
	"github.com/wfunc/idle-miner/internal/wallet"
	ws "github.com/wfunc/idle-miner/internal/websocket"
)

// 版本信息
var (
	Version   = "1.0.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Server 服务器实例
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	db        *gorm.DB
	store     *game.Store
	connector *wallet.Connector
	hub       *ws.Hub
	httpSrv   *http.Server

	// 关闭控制
	shutdownCh chan struct{}
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
}

func main() {
	// 命令行参数
	var (
		configPath  = flag.String("config", "", "配置文件路径")
		showVersion = flag.Bool("version", false, "显示版本信息")
		showHelp    = flag.Bool("help", false, "显示帮助信息")
	)

	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if *showHelp {
		printHelp()
		os.Exit(0)
	}

	// 加载配置
	if err := config.Init(*configPath); err != nil {
		fmt.Printf("加载配置失败: %v\n", err)
		os.Exit(1)
	}

	cfg := config.Get()

	// 初始化日志系统
	if err := logger.Init(&cfg.Log); err != nil {
		fmt.Printf("初始化日志失败: %v\n", err)
		os.Exit(1)
	}

	// 创建服务器实例
	server := NewServer(cfg)

	// 启动服务器
	if err := server.Start(); err != nil {
		logger.Fatal("服务器启动失败", zap.Error(err))
	}

	// 等待退出信号
	server.WaitForShutdown()

	// 优雅关闭
	if err := server.Shutdown(); err != nil {
		logger.Error("服务器关闭失败", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("服务器已安全关闭")
}

// NewServer 创建服务器实例
func NewServer(cfg *config.Config) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	return &Server{
		cfg:        cfg,
		logger:     logger.GetLogger(),
		shutdownCh: make(chan struct{}),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start 启动服务器
func (s *Server) Start() error {
	s.logger.Info("正在启动挖矿游戏服务器...",
		zap.String("version", Version),
		zap.String("mode", s.cfg.Server.Mode),
	)

	if err := s.initComponents(); err != nil {
		return errors.Wrap(err, errors.ErrUnknown, "初始化组件失败")
	}

	s.startServices()

	// 监听配置变化
	config.Watch(func(newCfg *config.Config) {
		s.logger.Info("配置已更新，正在重新加载...")
		s.cfg = newCfg
	})

	s.logger.Info("服务器启动成功",
		zap.String("http", fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)),
	)

	return nil
}

// initComponents 初始化组件
func (s *Server) initComponents() error {
	s.logger.Info("初始化组件...")

	// 本地存储
	db, err := storage.Open(&s.cfg.Storage)
	if err != nil {
		return errors.Wrap(err, errors.ErrStorageConnect, "打开本地存储失败")
	}
	s.db = db
	kv := storage.NewKVRepository(db)

	// 游戏状态仓库
	store, err := game.NewStore(game.Options{
		Config:    &s.cfg.Game,
		Persister: storage.NewStateStore(kv, s.cfg.Storage.StateKey),
		Notifier:  notify.NewZapNotifier(s.logger),
		Sound:     notify.NewZapSoundPlayer(s.logger),
		Logger:    s.logger,
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrStateDecode, "初始化游戏状态失败")
	}
	s.store = store

	// 钱包桥接
	s.connector = wallet.NewConnector(nil, store, kv, s.cfg.Storage.WalletKey, notify.NewZapNotifier(s.logger), s.logger)
	if s.cfg.Wallet.Enabled {
		if err := s.connector.Resume(s.ctx); err != nil {
			s.logger.Warn("恢复钱包会话失败", zap.Error(err))
		}
		s.connector.Watch(s.ctx)
	}

	// WebSocket推送中心
	s.hub = ws.NewHub(store, s.logger)

	// HTTP路由
	router := api.NewRouter(store, s.connector, s.hub, s.cfg, s.logger)
	s.httpSrv = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port),
		Handler:      router.Engine(),
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	s.logger.Info("所有组件初始化完成")
	return nil
}

// startServices 启动服务
func (s *Server) startServices() {
	s.logger.Info("启动服务...")

	// WebSocket推送中心
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.hub.Run()
	}()

	// HTTP服务器
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP服务器异常退出", zap.Error(err))
		}
	}()

	s.logger.Info("所有服务启动完成")
}

// WaitForShutdown 等待关闭信号
func (s *Server) WaitForShutdown() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)

	sig := <-sigCh
	s.logger.Info("收到退出信号", zap.String("signal", sig.String()))

	close(s.shutdownCh)
}

// Shutdown 优雅关闭服务器
func (s *Server) Shutdown() error {
	s.logger.Info("正在优雅关闭服务器...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	// 停止接收新请求
	if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("HTTP服务器关闭超时", zap.Error(err))
	}

	// 停止推送并断开客户端
	s.hub.Stop()

	// 取消主上下文，触发所有goroutine退出
	s.cancel()

	// 等待所有服务关闭
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("所有服务已正常关闭")
	case <-shutdownCtx.Done():
		s.logger.Warn("关闭超时，强制退出")
		return errors.New(errors.ErrTimeout, "关闭超时")
	}

	if err := s.closeComponents(); err != nil {
		s.logger.Error("关闭组件失败", zap.Error(err))
		return err
	}

	// 同步日志
	if err := logger.Sync(); err != nil {
		fmt.Printf("同步日志失败: %v\n", err)
	}

	return nil
}

// closeComponents 关闭组件
func (s *Server) closeComponents() error {
	s.logger.Info("关闭组件...")

	// 取消钱包订阅
	s.connector.Close()

	// 落盘最终状态并停止游戏定时器
	s.store.Close()

	// 关闭数据库连接
	if s.db != nil {
		if sqlDB, err := s.db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				s.logger.Error("关闭数据库失败", zap.Error(err))
			}
		}
	}

	s.logger.Info("所有组件已关闭")
	return nil
}

// printVersion 打印版本信息
func printVersion() {
	fmt.Printf("Idle Miner Game Server\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Time: %s\n", BuildTime)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}

// printHelp 打印帮助信息
func printHelp() {
	fmt.Println("Idle Miner Game Server")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  server [options]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -config string   配置文件路径")
	fmt.Println("  -version         显示版本信息")
	fmt.Println("  -help            显示帮助信息")
}
