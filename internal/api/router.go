package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/wfunc/idle-miner/internal/config"
	"github.com/wfunc/idle-miner/internal/game"
	"github.com/wfunc/idle-miner/internal/middleware"
	"github.com/wfunc/idle-miner/internal/wallet"
	ws "github.com/wfunc/idle-miner/internal/websocket"
)

// Router API路由器
type Router struct {
	engine        *gin.Engine
	store         *game.Store
	hub           *ws.Hub
	gameHandler   *GameHandler
	walletHandler *WalletHandler
	log           *zap.Logger
}

// NewRouter 创建路由器
func NewRouter(store *game.Store, connector *wallet.Connector, hub *ws.Hub, cfg *config.Config, log *zap.Logger) *Router {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()

	// 全局中间件
	engine.Use(middleware.Recovery())
	engine.Use(middleware.RequestLogger())
	if cfg.Security.RateLimit.Enabled {
		engine.Use(middleware.NewRateLimitMiddleware(cfg.Security.RateLimit).Limit())
	}

	router := &Router{
		engine:        engine,
		store:         store,
		hub:           hub,
		gameHandler:   NewGameHandler(store, log),
		walletHandler: NewWalletHandler(connector, store, log),
		log:           log,
	}

	router.setupRoutes()

	return router
}

// setupRoutes 设置路由
func (r *Router) setupRoutes() {
	// 健康检查
	r.engine.GET("/health", r.healthCheck)

	// WebSocket推送
	r.engine.GET("/ws", r.serveWS)

	// API v1路由组
	v1 := r.engine.Group("/api/v1")
	{
		gameGroup := v1.Group("/game")
		{
			gameGroup.GET("/state", r.gameHandler.GetState)
			gameGroup.POST("/mine", r.gameHandler.Mine)
			gameGroup.POST("/stake", r.gameHandler.Stake)
			gameGroup.POST("/unstake", r.gameHandler.Unstake)
			gameGroup.POST("/rewards/claim", r.gameHandler.ClaimRewards)
			gameGroup.POST("/bonus/claim", r.gameHandler.ClaimDailyBonus)
			gameGroup.POST("/transfer", r.gameHandler.Transfer)
			gameGroup.POST("/sprint", r.gameHandler.StartSprint)
		}

		shop := v1.Group("/shop")
		{
			shop.POST("/items/:id/buy", r.gameHandler.BuyShopItem)
		}

		nft := v1.Group("/nft")
		{
			nft.POST("/mint", r.gameHandler.MintNFT)
			nft.POST("/craft", r.gameHandler.CraftItems)
			nft.POST("/:id/equip", r.gameHandler.EquipNFT)
		}

		achievements := v1.Group("/achievements")
		{
			achievements.POST("/:id/claim", r.gameHandler.ClaimAchievement)
		}

		v1.GET("/leaderboard", r.gameHandler.GetLeaderboard)
		v1.GET("/referral", r.gameHandler.GetReferral)

		walletGroup := v1.Group("/wallet")
		{
			walletGroup.POST("/connect", r.walletHandler.Connect)
			walletGroup.POST("/disconnect", r.walletHandler.Disconnect)
		}
	}
}

// healthCheck 健康检查
func (r *Router) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
		"clients":   r.hub.GetOnlineCount(),
	})
}

// serveWS WebSocket升级入口
func (r *Router) serveWS(c *gin.Context) {
	if err := ws.ServeWS(r.hub, c.Writer, c.Request); err != nil {
		r.log.Error("WebSocket升级失败", zap.Error(err))
	}
}

// Engine 返回底层gin引擎
func (r *Router) Engine() *gin.Engine {
	return r.engine
}
