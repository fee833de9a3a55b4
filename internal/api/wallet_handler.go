package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/wfunc/idle-miner/internal/game"
	"github.com/wfunc/idle-miner/internal/wallet"
)

// WalletHandler 钱包桥接处理器
type WalletHandler struct {
	connector *wallet.Connector
	store     *game.Store
	logger    *zap.Logger
}

// NewWalletHandler 创建钱包处理器
func NewWalletHandler(connector *wallet.Connector, store *game.Store, logger *zap.Logger) *WalletHandler {
	return &WalletHandler{
		connector: connector,
		store:     store,
		logger:    logger,
	}
}

// Connect 连接钱包
func (h *WalletHandler) Connect(c *gin.Context) {
	if err := h.connector.Connect(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"address": h.store.Snapshot().WalletAddress,
	})
}

// Disconnect 断开钱包
func (h *WalletHandler) Disconnect(c *gin.Context) {
	if err := h.connector.Disconnect(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
