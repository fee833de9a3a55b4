package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "github.com/wfunc/idle-miner/internal/errors"
	"github.com/wfunc/idle-miner/internal/game"
)

// GameHandler 游戏操作处理器
type GameHandler struct {
	store  *game.Store
	logger *zap.Logger
}

// NewGameHandler 创建游戏处理器
func NewGameHandler(store *game.Store, logger *zap.Logger) *GameHandler {
	return &GameHandler{
		store:  store,
		logger: logger,
	}
}

// AmountRequest 金额请求
type AmountRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
}

// TransferRequest 转账请求
type TransferRequest struct {
	Address string  `json:"address" binding:"required"`
	Amount  float64 `json:"amount" binding:"required,gt=0"`
}

// CraftRequest 合成请求
type CraftRequest struct {
	Item1ID string `json:"item1_id" binding:"required"`
	Item2ID string `json:"item2_id" binding:"required"`
}

// StateResponse 状态响应，附带派生数值
type StateResponse struct {
	State          game.State `json:"state"`
	EffectiveRate  float64    `json:"effectiveRate"`
	ShopMultiplier float64    `json:"shopMultiplier"`
	NFTBoost       float64    `json:"nftBoost"`
	AutoMineRate   float64    `json:"autoMineRate"`
	HasAutoMining  bool       `json:"hasAutoMining"`
}

// LeaderboardEntry 排行榜条目
type LeaderboardEntry struct {
	Rank   int     `json:"rank"`
	Name   string  `json:"name"`
	Score  float64 `json:"score"`
	Avatar string  `json:"avatar"`
}

// GetState 获取完整状态快照
func (h *GameHandler) GetState(c *gin.Context) {
	state := h.store.Snapshot()
	c.JSON(http.StatusOK, StateResponse{
		State:          state,
		EffectiveRate:  h.store.EffectiveRate(),
		ShopMultiplier: state.ShopMultiplierProduct(),
		NFTBoost:       state.NFTBoostSum(),
		AutoMineRate:   state.AutoMineRate(),
		HasAutoMining:  state.HasAutoMining(),
	})
}

// Mine 手动挖矿
func (h *GameHandler) Mine(c *gin.Context) {
	amount := h.store.Mine()
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"amount":  amount,
		"balance": h.store.Snapshot().TokenBalance,
	})
}

// Stake 质押
func (h *GameHandler) Stake(c *gin.Context) {
	var req AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if err := h.store.Stake(req.Amount); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Unstake 解除质押
func (h *GameHandler) Unstake(c *gin.Context) {
	var req AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if err := h.store.Unstake(req.Amount); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ClaimRewards 领取质押收益
func (h *GameHandler) ClaimRewards(c *gin.Context) {
	if err := h.store.ClaimRewards(); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"balance": h.store.Snapshot().TokenBalance,
	})
}

// ClaimDailyBonus 领取每日签到奖励
func (h *GameHandler) ClaimDailyBonus(c *gin.Context) {
	if err := h.store.ClaimDailyBonus(); err != nil {
		respondError(c, err)
		return
	}
	state := h.store.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"streak":  state.DailyStreak,
		"balance": state.TokenBalance,
	})
}

// BuyShopItem 购买商店道具
func (h *GameHandler) BuyShopItem(c *gin.Context) {
	if err := h.store.BuyShopItem(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// MintNFT 铸造NFT
func (h *GameHandler) MintNFT(c *gin.Context) {
	item, err := h.store.MintNFT()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"item":    item,
	})
}

// CraftItems 合成NFT
func (h *GameHandler) CraftItems(c *gin.Context) {
	var req CraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	item, err := h.store.CraftItems(req.Item1ID, req.Item2ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"item":    item,
	})
}

// EquipNFT 装备/卸下NFT
func (h *GameHandler) EquipNFT(c *gin.Context) {
	if err := h.store.EquipNFT(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Transfer 链上转账
// 前置条件不满足时返回success:false而不是错误状态码。
func (h *GameHandler) Transfer(c *gin.Context) {
	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if err := h.store.Transfer(req.Address, req.Amount); err != nil {
		if apperrors.IsRejected(err) {
			c.JSON(http.StatusOK, gin.H{"success": false})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// StartSprint 开启挖矿冲刺
func (h *GameHandler) StartSprint(c *gin.Context) {
	if err := h.store.StartSprint(); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ClaimAchievement 领取成就奖励
func (h *GameHandler) ClaimAchievement(c *gin.Context) {
	if err := h.store.ClaimAchievement(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"balance": h.store.Snapshot().TokenBalance,
	})
}

// GetLeaderboard 获取排行榜
// 当前为静态示例数据，真实排名不在服务范围内。
func (h *GameHandler) GetLeaderboard(c *gin.Context) {
	entries := []LeaderboardEntry{
		{Rank: 1, Name: "CryptoKing", Score: 125000, Avatar: "👑"},
		{Rank: 2, Name: "WhaleHunter", Score: 98500, Avatar: "🐋"},
		{Rank: 3, Name: "DiamondHands", Score: 75200, Avatar: "💎"},
		{Rank: 4, Name: "MoonWalker", Score: 62100, Avatar: "🌙"},
		{Rank: 5, Name: "DegenMaster", Score: 48900, Avatar: "🎰"},
	}
	c.JSON(http.StatusOK, gin.H{
		"entries": entries,
		"rank":    h.store.Snapshot().Rank,
	})
}

// GetReferral 获取推荐码
func (h *GameHandler) GetReferral(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"code": h.store.Snapshot().ReferralCode,
	})
}

// respondError 统一错误响应
func respondError(c *gin.Context, err error) {
	appErr, ok := err.(*apperrors.AppError)
	if !ok {
		appErr = apperrors.Wrap(err, apperrors.ErrUnknown, "操作失败")
	}
	c.JSON(appErr.HTTPStatus(), apperrors.NewErrorResponse(appErr))
}

// respondBindError 请求参数解析失败
func respondBindError(c *gin.Context, err error) {
	appErr := apperrors.Wrap(err, apperrors.ErrInvalidParam, "请求参数错误")
	c.JSON(http.StatusBadRequest, apperrors.NewErrorResponse(appErr))
}
