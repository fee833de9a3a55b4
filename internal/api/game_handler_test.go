package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wfunc/idle-miner/internal/config"
	"github.com/wfunc/idle-miner/internal/game"
	"github.com/wfunc/idle-miner/internal/wallet"
	ws "github.com/wfunc/idle-miner/internal/websocket"
)

// setupRouter 组装测试路由：无真实钱包提供方，限流关闭
func setupRouter(t *testing.T) (*Router, *game.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := game.NewStore(game.Options{})
	require.NoError(t, err)
	t.Cleanup(store.Close)

	logger := zap.NewNop()
	connector := wallet.NewConnector(nil, store, nil, "connectedWalletAddress", nil, logger)
	hub := ws.NewHub(store, logger)

	cfg := &config.Config{}
	cfg.Server.Mode = "test"

	return NewRouter(store, connector, hub, cfg, logger), store
}

// doRequest 执行一次测试请求
func doRequest(router *Router, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.Engine().ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	router, _ := setupRouter(t)

	w := doRequest(router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
}

func TestGetState(t *testing.T) {
	router, store := setupRouter(t)
	store.Mine()

	w := doRequest(router, http.MethodGet, "/api/v1/game/state", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp StateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1.0, resp.State.TokenBalance)
	assert.Equal(t, 1.0, resp.EffectiveRate)
	assert.Equal(t, 1.0, resp.ShopMultiplier)
	assert.Len(t, resp.State.ShopItems, 7)
}

func TestMineEndpoint(t *testing.T) {
	router, store := setupRouter(t)

	w := doRequest(router, http.MethodPost, "/api/v1/game/mine", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, 1.0, resp["amount"])
	assert.Equal(t, 1, store.Snapshot().TotalClicks)
}

func TestStakeEndpoint(t *testing.T) {
	router, store := setupRouter(t)
	store.Mine() // 余额1

	// 余额不足：422
	w := doRequest(router, http.MethodPost, "/api/v1/game/stake", map[string]interface{}{"amount": 100})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = doRequest(router, http.MethodPost, "/api/v1/game/stake", map[string]interface{}{"amount": 1})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.0, store.Snapshot().StakedAmount)

	// 参数缺失：400
	w = doRequest(router, http.MethodPost, "/api/v1/game/stake", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBuyShopItemEndpoint(t *testing.T) {
	router, store := setupRouter(t)

	// 买不起
	w := doRequest(router, http.MethodPost, "/api/v1/shop/items/bot1/buy", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	// 道具不存在
	w = doRequest(router, http.MethodPost, "/api/v1/shop/items/nosuch/buy", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	for i := 0; i < 100; i++ {
		store.Mine()
	}
	w = doRequest(router, http.MethodPost, "/api/v1/shop/items/bot1/buy", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, store.Snapshot().ShopItems[0].Owned)
}

func TestTransferEndpoint(t *testing.T) {
	router, store := setupRouter(t)
	for i := 0; i < 50; i++ {
		store.Mine()
	}

	// 前置条件不满足时success为false
	w := doRequest(router, http.MethodPost, "/api/v1/game/transfer",
		map[string]interface{}{"address": "invalid", "amount": 10})
	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["success"])

	w = doRequest(router, http.MethodPost, "/api/v1/game/transfer",
		map[string]interface{}{"address": "0xabcdef1234567890", "amount": 10})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, 40.0, store.Snapshot().TokenBalance)
}

func TestSprintEndpoint(t *testing.T) {
	router, store := setupRouter(t)

	w := doRequest(router, http.MethodPost, "/api/v1/game/sprint", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, store.Snapshot().IsSprintActive)

	// 冲刺进行中重复开启：422
	w = doRequest(router, http.MethodPost, "/api/v1/game/sprint", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestLeaderboardEndpoint(t *testing.T) {
	router, _ := setupRouter(t)

	w := doRequest(router, http.MethodGet, "/api/v1/leaderboard", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Entries []LeaderboardEntry `json:"entries"`
		Rank    int                `json:"rank"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Entries, 5)
	assert.Equal(t, "CryptoKing", resp.Entries[0].Name)
	assert.Equal(t, 125000.0, resp.Entries[0].Score)
	assert.Equal(t, 1, resp.Rank)
}

func TestReferralEndpoint(t *testing.T) {
	router, store := setupRouter(t)

	w := doRequest(router, http.MethodGet, "/api/v1/referral", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, store.Snapshot().ReferralCode, resp["code"])
}

func TestWalletConnect_NoProvider(t *testing.T) {
	router, _ := setupRouter(t)

	// 无钱包提供方：502
	w := doRequest(router, http.MethodPost, "/api/v1/wallet/connect", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestClaimAchievementEndpoint(t *testing.T) {
	router, _ := setupRouter(t)

	// 未解锁成就
	w := doRequest(router, http.MethodPost, "/api/v1/achievements/ach1/claim", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = doRequest(router, http.MethodPost, "/api/v1/achievements/nosuch/claim", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
