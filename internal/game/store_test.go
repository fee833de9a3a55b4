package game

import (
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wfunc/idle-miner/internal/clock"
	"github.com/wfunc/idle-miner/internal/config"
	"github.com/wfunc/idle-miner/internal/errors"
)

// memPersister 内存持久化实现（测试用）
type memPersister struct {
	mu   sync.Mutex
	data []byte
}

func (p *memPersister) SaveState(data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.data = append([]byte(nil), data...)
	return nil
}

func (p *memPersister) LoadState() ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.data == nil {
		return nil, nil
	}
	return append([]byte(nil), p.data...), nil
}

// fixedSource 固定序列随机源（测试用）
type fixedSource struct {
	floats []float64
	ints   []int
	fi, ii int
}

func (f *fixedSource) Float64() float64 {
	if len(f.floats) == 0 {
		return 0
	}
	v := f.floats[f.fi%len(f.floats)]
	f.fi++
	return v
}

func (f *fixedSource) Intn(n int) int {
	if len(f.ints) == 0 {
		return 0
	}
	v := f.ints[f.ii%len(f.ints)]
	f.ii++
	return v % n
}

// testGameConfig 测试配置：超长tick间隔，后台定时器不会自行触发
func testGameConfig() *config.GameConfig {
	return &config.GameConfig{
		BaseMiningRate:   1.0,
		MintCost:         50,
		StakingAPY:       0.15,
		DailyBonusBase:   10,
		StreakCap:        7,
		SprintSeconds:    30,
		SprintMultiplier: 2,
		TickInterval:     time.Hour,
		TransactionCap:   50,
	}
}

// setupStore 创建测试Store，mutate可预置初始状态
func setupStore(t *testing.T, mutate func(*State), rng Source) (*Store, *clock.ManualClock, *memPersister) {
	t.Helper()

	clk := clock.NewManualClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	persister := &memPersister{}

	if mutate != nil {
		st := &State{
			MiningRate:   1,
			Rank:         1,
			ReferralCode: "ILHAMAAAAAA",
			NFTs:         []NFTItem{},
			ShopItems:    initialShopItems(),
			Achievements: initialAchievements(),
			Transactions: []Transaction{},
		}
		mutate(st)
		raw, err := EncodeState(st)
		require.NoError(t, err)
		persister.data = raw
	}

	s, err := NewStore(Options{
		Config:    testGameConfig(),
		Clock:     clk,
		Rand:      rng,
		Persister: persister,
	})
	require.NoError(t, err)
	t.Cleanup(s.Close)

	return s, clk, persister
}

func TestMine_BaseRate(t *testing.T) {
	s, _, _ := setupStore(t, nil, nil)

	amount := s.Mine()
	assert.Equal(t, 1.0, amount)

	state := s.Snapshot()
	assert.Equal(t, 1.0, state.TokenBalance)
	assert.Equal(t, 1.0, state.TotalMined)
	assert.Equal(t, 1, state.TotalClicks)

	require.Len(t, state.Transactions, 1)
	assert.Equal(t, TxMine, state.Transactions[0].Type)
	assert.Equal(t, "Mined 1.00 IGC", state.Transactions[0].Description)
}

func TestMine_MatchesEffectiveRate(t *testing.T) {
	s, _, _ := setupStore(t, func(st *State) {
		st.ShopItems[0].Owned = true // bot1 x1.1
		st.ShopItems[5].Owned = true // mult1 x1.2
		st.NFTs = []NFTItem{
			{ID: "n1", Rarity: RarityRare, MiningBoost: 0.25, Equipped: true},
			{ID: "n2", Rarity: RarityEpic, MiningBoost: 0.50}, // 未装备，不参与
		}
		st.DailyStreak = 2
	}, nil)

	// 1 × (1.1×1.2) × (1+0.25) × (1+0.1×2)
	expected := 1.0 * 1.1 * 1.2 * 1.25 * 1.2
	assert.InDelta(t, expected, s.EffectiveRate(), 1e-9)
	assert.InDelta(t, expected, s.Mine(), 1e-9)
}

func TestStake_And_Unstake(t *testing.T) {
	s, _, _ := setupStore(t, func(st *State) {
		st.TokenBalance = 100
	}, nil)

	require.NoError(t, s.Stake(40))
	state := s.Snapshot()
	assert.Equal(t, 60.0, state.TokenBalance)
	assert.Equal(t, 40.0, state.StakedAmount)

	// 超额质押被拒绝，状态不变
	err := s.Stake(100)
	assert.Equal(t, errors.ErrInsufficientBalance, errors.GetCode(err))
	assert.Equal(t, 60.0, s.Snapshot().TokenBalance)

	err = s.Stake(-5)
	assert.Equal(t, errors.ErrInvalidParam, errors.GetCode(err))

	err = s.Unstake(50)
	assert.Equal(t, errors.ErrInsufficientStake, errors.GetCode(err))

	require.NoError(t, s.Unstake(40))
	state = s.Snapshot()
	assert.Equal(t, 100.0, state.TokenBalance)
	assert.Equal(t, 0.0, state.StakedAmount)
}

func TestClaimRewards(t *testing.T) {
	s, _, _ := setupStore(t, func(st *State) {
		st.ClaimableRewards = 5
	}, nil)

	require.NoError(t, s.ClaimRewards())
	state := s.Snapshot()
	assert.Equal(t, 5.0, state.TokenBalance)
	assert.Equal(t, 0.0, state.ClaimableRewards)

	err := s.ClaimRewards()
	assert.Equal(t, errors.ErrNothingToClaim, errors.GetCode(err))
}

func TestClaimDailyBonus_StreakProgression(t *testing.T) {
	s, clk, _ := setupStore(t, nil, nil)

	// 首次领取：连续1天，+10
	require.NoError(t, s.ClaimDailyBonus())
	state := s.Snapshot()
	assert.Equal(t, 1, state.DailyStreak)
	assert.Equal(t, 10.0, state.TokenBalance)

	// 同一天重复领取被拒绝
	err := s.ClaimDailyBonus()
	assert.Equal(t, errors.ErrAlreadyClaimedToday, errors.GetCode(err))

	// 第二天连续领取：连续2天，+20
	clk.Advance(24 * time.Hour)
	require.NoError(t, s.ClaimDailyBonus())
	state = s.Snapshot()
	assert.Equal(t, 2, state.DailyStreak)
	assert.Equal(t, 30.0, state.TokenBalance)

	// 隔了一天：连续天数重置为1
	clk.Advance(48 * time.Hour)
	require.NoError(t, s.ClaimDailyBonus())
	state = s.Snapshot()
	assert.Equal(t, 1, state.DailyStreak)
	assert.Equal(t, 40.0, state.TokenBalance)
}

func TestClaimDailyBonus_StreakCap(t *testing.T) {
	s, _, _ := setupStore(t, func(st *State) {
		st.DailyStreak = 7
		st.LastClaimDate = "2025-05-31" // 虚拟时钟起点的前一天
	}, nil)

	require.NoError(t, s.ClaimDailyBonus())
	state := s.Snapshot()
	assert.Equal(t, 7, state.DailyStreak)
	assert.Equal(t, 70.0, state.TokenBalance)
}

func TestBuyShopItem(t *testing.T) {
	s, _, _ := setupStore(t, func(st *State) {
		st.TokenBalance = 100
	}, nil)

	require.NoError(t, s.BuyShopItem("bot1"))
	state := s.Snapshot()
	assert.True(t, state.ShopItems[0].Owned)
	assert.Equal(t, 0.0, state.TokenBalance)
	assert.Equal(t, 100.0, state.TotalSpent)

	err := s.BuyShopItem("bot1")
	assert.Equal(t, errors.ErrItemAlreadyOwned, errors.GetCode(err))

	err = s.BuyShopItem("bot2")
	assert.Equal(t, errors.ErrInsufficientBalance, errors.GetCode(err))

	err = s.BuyShopItem("nosuch")
	assert.Equal(t, errors.ErrNotFound, errors.GetCode(err))
}

func TestMintNFT(t *testing.T) {
	rng := &fixedSource{floats: []float64{0.99}, ints: []int{0}}
	s, _, _ := setupStore(t, func(st *State) {
		st.TokenBalance = 50
	}, rng)

	nft, err := s.MintNFT()
	require.NoError(t, err)
	assert.Equal(t, RarityLegendary, nft.Rarity)
	assert.Equal(t, 1.0, nft.MiningBoost)
	assert.Equal(t, "GPU Rig", nft.Name)

	state := s.Snapshot()
	assert.Equal(t, 0.0, state.TokenBalance)
	assert.Equal(t, 50.0, state.TotalSpent)
	require.Len(t, state.NFTs, 1)

	// 铸造在交易日志中记为buy
	require.NotEmpty(t, state.Transactions)
	assert.Equal(t, TxBuy, state.Transactions[0].Type)
	assert.Equal(t, "Minted legendary GPU Rig", state.Transactions[0].Description)

	_, err = s.MintNFT()
	assert.Equal(t, errors.ErrInsufficientBalance, errors.GetCode(err))
}

func TestCraftItems(t *testing.T) {
	rng := &fixedSource{floats: []float64{0.5}, ints: []int{1}}
	s, _, _ := setupStore(t, func(st *State) {
		st.NFTs = []NFTItem{
			{ID: "a", Rarity: RarityCommon, MiningBoost: 0.10},
			{ID: "b", Rarity: RarityRare, MiningBoost: 0.25},
			{ID: "c", Rarity: RarityEpic, MiningBoost: 0.50},
		}
	}, rng)

	crafted, err := s.CraftItems("a", "b")
	require.NoError(t, err)
	assert.Equal(t, RarityEpic, crafted.Rarity)
	assert.InDelta(t, 0.55, crafted.MiningBoost, 1e-9)

	state := s.Snapshot()
	require.Len(t, state.NFTs, 2)
	assert.Equal(t, "c", state.NFTs[0].ID) // 未参与的材料保持原顺序
	assert.Equal(t, crafted.ID, state.NFTs[1].ID)

	// 合成记录金额为0
	require.NotEmpty(t, state.Transactions)
	assert.Equal(t, TxCraft, state.Transactions[0].Type)
	assert.Equal(t, 0.0, state.Transactions[0].Amount)
}

func TestCraftItems_Invalid(t *testing.T) {
	s, _, _ := setupStore(t, func(st *State) {
		st.NFTs = []NFTItem{{ID: "a", MiningBoost: 0.1}}
	}, nil)

	// 同一件材料
	_, err := s.CraftItems("a", "a")
	assert.Equal(t, errors.ErrInvalidCraftInput, errors.GetCode(err))

	// 材料不存在
	_, err = s.CraftItems("a", "missing")
	assert.Equal(t, errors.ErrInvalidCraftInput, errors.GetCode(err))

	// 状态未被改变
	assert.Len(t, s.Snapshot().NFTs, 1)
}

func TestEquipNFT_Toggle(t *testing.T) {
	s, _, _ := setupStore(t, func(st *State) {
		st.NFTs = []NFTItem{{ID: "a", MiningBoost: 0.25}}
	}, nil)

	require.NoError(t, s.EquipNFT("a"))
	assert.True(t, s.Snapshot().NFTs[0].Equipped)

	require.NoError(t, s.EquipNFT("a"))
	assert.False(t, s.Snapshot().NFTs[0].Equipped)

	err := s.EquipNFT("missing")
	assert.Equal(t, errors.ErrNotFound, errors.GetCode(err))
}

func TestTransfer(t *testing.T) {
	s, _, _ := setupStore(t, func(st *State) {
		st.TokenBalance = 100
	}, nil)

	// 地址前缀非法，状态不变且不写日志
	err := s.Transfer("abc123", 10)
	assert.Equal(t, errors.ErrInvalidAddress, errors.GetCode(err))
	state := s.Snapshot()
	assert.Equal(t, 100.0, state.TokenBalance)
	assert.Empty(t, state.Transactions)

	err = s.Transfer("0xabcdef1234567890", 200)
	assert.Equal(t, errors.ErrInsufficientBalance, errors.GetCode(err))

	require.NoError(t, s.Transfer("0xabcdef1234567890", 30))
	state = s.Snapshot()
	assert.Equal(t, 70.0, state.TokenBalance)
	require.Len(t, state.Transactions, 1)
	assert.Equal(t, TxTransfer, state.Transactions[0].Type)
	assert.Equal(t, "Transferred 30 IGC to 0xabcdef12...", state.Transactions[0].Description)
}

func TestClaimAchievement(t *testing.T) {
	s, _, _ := setupStore(t, func(st *State) {
		st.Achievements[0].Unlocked = true
	}, nil)

	require.NoError(t, s.ClaimAchievement("ach1"))
	state := s.Snapshot()
	assert.Equal(t, 500.0, state.TokenBalance)
	assert.True(t, state.Achievements[0].Claimed)

	// 重复领取
	err := s.ClaimAchievement("ach1")
	assert.Equal(t, errors.ErrAchievementClaimed, errors.GetCode(err))

	// 未解锁
	err = s.ClaimAchievement("ach2")
	assert.Equal(t, errors.ErrAchievementLocked, errors.GetCode(err))

	err = s.ClaimAchievement("nosuch")
	assert.Equal(t, errors.ErrNotFound, errors.GetCode(err))
}

func TestAchievement_UnlockOnSpending(t *testing.T) {
	s, _, _ := setupStore(t, func(st *State) {
		st.TokenBalance = 2000
	}, nil)

	require.NoError(t, s.BuyShopItem("bot3")) // 价格2000，累计消费达标
	state := s.Snapshot()

	var ach4 Achievement
	for _, a := range state.Achievements {
		if a.ID == "ach4" {
			ach4 = a
		}
	}
	assert.True(t, ach4.Unlocked)
	assert.False(t, ach4.Claimed) // 解锁不自动发奖
}

func TestTransactionLog_CapAndOrder(t *testing.T) {
	s, clk, _ := setupStore(t, nil, nil)

	for i := 0; i < 60; i++ {
		clk.Advance(time.Second)
		s.Mine()
	}

	state := s.Snapshot()
	require.Len(t, state.Transactions, 50)

	// 最新在前
	for i := 1; i < len(state.Transactions); i++ {
		assert.True(t, state.Transactions[i-1].Timestamp.After(state.Transactions[i].Timestamp))
	}
}

func TestSubscribe_StateChanged(t *testing.T) {
	s, _, _ := setupStore(t, nil, nil)

	events, cancel := s.Subscribe(16)
	defer cancel()

	s.Mine()

	// publish在Mine持锁期间同步完成，通道里必然已有事件
	select {
	case evt := <-events:
		assert.Equal(t, EventStateChanged, evt.Type)
	default:
		t.Fatal("未收到状态变更事件")
	}
}

func TestReferralCode_Format(t *testing.T) {
	s, _, _ := setupStore(t, nil, nil)

	code := s.Snapshot().ReferralCode
	assert.Regexp(t, regexp.MustCompile(`^ILHAM[0-9A-Z]{6}$`), code)
}

func TestPersistence_RoundTrip(t *testing.T) {
	s, _, persister := setupStore(t, func(st *State) {
		st.TokenBalance = 10
	}, nil)

	s.Mine()
	s.Mine()
	expected := s.Snapshot()
	s.Close()

	restored, err := NewStore(Options{
		Config:    testGameConfig(),
		Clock:     clock.NewManualClock(time.Now()),
		Persister: persister,
	})
	require.NoError(t, err)
	t.Cleanup(restored.Close)

	state := restored.Snapshot()
	assert.Equal(t, expected.TokenBalance, state.TokenBalance)
	assert.Equal(t, expected.TotalClicks, state.TotalClicks)
	assert.Equal(t, expected.ReferralCode, state.ReferralCode)
	assert.Len(t, state.Transactions, len(expected.Transactions))
}

func TestPersistence_InitialStateSavedWithoutMutation(t *testing.T) {
	s, _, persister := setupStore(t, nil, nil)

	first := s.Snapshot().ReferralCode
	require.NotEmpty(t, first)

	persister.mu.Lock()
	saved := persister.data
	persister.mu.Unlock()
	require.NotNil(t, saved, "初始状态应在启动时落盘")

	s.Close()

	restored, err := NewStore(Options{
		Config:    testGameConfig(),
		Clock:     clock.NewManualClock(time.Now()),
		Persister: persister,
	})
	require.NoError(t, err)
	t.Cleanup(restored.Close)

	assert.Equal(t, first, restored.Snapshot().ReferralCode)
}
