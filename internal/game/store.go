package game

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/wfunc/idle-miner/internal/clock"
	"github.com/wfunc/idle-miner/internal/config"
	"github.com/wfunc/idle-miner/internal/errors"
	"github.com/wfunc/idle-miner/internal/notify"
	"go.uber.org/zap"
)

// Store 游戏状态的唯一持有者和修改者。
// 所有交易要么完整生效要么完全无效：前置条件检查先于任何状态修改，
// 被拒绝的交易返回错误，不写交易日志，不触发持久化。
type Store struct {
	mu    sync.Mutex
	state *State

	cfg       config.GameConfig
	clock     clock.Clock
	rng       Source
	persister Persister
	notifier  notify.Notifier
	sound     notify.SoundPlayer
	log       *zap.Logger

	subscribers map[uint64]chan Event
	nextSubID   uint64

	// 后台定时任务，条件变化时幂等启停
	stakingTask  *tickerTask
	autoMineTask *tickerTask
	sprintTask   *tickerTask

	lastID int64 // 保证时间派生ID在同一时刻内仍然唯一
}

// Options Store的装配选项，零值字段取默认实现
type Options struct {
	Config    *config.GameConfig
	Clock     clock.Clock
	Rand      Source
	Persister Persister
	Notifier  notify.Notifier
	Sound     notify.SoundPlayer
	Logger    *zap.Logger
}

// NewStore 创建Store：先尝试从持久化存储恢复状态，失败或不存在时
// 以默认目录初始化。恢复后按当前状态启动后台定时器。
func NewStore(opts Options) (*Store, error) {
	s := &Store{
		cfg:         defaultGameConfig(opts.Config),
		clock:       opts.Clock,
		rng:         opts.Rand,
		persister:   opts.Persister,
		notifier:    opts.Notifier,
		sound:       opts.Sound,
		log:         opts.Logger,
		subscribers: make(map[uint64]chan Event),
	}

	if s.clock == nil {
		s.clock = clock.RealClock{}
	}
	if s.rng == nil {
		s.rng = NewTimeSource()
	}
	if s.persister == nil {
		s.persister = NopPersister{}
	}
	if s.notifier == nil {
		s.notifier = notify.NopNotifier{}
	}
	if s.sound == nil {
		s.sound = notify.NopSoundPlayer{}
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}

	raw, err := s.persister.LoadState()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrStorageRead)
	}

	if raw != nil {
		state, err := DecodeState(raw)
		if err != nil {
			// 损坏的存档不阻塞启动，按新档处理
			s.log.Warn("状态存档解析失败，使用初始状态", zap.Error(err))
			state = nil
		}
		s.state = state
	}

	if s.state == nil {
		s.state = s.initialState()
	}
	if s.state.ReferralCode == "" {
		s.state.ReferralCode = newReferralCode(s.rng)
	}

	s.mu.Lock()
	// 初始状态（含推荐码）立即落盘，重启不会重新生成
	s.persistLocked()
	s.syncTickersLocked()
	s.mu.Unlock()

	return s, nil
}

// defaultGameConfig 填充游戏配置默认值
func defaultGameConfig(cfg *config.GameConfig) config.GameConfig {
	out := config.GameConfig{
		BaseMiningRate:   1.0,
		MintCost:         50,
		StakingAPY:       0.15,
		DailyBonusBase:   10,
		StreakCap:        7,
		SprintSeconds:    30,
		SprintMultiplier: 2,
		TickInterval:     time.Second,
		TransactionCap:   50,
	}
	if cfg != nil {
		out = *cfg
		if out.BaseMiningRate == 0 {
			out.BaseMiningRate = 1.0
		}
		if out.MintCost == 0 {
			out.MintCost = 50
		}
		if out.StakingAPY == 0 {
			out.StakingAPY = 0.15
		}
		if out.DailyBonusBase == 0 {
			out.DailyBonusBase = 10
		}
		if out.StreakCap == 0 {
			out.StreakCap = 7
		}
		if out.SprintSeconds == 0 {
			out.SprintSeconds = 30
		}
		if out.SprintMultiplier == 0 {
			out.SprintMultiplier = 2
		}
		if out.TickInterval == 0 {
			out.TickInterval = time.Second
		}
		if out.TransactionCap == 0 {
			out.TransactionCap = 50
		}
	}
	return out
}

// initialState 首次会话的初始状态
func (s *Store) initialState() *State {
	return &State{
		MiningRate:   s.cfg.BaseMiningRate,
		ReferralCode: newReferralCode(s.rng),
		NFTs:         []NFTItem{},
		ShopItems:    initialShopItems(),
		Achievements: initialAchievements(),
		Transactions: []Transaction{},
		Rank:         1,
	}
}

// Close 落盘最终状态，停止全部后台定时器并注销订阅者
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.persistLocked()
	s.stopTaskLocked(&s.stakingTask)
	s.stopTaskLocked(&s.autoMineTask)
	s.stopTaskLocked(&s.sprintTask)

	for id, ch := range s.subscribers {
		delete(s.subscribers, id)
		close(ch)
	}
}

// Snapshot 返回当前状态的深拷贝
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() State {
	snap := *s.state
	snap.NFTs = append([]NFTItem(nil), s.state.NFTs...)
	snap.ShopItems = append([]ShopItem(nil), s.state.ShopItems...)
	snap.Achievements = append([]Achievement(nil), s.state.Achievements...)
	snap.Transactions = append([]Transaction(nil), s.state.Transactions...)
	return snap
}

// EffectiveRate 当前单次挖矿产出（与下一次Mine的返回值一致）
func (s *Store) EffectiveRate() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return effectiveRate(s.state, s.cfg.SprintMultiplier)
}

// Mine 手动挖矿。产出 = 基础速率 × 商店倍率乘积 × (1+NFT加成)
// × (1+0.1×连续签到) × 冲刺倍率。永不失败。
func (s *Store) Mine() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	amount := effectiveRate(s.state, s.cfg.SprintMultiplier)

	s.state.TokenBalance += amount
	s.state.TotalMined += amount
	s.state.TotalClicks++

	s.appendTransactionLocked(TxMine, amount, fmt.Sprintf("Mined %.2f IGC", amount))
	s.afterMutationLocked(notify.CueMine)

	return amount
}

// Stake 质押余额
func (s *Store) Stake(amount float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if amount <= 0 {
		return errors.Newf(errors.ErrInvalidParam, "质押数量必须为正: %v", amount)
	}
	if amount > s.state.TokenBalance {
		return errors.Newf(errors.ErrInsufficientBalance, "余额 %.2f < 质押 %.2f", s.state.TokenBalance, amount)
	}

	s.state.TokenBalance -= amount
	s.state.StakedAmount += amount

	s.appendTransactionLocked(TxStake, amount, fmt.Sprintf("Staked %.2f IGC", amount))
	s.afterMutationLocked(notify.CueTransaction)
	return nil
}

// Unstake 解除质押
func (s *Store) Unstake(amount float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if amount <= 0 {
		return errors.Newf(errors.ErrInvalidParam, "解押数量必须为正: %v", amount)
	}
	if amount > s.state.StakedAmount {
		return errors.Newf(errors.ErrInsufficientStake, "已质押 %.2f < 解押 %.2f", s.state.StakedAmount, amount)
	}

	s.state.StakedAmount -= amount
	s.state.TokenBalance += amount

	s.appendTransactionLocked(TxUnstake, amount, fmt.Sprintf("Unstaked %.2f IGC", amount))
	s.afterMutationLocked(notify.CueTransaction)
	return nil
}

// ClaimRewards 领取累计的质押收益
func (s *Store) ClaimRewards() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.ClaimableRewards <= 0 {
		return errors.New(errors.ErrNothingToClaim)
	}

	rewards := s.state.ClaimableRewards
	s.state.TokenBalance += rewards
	s.state.ClaimableRewards = 0

	s.appendTransactionLocked(TxClaim, rewards, fmt.Sprintf("Claimed %.4f IGC staking rewards", rewards))
	s.afterMutationLocked(notify.CueTransaction)
	return nil
}

// ClaimDailyBonus 每日签到。同一天只能领取一次；
// 昨天领取过则连续天数+1（封顶），否则重置为1。奖励 = 10 × 连续天数。
func (s *Store) ClaimDailyBonus() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	today := now.Format("2006-01-02")
	if s.state.LastClaimDate == today {
		return errors.New(errors.ErrAlreadyClaimedToday)
	}

	yesterday := now.AddDate(0, 0, -1).Format("2006-01-02")
	newStreak := 1
	if s.state.LastClaimDate == yesterday {
		newStreak = s.state.DailyStreak + 1
		if newStreak > s.cfg.StreakCap {
			newStreak = s.cfg.StreakCap
		}
	}

	bonus := s.cfg.DailyBonusBase * float64(newStreak)
	s.state.TokenBalance += bonus
	s.state.DailyStreak = newStreak
	s.state.LastClaimDate = today

	s.appendTransactionLocked(TxClaim, bonus, fmt.Sprintf("Daily bonus Day %d: +%.0f IGC", newStreak, bonus))
	s.notifier.Success(fmt.Sprintf("Day %d Bonus Claimed!", newStreak), fmt.Sprintf("+%.0f IGC", bonus))
	s.afterMutationLocked(notify.CueAchievement)
	return nil
}

// BuyShopItem 购买商店道具（每种道具只能买一次）
func (s *Store) BuyShopItem(itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i := range s.state.ShopItems {
		if s.state.ShopItems[i].ID == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return errors.Newf(errors.ErrNotFound, "商店道具不存在: %s", itemID)
	}

	item := &s.state.ShopItems[idx]
	if item.Owned {
		return errors.Newf(errors.ErrItemAlreadyOwned, "%s", item.Name)
	}
	if s.state.TokenBalance < item.Price {
		return errors.Newf(errors.ErrInsufficientBalance, "余额 %.2f < 价格 %.2f", s.state.TokenBalance, item.Price)
	}

	s.state.TokenBalance -= item.Price
	s.state.TotalSpent += item.Price
	item.Owned = true

	s.appendTransactionLocked(TxBuy, item.Price, fmt.Sprintf("Purchased %s", item.Name))

	if item.Type == ShopItemBot {
		s.notifier.Success(item.Name+" Activated!", fmt.Sprintf("Auto-mining at +%g IGC/sec", item.AutoMineRate))
	} else {
		s.notifier.Success(item.Name+" Purchased!", fmt.Sprintf("x%g boost active", item.Multiplier))
	}

	s.afterMutationLocked(notify.CueTransaction)
	return nil
}

// MintNFT 铸造新矿机NFT。固定花费，稀有度按权重随机，
// 加成由稀有度唯一决定。
func (s *Store) MintNFT() (*NFTItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.TokenBalance < s.cfg.MintCost {
		return nil, errors.Newf(errors.ErrInsufficientBalance, "余额 %.2f < 铸造费 %.2f", s.state.TokenBalance, s.cfg.MintCost)
	}

	rarity := rollRarity(s.rng)
	nft := NFTItem{
		ID:          s.timeIDLocked(),
		Name:        rigNames[s.rng.Intn(len(rigNames))],
		Type:        "rig",
		Rarity:      rarity,
		MiningBoost: rarityBoosts[rarity],
		Image:       "/placeholder.svg",
	}

	s.state.TokenBalance -= s.cfg.MintCost
	s.state.TotalSpent += s.cfg.MintCost
	s.state.NFTs = append(s.state.NFTs, nft)

	s.appendTransactionLocked(TxBuy, s.cfg.MintCost, fmt.Sprintf("Minted %s %s", rarity, nft.Name))
	s.notifier.Success("NFT Minted!", fmt.Sprintf("%s %s", strings.ToUpper(string(rarity)), nft.Name))
	s.afterMutationLocked(notify.CueCraft)

	out := nft
	return &out, nil
}

// CraftItems 合成：销毁两件输入NFT，产出一件加成为
// boost1+boost2+0.2的新NFT（30%传说，70%史诗）。
func (s *Store) CraftItems(item1ID, item2ID string) (*NFTItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item1ID == item2ID {
		return nil, errors.New(errors.ErrInvalidCraftInput, "合成材料不能相同")
	}

	var item1, item2 *NFTItem
	for i := range s.state.NFTs {
		switch s.state.NFTs[i].ID {
		case item1ID:
			item1 = &s.state.NFTs[i]
		case item2ID:
			item2 = &s.state.NFTs[i]
		}
	}
	if item1 == nil || item2 == nil {
		return nil, errors.New(errors.ErrInvalidCraftInput, "合成材料不存在")
	}

	rarity := rollCraftRarity(s.rng)
	crafted := NFTItem{
		ID:          s.timeIDLocked(),
		Name:        craftedNames[s.rng.Intn(len(craftedNames))],
		Type:        "rig",
		Rarity:      rarity,
		MiningBoost: item1.MiningBoost + item2.MiningBoost + 0.2,
		Image:       "/placeholder.svg",
	}

	// 移除两件材料，保持其余顺序不变
	kept := s.state.NFTs[:0]
	for _, nft := range s.state.NFTs {
		if nft.ID != item1ID && nft.ID != item2ID {
			kept = append(kept, nft)
		}
	}
	s.state.NFTs = append(kept, crafted)

	s.appendTransactionLocked(TxCraft, 0, fmt.Sprintf("Crafted %s %s", crafted.Rarity, crafted.Name))
	s.notifier.Success("Item Crafted Successfully!", fmt.Sprintf("Created %s %s", strings.ToUpper(string(crafted.Rarity)), crafted.Name))
	s.afterMutationLocked(notify.CueCraft)

	out := crafted
	return &out, nil
}

// EquipNFT 切换NFT的装备状态（无数量上限）
func (s *Store) EquipNFT(nftID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.state.NFTs {
		if s.state.NFTs[i].ID == nftID {
			s.state.NFTs[i].Equipped = !s.state.NFTs[i].Equipped
			s.afterMutationLocked(notify.CueTransaction)
			return nil
		}
	}
	return errors.Newf(errors.ErrNotFound, "NFT不存在: %s", nftID)
}

// 合法转账地址前缀
const transferAddressPrefix = "0x"

// Transfer 向外部地址转账。地址必须以0x开头，金额不能超过余额。
// 失败时状态完全不变。
func (s *Store) Transfer(address string, amount float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !strings.HasPrefix(address, transferAddressPrefix) {
		return errors.Newf(errors.ErrInvalidAddress, "地址必须以 %s 开头", transferAddressPrefix)
	}
	if amount > s.state.TokenBalance {
		return errors.Newf(errors.ErrInsufficientBalance, "余额 %.2f < 转账 %.2f", s.state.TokenBalance, amount)
	}

	s.state.TokenBalance -= amount

	s.appendTransactionLocked(TxTransfer, amount, fmt.Sprintf("Transferred %g IGC to %s...", amount, truncate(address, 10)))
	s.notifier.Success("Transfer Complete!", fmt.Sprintf("%g IGC sent to %s...", amount, truncate(address, 10)))
	s.afterMutationLocked(notify.CueTransaction)
	return nil
}

// ClaimAchievement 领取已解锁成就的奖励（每个成就只能领一次）
func (s *Store) ClaimAchievement(achievementID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i := range s.state.Achievements {
		if s.state.Achievements[i].ID == achievementID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return errors.Newf(errors.ErrNotFound, "成就不存在: %s", achievementID)
	}

	ach := &s.state.Achievements[idx]
	if !ach.Unlocked {
		return errors.Newf(errors.ErrAchievementLocked, "%s", ach.Name)
	}
	if ach.Claimed {
		return errors.Newf(errors.ErrAchievementClaimed, "%s", ach.Name)
	}

	s.state.TokenBalance += ach.Reward
	ach.Claimed = true

	s.appendTransactionLocked(TxClaim, ach.Reward, fmt.Sprintf("Achievement reward: %s", ach.Name))
	s.notifier.Success("Reward Claimed!", fmt.Sprintf("+%.0f IGC", ach.Reward))
	s.afterMutationLocked(notify.CueAchievement)
	return nil
}

// ConnectWallet 记录钱包连接（展示地址已截断，完整地址由桥接层单独存储）
func (s *Store) ConnectWallet(displayAddress string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.WalletConnected = true
	s.state.WalletAddress = displayAddress

	s.publishLocked(EventWalletConnected, displayAddress)
	s.afterMutationLocked(notify.CueTransaction)
}

// UpdateWalletAddress 钱包账户切换时更新展示地址
func (s *Store) UpdateWalletAddress(displayAddress string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.WalletAddress = displayAddress
	s.afterMutationLocked("")
}

// DisconnectWallet 记录钱包断开
func (s *Store) DisconnectWallet() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.WalletConnected = false
	s.state.WalletAddress = ""

	s.publishLocked(EventWalletDisconnected, nil)
	s.afterMutationLocked("")
}

// appendTransactionLocked 追加交易日志（最新在前，超出上限时淘汰最旧）
func (s *Store) appendTransactionLocked(txType TxType, amount float64, description string) {
	t := Transaction{
		ID:          s.timeIDLocked(),
		Type:        txType,
		Amount:      amount,
		Timestamp:   s.clock.Now(),
		Description: description,
	}

	s.state.Transactions = append([]Transaction{t}, s.state.Transactions...)
	if len(s.state.Transactions) > s.cfg.TransactionCap {
		s.state.Transactions = s.state.Transactions[:s.cfg.TransactionCap]
	}
}

// afterMutationLocked 每次成功交易后的统一收尾：
// 成就评估 → 持久化 → 订阅者通知 → 音效 → 定时器启停同步。
func (s *Store) afterMutationLocked(cue notify.SoundCue) {
	s.evaluateAchievementsLocked()
	s.persistLocked()
	s.publishLocked(EventStateChanged, nil)
	if cue != "" {
		s.sound.Play(cue)
	}
	s.syncTickersLocked()
}

// persistLocked 将完整快照写入存储。写入失败只记录日志。
func (s *Store) persistLocked() {
	data, err := EncodeState(s.state)
	if err != nil {
		s.log.Error("状态序列化失败", zap.Error(err))
		return
	}
	if err := s.persister.SaveState(data); err != nil {
		s.log.Error("状态持久化失败", zap.Error(err))
	}
}

// timeIDLocked 生成时间派生的唯一ID
func (s *Store) timeIDLocked() string {
	id := s.clock.Now().UnixNano()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return strconv.FormatInt(id, 10)
}

// truncate 截断字符串到最多n个字节
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
