package game

import "time"

// Rarity NFT稀有度
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// TxType 交易类型
type TxType string

const (
	TxMine     TxType = "mine"
	TxStake    TxType = "stake"
	TxUnstake  TxType = "unstake"
	TxBuy      TxType = "buy"
	TxCraft    TxType = "craft"
	TxTransfer TxType = "transfer"
	TxClaim    TxType = "claim"
)

// ShopItemType 商店道具类型
type ShopItemType string

const (
	ShopItemBot        ShopItemType = "bot"        // 自动挖矿机器人
	ShopItemMultiplier ShopItemType = "multiplier" // 点击倍率道具
)

// AchievementType 成就进度来源
type AchievementType string

const (
	AchievementClicks   AchievementType = "clicks"
	AchievementSpending AchievementType = "spending"
)

// NFTItem 挖矿装备收藏品
type NFTItem struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	Rarity      Rarity  `json:"rarity"`
	MiningBoost float64 `json:"miningBoost"`
	Image       string  `json:"image"`
	Equipped    bool    `json:"equipped"`
}

// ShopItem 商店目录条目，除owned外不可变
type ShopItem struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	Price        float64      `json:"price"`
	Type         ShopItemType `json:"type"`
	Multiplier   float64      `json:"multiplier"`
	Owned        bool         `json:"owned"`
	Icon         string       `json:"icon"`
	AutoMineRate float64      `json:"autoMineRate,omitempty"`
}

// Achievement 成就条目，unlocked/claimed只允许false→true
type Achievement struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Target      float64         `json:"target"`
	Reward      float64         `json:"reward"`
	Unlocked    bool            `json:"unlocked"`
	Claimed     bool            `json:"claimed"`
	Icon        string          `json:"icon"`
	Type        AchievementType `json:"type"`
}

// Transaction 交易日志条目（追加写，环形上限50条）
type Transaction struct {
	ID          string    `json:"id"`
	Type        TxType    `json:"type"`
	Amount      float64   `json:"amount"`
	Timestamp   time.Time `json:"timestamp"`
	Description string    `json:"description"`
}

// State 游戏状态根聚合，仅由Store持有和修改。
// JSON标签与持久化文档的字段名保持一致。
type State struct {
	WalletConnected  bool          `json:"walletConnected"`
	WalletAddress    string        `json:"walletAddress"` // 截断后的展示地址
	TokenBalance     float64       `json:"tokenBalance"`
	StakedAmount     float64       `json:"stakedAmount"`
	ClaimableRewards float64       `json:"claimableRewards"`
	MiningRate       float64       `json:"miningRate"`
	DailyStreak      int           `json:"dailyStreak"`
	LastClaimDate    string        `json:"lastClaimDate"` // 空串表示从未领取
	ReferralCode     string        `json:"referralCode"`
	NFTs             []NFTItem     `json:"nfts"`
	ShopItems        []ShopItem    `json:"shopItems"`
	Achievements     []Achievement `json:"achievements"`
	Transactions     []Transaction `json:"transactions"` // 最新在前
	TotalMined       float64       `json:"totalMined"`
	TotalClicks      int           `json:"totalClicks"`
	TotalSpent       float64       `json:"totalSpent"`
	Rank             int           `json:"rank"` // 静态占位，不参与计算
	IsSprintActive   bool          `json:"isSprintActive"`
	SprintTimeLeft   int           `json:"sprintTimeLeft"`
}

// 随机铸造的矿机名称
var rigNames = []string{
	"GPU Rig", "ASIC Miner", "Quantum Node", "Neural Network", "Solar Farm", "Hydro Station",
}

// 合成产物名称
var craftedNames = []string{
	"Super GPU", "Fusion Core", "Hyper Processor", "Dark Matter Engine",
}

// initialShopItems 商店固定目录
func initialShopItems() []ShopItem {
	return []ShopItem{
		{ID: "bot1", Name: "Basic Trader", Description: "Automated trading with basic strategies", Price: 100, Type: ShopItemBot, Multiplier: 1.1, Icon: "Bot", AutoMineRate: 1},
		{ID: "bot2", Name: "Algo Trader", Description: "Advanced algorithmic trading patterns", Price: 500, Type: ShopItemBot, Multiplier: 1.25, Icon: "Cpu", AutoMineRate: 2},
		{ID: "bot3", Name: "Quant Engine", Description: "Quantitative analysis powerhouse", Price: 2000, Type: ShopItemBot, Multiplier: 1.5, Icon: "Brain", AutoMineRate: 5},
		{ID: "bot4", Name: "AI Analyst", Description: "AI-powered market predictions", Price: 5000, Type: ShopItemBot, Multiplier: 2, Icon: "Sparkles", AutoMineRate: 10},
		{ID: "bot5", Name: "Whale Tracker", Description: "Follow the big money moves", Price: 10000, Type: ShopItemBot, Multiplier: 3, Icon: "Fish", AutoMineRate: 25},
		{ID: "mult1", Name: "Insider Tips", Description: "Exclusive market intelligence", Price: 750, Type: ShopItemMultiplier, Multiplier: 1.2, Icon: "Eye"},
		{ID: "mult2", Name: "Hedge Fund Access", Description: "Premium institutional strategies", Price: 3000, Type: ShopItemMultiplier, Multiplier: 1.75, Icon: "Shield"},
	}
}

// initialAchievements 成就固定目录
func initialAchievements() []Achievement {
	return []Achievement{
		{ID: "ach1", Name: "Novice Miner", Description: "Reach 1,000 total clicks", Target: 1000, Reward: 500, Icon: "Pickaxe", Type: AchievementClicks},
		{ID: "ach2", Name: "Dedicated Miner", Description: "Reach 10,000 total clicks", Target: 10000, Reward: 2500, Icon: "Star", Type: AchievementClicks},
		{ID: "ach3", Name: "Master Miner", Description: "Reach 100,000 total clicks", Target: 100000, Reward: 15000, Icon: "Crown", Type: AchievementClicks},
		{ID: "ach4", Name: "First Purchase", Description: "Spend 1,000 coins total", Target: 1000, Reward: 250, Icon: "ShoppingBag", Type: AchievementSpending},
	}
}
