package game

import (
	"math/rand"
	"time"
)

// Source 均匀随机源，可注入以便测试中产生确定性结果
type Source interface {
	// Float64 返回[0,1)内的均匀随机数
	Float64() float64
	// Intn 返回[0,n)内的均匀随机整数
	Intn(n int) int
}

// NewTimeSource 创建以当前时间为种子的随机源
func NewTimeSource() Source {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// Weighted 权重选项
type Weighted struct {
	Weight float64
	Value  string
}

// Choose 按累计阈值从权重列表中选择一项。
// draw取自[0,1)；权重之和应为1，达不到时回落到首项。
func Choose(items []Weighted, draw float64) string {
	cumulative := 0.0
	for _, item := range items {
		cumulative += item.Weight
		if draw < cumulative {
			return item.Value
		}
	}
	return items[0].Value
}

// 铸造稀有度权重
var rarityWeights = []Weighted{
	{Weight: 0.60, Value: string(RarityCommon)},
	{Weight: 0.25, Value: string(RarityRare)},
	{Weight: 0.12, Value: string(RarityEpic)},
	{Weight: 0.03, Value: string(RarityLegendary)},
}

// 稀有度对应的固定挖矿加成
var rarityBoosts = map[Rarity]float64{
	RarityCommon:    0.10,
	RarityRare:      0.25,
	RarityEpic:      0.50,
	RarityLegendary: 1.00,
}

// rollRarity 按权重掷出铸造稀有度
func rollRarity(rng Source) Rarity {
	return Rarity(Choose(rarityWeights, rng.Float64()))
}

// rollCraftRarity 合成产物稀有度：30%传说，否则史诗
func rollCraftRarity(rng Source) Rarity {
	if rng.Float64() > 0.7 {
		return RarityLegendary
	}
	return RarityEpic
}

// 推荐码字符表（大写base36）
const referralAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// newReferralCode 生成一次性的推荐码
func newReferralCode(rng Source) string {
	code := make([]byte, 6)
	for i := range code {
		code[i] = referralAlphabet[rng.Intn(len(referralAlphabet))]
	}
	return "ILHAM" + string(code)
}
