package game

// 派生值计算。全部为纯函数，不修改状态。

// 连续签到的每日加成步长
const streakBonusStep = 0.1

// ShopMultiplierProduct 已拥有商店道具的倍率乘积（空积为1）
func (s *State) ShopMultiplierProduct() float64 {
	product := 1.0
	for _, item := range s.ShopItems {
		if item.Owned {
			product *= item.Multiplier
		}
	}
	return product
}

// NFTBoostSum 已装备NFT的挖矿加成之和（空和为0）
func (s *State) NFTBoostSum() float64 {
	sum := 0.0
	for _, nft := range s.NFTs {
		if nft.Equipped {
			sum += nft.MiningBoost
		}
	}
	return sum
}

// HasAutoMining 是否拥有任意自动挖矿机器人
func (s *State) HasAutoMining() bool {
	for _, item := range s.ShopItems {
		if item.Type == ShopItemBot && item.Owned {
			return true
		}
	}
	return false
}

// AutoMineRate 已拥有机器人的每秒被动产出之和
func (s *State) AutoMineRate() float64 {
	rate := 0.0
	for _, item := range s.ShopItems {
		if item.Type == ShopItemBot && item.Owned {
			rate += item.AutoMineRate
		}
	}
	return rate
}

// effectiveRate 当前单次挖矿产出。
// 必须与下一次Mine()的返回值严格一致。
func effectiveRate(s *State, sprintMultiplier float64) float64 {
	rate := s.MiningRate * s.ShopMultiplierProduct() * (1 + s.NFTBoostSum())
	rate *= 1 + streakBonusStep*float64(s.DailyStreak)
	if s.IsSprintActive {
		rate *= sprintMultiplier
	}
	return rate
}
