package game

import "fmt"

// evaluateAchievementsLocked 成就评估钩子。
// 每次交易收尾时确定性地执行（替代按字段变化的隐式触发）：
// 对每个未解锁成就比较进度与目标，达标即解锁并发出一次性通知。
// 解锁不发放奖励，领取是独立的显式操作（ClaimAchievement）。
func (s *Store) evaluateAchievementsLocked() {
	for i := range s.state.Achievements {
		ach := &s.state.Achievements[i]
		if ach.Unlocked {
			continue
		}

		var progress float64
		switch ach.Type {
		case AchievementClicks:
			progress = float64(s.state.TotalClicks)
		case AchievementSpending:
			progress = s.state.TotalSpent
		}

		if progress >= ach.Target {
			ach.Unlocked = true
			s.publishLocked(EventAchievementUnlocked, *ach)
			s.notifier.Success(
				fmt.Sprintf("Achievement Unlocked: %s!", ach.Name),
				fmt.Sprintf("Reward: +%.0f IGC available to claim!", ach.Reward),
			)
		}
	}
}

// AchievementProgress 成就的当前进度（展示用）
func (s *Store) AchievementProgress(achievementID string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ach := range s.state.Achievements {
		if ach.ID != achievementID {
			continue
		}
		switch ach.Type {
		case AchievementClicks:
			return float64(s.state.TotalClicks)
		case AchievementSpending:
			return s.state.TotalSpent
		}
	}
	return 0
}
