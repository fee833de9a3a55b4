package game

import (
	"time"

	"github.com/wfunc/idle-miner/internal/errors"
	"github.com/wfunc/idle-miner/internal/notify"
)

// 一年按分钟计的质押收益分母。
// 注意：历史行为是每秒按"每分钟应得"累加（约60倍于名义年化），
// 这里保留观测到的行为而不是修正它。
const minutesPerYear = 365 * 24 * 60

// tickerTask 可取消的后台周期任务
type tickerTask struct {
	stop chan struct{}
}

// syncTickersLocked 按当前状态幂等启停后台定时器：
// 质押收益在staked>0时运行，自动挖矿在速率>0时运行。
// 条件消失即停止，重新满足时重建，不会累积重复的定时器。
func (s *Store) syncTickersLocked() {
	if s.state.StakedAmount > 0 {
		if s.stakingTask == nil {
			s.stakingTask = s.startTask(s.AccrueStakingYield)
		}
	} else {
		s.stopTaskLocked(&s.stakingTask)
	}

	if s.state.AutoMineRate() > 0 {
		if s.autoMineTask == nil {
			s.autoMineTask = s.startTask(s.AutoMineTick)
		}
	} else {
		s.stopTaskLocked(&s.autoMineTask)
	}
}

// startTask 启动每个tick调用一次fn的后台任务
func (s *Store) startTask(fn func()) *tickerTask {
	task := &tickerTask{stop: make(chan struct{})}

	go func() {
		ticker := time.NewTicker(s.cfg.TickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-task.stop:
				return
			case <-ticker.C:
				fn()
			}
		}
	}()

	return task
}

// stopTaskLocked 停止并清空任务引用
func (s *Store) stopTaskLocked(task **tickerTask) {
	if *task != nil {
		close((*task).stop)
		*task = nil
	}
}

// AccrueStakingYield 质押收益tick：
// 每次向可领取余额累加 staked × APY / (365×24×60)。
func (s *Store) AccrueStakingYield() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.StakedAmount <= 0 {
		return
	}

	reward := s.state.StakedAmount * s.cfg.StakingAPY / minutesPerYear
	s.state.ClaimableRewards += reward

	s.persistLocked()
	s.publishLocked(EventStateChanged, nil)
}

// AutoMineTick 自动挖矿tick：速率直接入账并计入累计产出。
// 不是点击，不增加totalClicks，也不写交易日志。
func (s *Store) AutoMineTick() {
	s.mu.Lock()
	defer s.mu.Unlock()

	rate := s.state.AutoMineRate()
	if rate <= 0 {
		return
	}

	s.state.TokenBalance += rate
	s.state.TotalMined += rate

	s.persistLocked()
	s.publishLocked(EventStateChanged, nil)
}

// StartSprint 开始挖矿冲刺：临时倍率持续固定秒数的一次性倒计时。
// 已在进行中时拒绝（重入保护）。
func (s *Store) StartSprint() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.IsSprintActive {
		return errors.New(errors.ErrSprintActive)
	}

	s.state.IsSprintActive = true
	s.state.SprintTimeLeft = s.cfg.SprintSeconds

	s.publishLocked(EventSprintStarted, s.cfg.SprintSeconds)
	s.notifier.Info("Mining Sprint Started!",
		"All clicks are worth 2x for 30 seconds!")
	s.sound.Play(notify.CueAchievement)
	s.persistLocked()
	s.publishLocked(EventStateChanged, nil)

	s.stopTaskLocked(&s.sprintTask)
	task := &tickerTask{stop: make(chan struct{})}
	s.sprintTask = task

	go func() {
		ticker := time.NewTicker(s.cfg.TickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-task.stop:
				return
			case <-ticker.C:
				if s.TickSprint() {
					return
				}
			}
		}
	}()

	return nil
}

// TickSprint 冲刺倒计时tick，返回冲刺是否已结束。
// 在将要归零的那一次tick直接置为未激活，不出现剩余0秒的激活态。
func (s *Store) TickSprint() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.IsSprintActive {
		return true
	}

	if s.state.SprintTimeLeft <= 1 {
		s.state.IsSprintActive = false
		s.state.SprintTimeLeft = 0
		s.sprintTask = nil

		s.publishLocked(EventSprintEnded, nil)
		s.notifier.Info("Mining Sprint Ended!", "Great mining session!")
		s.persistLocked()
		s.publishLocked(EventStateChanged, nil)
		return true
	}

	s.state.SprintTimeLeft--
	s.persistLocked()
	s.publishLocked(EventStateChanged, nil)
	return false
}
