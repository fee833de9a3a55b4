package game

import (
	"encoding/json"

	"github.com/wfunc/idle-miner/internal/errors"
)

// Persister 状态快照的持久化出口。
// Store在每次变更后写入完整快照；写入失败只记录日志，不回滚交易。
type Persister interface {
	// SaveState 保存完整状态文档
	SaveState(data []byte) error
	// LoadState 读取状态文档，不存在时返回(nil, nil)
	LoadState() ([]byte, error)
}

// NopPersister 丢弃写入的持久化实现（测试用）
type NopPersister struct{}

func (NopPersister) SaveState([]byte) error     { return nil }
func (NopPersister) LoadState() ([]byte, error) { return nil, nil }

// EncodeState 序列化完整状态（时间戳为ISO-8601字符串）
func EncodeState(s *State) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrStateDecode, "序列化状态失败")
	}
	return data, nil
}

// DecodeState 反序列化并对旧版文档做字段回填。
// 模式漂移永远不是硬错误：缺失字段取默认值，未知成就按目录归并。
func DecodeState(raw []byte) (*State, error) {
	state := &State{}
	if err := json.Unmarshal(raw, state); err != nil {
		return nil, errors.Wrap(err, errors.ErrStateDecode)
	}

	backfill(state)
	return state, nil
}

// backfill 旧版存档的字段回填
func backfill(s *State) {
	if s.MiningRate == 0 {
		s.MiningRate = 1
	}
	if s.Rank == 0 {
		s.Rank = 1
	}
	if s.NFTs == nil {
		s.NFTs = []NFTItem{}
	}
	if s.Transactions == nil {
		s.Transactions = []Transaction{}
	}
	if len(s.ShopItems) == 0 {
		s.ShopItems = initialShopItems()
	}

	// 短暂态不跨进程存活：冲刺永远以未激活状态恢复
	s.IsSprintActive = false
	s.SprintTimeLeft = 0

	s.Achievements = reconcileAchievements(s.Achievements)
}

// reconcileAchievements 将存档中的成就归并到当前固定目录：
// 按id保留已有的unlocked/claimed标记，丢弃未知id，新增id从零开始。
func reconcileAchievements(saved []Achievement) []Achievement {
	flags := make(map[string]Achievement, len(saved))
	for _, a := range saved {
		flags[a.ID] = a
	}

	catalog := initialAchievements()
	for i := range catalog {
		if prev, ok := flags[catalog[i].ID]; ok {
			catalog[i].Unlocked = prev.Unlocked
			catalog[i].Claimed = prev.Claimed
		}
	}
	return catalog
}
