package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wfunc/idle-miner/internal/clock"
	"github.com/wfunc/idle-miner/internal/errors"
)

func TestDecodeState_Backfill(t *testing.T) {
	// 旧版最小文档：大部分字段缺失
	state, err := DecodeState([]byte(`{"tokenBalance": 5}`))
	require.NoError(t, err)

	assert.Equal(t, 5.0, state.TokenBalance)
	assert.Equal(t, 1.0, state.MiningRate)
	assert.Equal(t, 1, state.Rank)
	assert.NotNil(t, state.NFTs)
	assert.NotNil(t, state.Transactions)
	assert.Len(t, state.ShopItems, 7)
	assert.Len(t, state.Achievements, 4)
}

func TestDecodeState_SprintReset(t *testing.T) {
	state, err := DecodeState([]byte(`{"isSprintActive": true, "sprintTimeLeft": 12}`))
	require.NoError(t, err)

	assert.False(t, state.IsSprintActive)
	assert.Equal(t, 0, state.SprintTimeLeft)
}

func TestDecodeState_Invalid(t *testing.T) {
	_, err := DecodeState([]byte(`{invalid`))
	require.Error(t, err)
	assert.Equal(t, errors.ErrStateDecode, errors.GetCode(err))
}

func TestReconcileAchievements(t *testing.T) {
	saved := []Achievement{
		{ID: "ach1", Unlocked: true, Claimed: true},
		{ID: "ach3", Unlocked: true},
		{ID: "legacy", Unlocked: true}, // 已下线的成就
	}

	result := reconcileAchievements(saved)
	require.Len(t, result, 4)

	byID := make(map[string]Achievement, len(result))
	for _, a := range result {
		byID[a.ID] = a
	}

	// 按id保留进度标记
	assert.True(t, byID["ach1"].Unlocked)
	assert.True(t, byID["ach1"].Claimed)
	assert.True(t, byID["ach3"].Unlocked)
	assert.False(t, byID["ach3"].Claimed)

	// 新目录条目从零开始
	assert.False(t, byID["ach2"].Unlocked)

	// 未知id被丢弃
	_, ok := byID["legacy"]
	assert.False(t, ok)

	// 目录元数据以当前定义为准
	assert.Equal(t, "Novice Miner", byID["ach1"].Name)
	assert.Equal(t, 500.0, byID["ach1"].Reward)
}

func TestNewStore_CorruptArchive(t *testing.T) {
	persister := &memPersister{data: []byte("not json at all")}

	// 损坏的存档不阻塞启动，按新档处理
	s, err := NewStore(Options{
		Config:    testGameConfig(),
		Clock:     clock.NewManualClock(time.Now()),
		Persister: persister,
	})
	require.NoError(t, err)
	t.Cleanup(s.Close)

	state := s.Snapshot()
	assert.Equal(t, 0.0, state.TokenBalance)
	assert.Len(t, state.ShopItems, 7)
	assert.NotEmpty(t, state.ReferralCode)
}

func TestEncodeDecode_PreservesTransactions(t *testing.T) {
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	st := &State{
		MiningRate: 1,
		Rank:       1,
		Transactions: []Transaction{
			{ID: "2", Type: TxMine, Amount: 1, Timestamp: ts.Add(time.Second), Description: "Mined 1.00 IGC"},
			{ID: "1", Type: TxStake, Amount: 5, Timestamp: ts, Description: "Staked 5.00 IGC"},
		},
	}

	raw, err := EncodeState(st)
	require.NoError(t, err)

	decoded, err := DecodeState(raw)
	require.NoError(t, err)

	require.Len(t, decoded.Transactions, 2)
	assert.Equal(t, "2", decoded.Transactions[0].ID)
	assert.Equal(t, TxMine, decoded.Transactions[0].Type)
	assert.True(t, decoded.Transactions[0].Timestamp.Equal(ts.Add(time.Second)))
}
