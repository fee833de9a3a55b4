package storage

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/wfunc/idle-miner/internal/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Entry 本地键值存储表。
// 整份游戏状态以JSON文档的形式存放在单一键下。
type Entry struct {
	Key       string    `gorm:"primaryKey;size:64" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName 指定表名
func (Entry) TableName() string {
	return "storage_entries"
}

// KVRepository 键值存储仓储接口
type KVRepository interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// kvRepo 键值存储仓储实现
type kvRepo struct {
	db *gorm.DB
}

// NewKVRepository 创建键值存储仓储
func NewKVRepository(db *gorm.DB) KVRepository {
	return &kvRepo{db: db}
}

// Get 读取键值，键不存在时第二个返回值为false
func (r *kvRepo) Get(ctx context.Context, key string) (string, bool, error) {
	var entry Entry
	err := r.db.WithContext(ctx).Where("key = ?", key).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, apperrors.Wrap(err, apperrors.ErrStorageRead)
	}
	return entry.Value, true, nil
}

// Set 写入键值（存在即覆盖）
func (r *kvRepo) Set(ctx context.Context, key, value string) error {
	entry := Entry{Key: key, Value: value, UpdatedAt: time.Now()}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&entry).Error
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrStorageWrite)
	}
	return nil
}

// Delete 删除键（键不存在不报错）
func (r *kvRepo) Delete(ctx context.Context, key string) error {
	err := r.db.WithContext(ctx).Where("key = ?", key).Delete(&Entry{}).Error
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrStorageWrite)
	}
	return nil
}

// StateStore 将游戏状态文档绑定到固定键上的持久化出口，
// 实现game.Persister。
type StateStore struct {
	kv  KVRepository
	key string
}

// NewStateStore 创建状态持久化出口
func NewStateStore(kv KVRepository, key string) *StateStore {
	return &StateStore{kv: kv, key: key}
}

// SaveState 保存完整状态文档
func (s *StateStore) SaveState(data []byte) error {
	return s.kv.Set(context.Background(), s.key, string(data))
}

// LoadState 读取状态文档，不存在时返回(nil, nil)
func (s *StateStore) LoadState() ([]byte, error) {
	value, ok, err := s.kv.Get(context.Background(), s.key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return []byte(value), nil
}
