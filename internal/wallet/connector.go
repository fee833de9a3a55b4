package wallet

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	apperrors "github.com/wfunc/idle-miner/internal/errors"
	"github.com/wfunc/idle-miner/internal/game"
	"github.com/wfunc/idle-miner/internal/notify"
	"github.com/wfunc/idle-miner/internal/storage"
)

// Connector 钱包桥接器
// 负责连接/断开流程、会话恢复以及账户变更的跟随处理。
// 游戏状态里只保存截断后的展示地址，完整地址单独落盘。
type Connector struct {
	mu          sync.Mutex
	provider    Provider
	store       *game.Store
	kv          storage.KVRepository
	walletKey   string
	notifier    notify.Notifier
	log         *zap.Logger
	unsubscribe func()
}

// NewConnector 创建钱包桥接器
// provider可以为nil，此时Connect会提示用户安装钱包。
func NewConnector(provider Provider, store *game.Store, kv storage.KVRepository, walletKey string, notifier notify.Notifier, log *zap.Logger) *Connector {
	if notifier == nil {
		notifier = notify.NopNotifier{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Connector{
		provider:  provider,
		store:     store,
		kv:        kv,
		walletKey: walletKey,
		notifier:  notifier,
		log:       log,
	}
}

// Connect 发起连接流程
func (c *Connector) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.provider == nil {
		c.notifier.Error("Wallet Not Found", "Please install a browser wallet to continue")
		return apperrors.New(apperrors.ErrWalletUnavailable, "no wallet provider detected")
	}

	accounts, err := c.provider.RequestAccounts(ctx)
	if err != nil {
		if errors.Is(err, ErrRejectedByUser) {
			c.notifier.Error("Connection Rejected", "You rejected the connection request")
			return apperrors.Wrap(err, apperrors.ErrWalletRejected, "connection request rejected")
		}
		c.notifier.Error("Connection Failed", "Could not connect to wallet")
		return apperrors.Wrap(err, apperrors.ErrWalletUnavailable, "wallet request failed")
	}
	if len(accounts) == 0 {
		c.notifier.Error("Connection Failed", "No accounts available")
		return apperrors.New(apperrors.ErrWalletNoAccounts, "provider returned no accounts")
	}

	return c.adopt(ctx, accounts[0], true)
}

// Resume 进程启动时恢复上一次的钱包会话
// 保存的地址与提供方当前账户一致才恢复，否则清除保存的地址。
func (c *Connector) Resume(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.kv == nil {
		return nil
	}
	saved, ok, err := c.kv.Get(ctx, c.walletKey)
	if err != nil {
		c.log.Warn("读取已保存的钱包地址失败", zap.Error(err))
		return err
	}
	if !ok || saved == "" {
		return nil
	}
	if c.provider == nil {
		return c.clearSaved(ctx)
	}

	accounts, err := c.provider.Accounts(ctx)
	if err != nil {
		c.log.Warn("查询钱包账户失败", zap.Error(err))
		return c.clearSaved(ctx)
	}
	if len(accounts) == 0 || !strings.EqualFold(accounts[0], saved) {
		return c.clearSaved(ctx)
	}

	return c.adopt(ctx, accounts[0], false)
}

// Disconnect 断开钱包
func (c *Connector) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disconnectLocked(ctx, true)
}

// Watch 订阅提供方的账户变更
// 账户清空视为用户侧断开，账户切换时跟随更新展示地址。
func (c *Connector) Watch(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.provider == nil || c.unsubscribe != nil {
		return
	}
	c.unsubscribe = c.provider.OnAccountsChanged(func(accounts []string) {
		c.mu.Lock()
		defer c.mu.Unlock()
		if len(accounts) == 0 {
			if err := c.disconnectLocked(ctx, true); err != nil {
				c.log.Warn("账户清空后断开钱包失败", zap.Error(err))
			}
			return
		}
		if !c.store.Snapshot().WalletConnected {
			return
		}
		if err := c.adopt(ctx, accounts[0], false); err != nil {
			c.log.Warn("跟随账户切换失败", zap.Error(err))
			return
		}
		c.notifier.Info("Account Changed", TruncateAddress(accounts[0]))
	})
}

// Close 取消账户变更订阅
func (c *Connector) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
}

func (c *Connector) adopt(ctx context.Context, address string, announce bool) error {
	display := TruncateAddress(address)
	if c.store.Snapshot().WalletConnected {
		c.store.UpdateWalletAddress(display)
	} else {
		c.store.ConnectWallet(display)
	}
	if c.kv != nil {
		if err := c.kv.Set(ctx, c.walletKey, address); err != nil {
			c.log.Warn("保存钱包地址失败", zap.Error(err))
		}
	}
	if announce {
		c.notifier.Success("Wallet Connected!", display)
	}
	return nil
}

func (c *Connector) disconnectLocked(ctx context.Context, announce bool) error {
	c.store.DisconnectWallet()
	if err := c.clearSaved(ctx); err != nil {
		return err
	}
	if announce {
		c.notifier.Info("Wallet Disconnected", "Your wallet has been disconnected")
	}
	return nil
}

func (c *Connector) clearSaved(ctx context.Context) error {
	if c.kv == nil {
		return nil
	}
	if err := c.kv.Delete(ctx, c.walletKey); err != nil {
		c.log.Warn("清除已保存的钱包地址失败", zap.Error(err))
		return err
	}
	return nil
}
