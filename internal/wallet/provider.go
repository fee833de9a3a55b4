package wallet

import (
	"context"
	"errors"
)

// ErrRejectedByUser 用户在提供方界面上拒绝了连接请求。
// Provider实现在用户拒绝时必须返回（或包装）该错误，
// 以便桥接层给出有区分度的提示。
var ErrRejectedByUser = errors.New("user rejected the connection request")

// Provider 外部浏览器钱包提供方。
// 调用方不重试、不设超时：请求要么带着地址列表返回，要么以错误结束。
type Provider interface {
	// RequestAccounts 请求用户授权并返回账户列表（可能弹出确认界面）
	RequestAccounts(ctx context.Context) ([]string, error)
	// Accounts 返回已授权的账户列表，不触发授权流程
	Accounts(ctx context.Context) ([]string, error)
	// OnAccountsChanged 订阅账户变更通知，返回取消订阅函数。
	// 空列表表示用户在提供方侧断开了连接。
	OnAccountsChanged(fn func(accounts []string)) (unsubscribe func())
}

// TruncateAddress 生成截断的展示地址（前6位…后4位）
func TruncateAddress(address string) string {
	if address == "" {
		return ""
	}
	if len(address) <= 10 {
		return address
	}
	return address[:6] + "..." + address[len(address)-4:]
}
