package clock

import (
	"sync"
	"time"
)

// Clock 时间源抽象，便于测试中使用虚拟时间
type Clock interface {
	Now() time.Time
}

// RealClock 系统时钟
type RealClock struct{}

// Now 返回系统当前时间
func (RealClock) Now() time.Time {
	return time.Now()
}

// ManualClock 手动推进的虚拟时钟（测试用）
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewManualClock 创建虚拟时钟
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

// Now 返回虚拟当前时间
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance 向前推进虚拟时间
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set 直接设置虚拟时间
func (c *ManualClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}
