package game

import "time"

// EventType Store对外通知的事件类型
type EventType string

const (
	// EventStateChanged 任意状态变更后发出，订阅方通过Snapshot拉取最新状态
	EventStateChanged EventType = "state_changed"
	// EventAchievementUnlocked 成就解锁（一次性）
	EventAchievementUnlocked EventType = "achievement_unlocked"
	// EventSprintStarted 冲刺开始
	EventSprintStarted EventType = "sprint_started"
	// EventSprintEnded 冲刺结束
	EventSprintEnded EventType = "sprint_ended"
	// EventWalletConnected 钱包连接
	EventWalletConnected EventType = "wallet_connected"
	// EventWalletDisconnected 钱包断开
	EventWalletDisconnected EventType = "wallet_disconnected"
)

// Event Store产生的事件
type Event struct {
	Type EventType   `json:"type"`
	At   time.Time   `json:"at"`
	Data interface{} `json:"data,omitempty"`
}

// Subscribe 订阅事件流，返回只读通道和取消函数。
// 通道缓冲写满时事件被丢弃，订阅方应及时消费。
func (s *Store) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSubID
	s.nextSubID++

	ch := make(chan Event, buffer)
	s.subscribers[id] = ch

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subscribers[id]; ok {
			delete(s.subscribers, id)
			close(sub)
		}
	}

	return ch, cancel
}

// publishLocked 向所有订阅者派发事件，调用方需持有s.mu
func (s *Store) publishLocked(eventType EventType, data interface{}) {
	event := Event{
		Type: eventType,
		At:   s.clock.Now(),
		Data: data,
	}

	for _, ch := range s.subscribers {
		select {
		case ch <- event:
		default:
			// 订阅方消费过慢，丢弃事件
		}
	}
}
