package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wfunc/idle-miner/internal/game"
)

// Hub WebSocket连接管理中心
// 订阅游戏事件流并将状态变更推送给所有客户端。
type Hub struct {
	// 客户端连接池
	clients   map[string]*Client
	clientsMu sync.RWMutex

	// 消息广播通道
	broadcast chan *Message

	// 注册/注销通道
	register   chan *Client
	unregister chan *Client

	// 游戏状态仓库
	store *game.Store

	// 停止信号
	done chan struct{}

	// 日志
	logger *zap.Logger
}

// Message WebSocket消息
type Message struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// MessageType 消息类型
const (
	// 系统消息
	MessageTypeConnected = "connected"
	MessageTypePing      = "ping"
	MessageTypePong      = "pong"
	MessageTypeError     = "error"

	// 游戏消息
	MessageTypeStateUpdate         = "state_update"
	MessageTypeAchievementUnlocked = "achievement_unlocked"
	MessageTypeSprintStarted       = "sprint_started"
	MessageTypeSprintEnded         = "sprint_ended"

	// 钱包消息
	MessageTypeWalletConnected    = "wallet_connected"
	MessageTypeWalletDisconnected = "wallet_disconnected"
)

// NewHub 创建Hub
func NewHub(store *game.Store, logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		broadcast:  make(chan *Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		store:      store,
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run 运行Hub
func (h *Hub) Run() {
	// 订阅游戏事件并转发
	go h.pumpEvents()

	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)

		case <-h.done:
			return
		}
	}
}

// Stop 停止Hub并断开所有客户端
func (h *Hub) Stop() {
	close(h.done)

	h.clientsMu.Lock()
	for id, client := range h.clients {
		close(client.Send)
		delete(h.clients, id)
	}
	h.clientsMu.Unlock()
}

// pumpEvents 把游戏事件翻译成推送消息
func (h *Hub) pumpEvents() {
	events, cancel := h.store.Subscribe(64)
	defer cancel()

	for {
		select {
		case evt, ok := <-events:
			if !ok {
				return
			}
			h.forwardEvent(evt)
		case <-h.done:
			return
		}
	}
}

// forwardEvent 事件转消息
// 状态变更事件带完整状态快照，其余事件带事件附加数据。
func (h *Hub) forwardEvent(evt game.Event) {
	var (
		msgType string
		payload interface{}
	)

	switch evt.Type {
	case game.EventStateChanged:
		msgType = MessageTypeStateUpdate
		payload = h.store.Snapshot()
	case game.EventAchievementUnlocked:
		msgType = MessageTypeAchievementUnlocked
		payload = evt.Data
	case game.EventSprintStarted:
		msgType = MessageTypeSprintStarted
		payload = evt.Data
	case game.EventSprintEnded:
		msgType = MessageTypeSprintEnded
		payload = evt.Data
	case game.EventWalletConnected:
		msgType = MessageTypeWalletConnected
		payload = evt.Data
	case game.EventWalletDisconnected:
		msgType = MessageTypeWalletDisconnected
		payload = evt.Data
	default:
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("序列化事件数据失败", zap.Error(err))
		return
	}

	msg := &Message{
		Type:      msgType,
		Data:      data,
		Timestamp: evt.At.Unix(),
	}

	select {
	case h.broadcast <- msg:
	case <-h.done:
	}
}

// registerClient 注册客户端
func (h *Hub) registerClient(client *Client) {
	h.clientsMu.Lock()
	h.clients[client.ID] = client
	h.clientsMu.Unlock()

	h.logger.Info("WebSocket客户端连接",
		zap.String("client_id", client.ID))

	// 连接成功后立即下发一次完整状态
	snapshot, err := json.Marshal(h.store.Snapshot())
	if err != nil {
		h.logger.Error("序列化状态快照失败", zap.Error(err))
		return
	}
	msg := &Message{
		Type:      MessageTypeConnected,
		Data:      snapshot,
		Timestamp: time.Now().Unix(),
	}
	h.SendToClient(client.ID, msg)
}

// unregisterClient 注销客户端
func (h *Hub) unregisterClient(client *Client) {
	h.clientsMu.Lock()
	if _, ok := h.clients[client.ID]; ok {
		delete(h.clients, client.ID)
		close(client.Send)
	}
	h.clientsMu.Unlock()

	h.logger.Info("WebSocket客户端断开",
		zap.String("client_id", client.ID))
}

// broadcastMessage 广播消息
func (h *Hub) broadcastMessage(message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("序列化消息失败", zap.Error(err))
		return
	}

	h.clientsMu.RLock()
	for _, client := range h.clients {
		select {
		case client.Send <- data:
		default:
			// 发送缓冲区满，丢弃本条消息
			h.logger.Warn("客户端发送缓冲区满",
				zap.String("client_id", client.ID))
		}
	}
	h.clientsMu.RUnlock()
}

// SendToClient 发送消息给指定客户端
func (h *Hub) SendToClient(clientID string, message *Message) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	// 持锁期间通道不会被注销逻辑关闭
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()

	client, ok := h.clients[clientID]
	if !ok {
		return ErrClientNotFound
	}

	select {
	case client.Send <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// GetOnlineCount 获取在线连接数
func (h *Hub) GetOnlineCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// Register 注册客户端（公开方法）
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister 注销客户端（公开方法）
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}
