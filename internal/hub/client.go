package hub

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// 连接 ID 全局递增计数器，保证同一进程内唯一
var nextConnID uint64

// Client 代表一个连接到 Hub 的 WebSocket 连接。
// 一个用户可以有多个并发连接，每个连接有独立的连接 ID 和状态。
type Client struct {
	hub  *Hub
	conn *websocket.Conn

	id            uint64 // 连接唯一标识
	userID        uint   // 认证后填充
	displayName   string // 认证后填充
	authenticated bool

	send      chan []byte // 发往此连接的缓冲通道
	closeOnce sync.Once   // 保证 send 只被关闭一次
}

// closeSend 关闭 send 通道，使 WritePump 退出。可安全重复调用。
func (c *Client) closeSend() {
	c.closeOnce.Do(func() { close(c.send) })
}

// NewClient 创建一个新的 Client 实例，此时尚未认证。
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		id:   atomic.AddUint64(&nextConnID, 1),
		send: make(chan []byte, 256),
	}
}

// Run 启动客户端的读写 goroutine
func (c *Client) Run() {
	go c.WritePump()
	go c.ReadPump()
}

// ReadPump 从 WebSocket 连接读取事件并交给 Hub 处理。
// 事件在读循环内同步分发，保证同一连接上的事件按到达顺序处理；
// 不同连接的事件天然并发。
func (c *Client) ReadPump() {
	defer func() {
		c.hub.handleDisconnect(c)
		c.conn.Close()
		logrus.WithFields(logrus.Fields{"conn_id": c.id, "user_id": c.userID}).Info("readPump exited, client disconnected")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait)) // 收到 Pong 后重置读取超时
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			logCtx := logrus.WithFields(logrus.Fields{"conn_id": c.id, "user_id": c.userID})
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logCtx.WithError(err).Warn("WebSocket read error (unexpected close)")
			} else {
				logCtx.Debug("WebSocket connection closed normally or read error")
			}
			break
		}

		// 只处理文本消息
		if messageType != websocket.TextMessage {
			logrus.WithFields(logrus.Fields{"conn_id": c.id}).Debugf("Ignoring non-text message type: %d", messageType)
			continue
		}

		c.hub.Dispatch(c, message)
	}
}

// WritePump 把 send 通道里的消息写入 WebSocket 连接。
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		logrus.WithFields(logrus.Fields{"conn_id": c.id, "user_id": c.userID}).Info("writePump exited")
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// send 通道被 Hub 关闭了（注销时）
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logrus.WithFields(logrus.Fields{"conn_id": c.id, "user_id": c.userID}).WithError(err).Warn("Failed to write message to websocket")
				return
			}
			_ = c.conn.SetWriteDeadline(time.Time{})

		case <-ticker.C:
			// 定时 Ping 保活并检测断开
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logrus.WithFields(logrus.Fields{"conn_id": c.id, "user_id": c.userID}).WithError(err).Warn("Failed to send ping message")
				return
			}
			_ = c.conn.SetWriteDeadline(time.Time{})
		}
	}
}

func (c *Client) ID() uint64   { return c.id }
func (c *Client) UserID() uint { return c.userID }
