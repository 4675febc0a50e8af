package chat

import (
	"sync"
	"time"

	"LiveDesk/logger"

	"github.com/gorilla/websocket"
)

// 心跳参数：客户端 pong 超时即判死连接
const (
	writeWait    = 5 * time.Second
	pongWait     = 75 * time.Second
	pingInterval = 25 * time.Second
	sendQueueLen = 64
)

// WsConn 单条连接的状态。Send 是每连接独立发送队列，
// 广播路径只做非阻塞入队，慢消费者丢消息而不是拖住事件处理。
type WsConn struct {
	ID         string
	Operator   bool
	OperatorID string // 客服连接才有

	// 访客房间名（= visitorId），init-chat 后才有；
	// 一条连接最多：operators 房间 + 一个访客房间
	VisitorRoom string

	Conn      *websocket.Conn // 单测里可为 nil，只用 Send
	Send      chan []byte
	CreatedAt time.Time

	// 入队和关闭互斥：广播方可能拿着退房前的成员快照，
	// closed 置位后 enqueue 只丢帧，不往已关的 Send 里塞
	mu        sync.Mutex
	closed    bool
	closeOnce sync.Once
}

func newWsConn(id string, ws *websocket.Conn) *WsConn {
	return &WsConn{
		ID:        id,
		Conn:      ws,
		Send:      make(chan []byte, sendQueueLen),
		CreatedAt: time.Now(),
	}
}

// enqueue 非阻塞入队；连接已关或队列满都直接丢（best-effort 扇出）
func (c *WsConn) enqueue(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- data:
		return true
	default:
		logger.Warnf("[WS] send queue full, drop frame conn=%s", c.ID)
		return false
	}
}

// close 关闭发送队列，writePump 收尾后关 socket
func (c *WsConn) close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		close(c.Send)
		c.mu.Unlock()
	})
}

// writePump 写协程：只有它碰 socket 的写端。队列关了就发 Close 帧退出。
func (c *WsConn) writePump() {
	t := time.NewTicker(pingInterval)
	defer func() {
		t.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.Send:
			if !ok {
				_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := writeText(c.Conn, data); err != nil {
				logger.Infof("[WS] write err conn=%s err=%v", c.ID, err)
				return
			}
		case <-t.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func writeText(conn *websocket.Conn, data []byte) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}
