package chat

import (
	"sync"

	"LiveDesk/logger"
)

// OperatorRoom 全体客服共享的房间；访客房间按 visitorId 命名
const OperatorRoom = "operators"

// Router 房间 -> 在线连接 的进程内注册表。显式对象、注入式生命周期，
// 不做跨进程扇出（单进程网关，见 DESIGN.md）。
type Router struct {
	mu    sync.RWMutex
	rooms map[string]map[string]*WsConn // room -> conn_id -> conn
}

func NewRouter() *Router {
	return &Router{rooms: make(map[string]map[string]*WsConn)}
}

// Join 幂等：重复加入同一房间无副作用
func (r *Router) Join(room string, c *WsConn) {
	if room == "" || c == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	m := r.rooms[room]
	if m == nil {
		m = make(map[string]*WsConn)
		r.rooms[room] = m
	}
	m[c.ID] = c
}

// JoinVisitor 连接绑定访客房间；换绑时先退老房间（一条连接最多一个访客房间）
func (r *Router) JoinVisitor(c *WsConn, visitorID string) {
	if c.VisitorRoom != "" && c.VisitorRoom != visitorID {
		r.Leave(c.VisitorRoom, c)
	}
	c.VisitorRoom = visitorID
	r.Join(visitorID, c)
}

func (r *Router) Leave(room string, c *WsConn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m := r.rooms[room]; m != nil {
		delete(m, c.ID)
		if len(m) == 0 {
			delete(r.rooms, room)
		}
	}
}

// LeaveAll 断连清理：退出所有房间成员关系，不碰会话状态
func (r *Router) LeaveAll(c *WsConn) {
	if c.Operator {
		r.Leave(OperatorRoom, c)
	}
	if c.VisitorRoom != "" {
		r.Leave(c.VisitorRoom, c)
	}
}

// Members 当前房间成员快照
func (r *Router) Members(room string) []*WsConn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m := r.rooms[room]
	if len(m) == 0 {
		return nil
	}
	out := make([]*WsConn, 0, len(m))
	for _, c := range m {
		out = append(out, c)
	}
	return out
}

// Broadcast 向房间内每条在线连接扇出；没有回放缓冲，空房间就静默发给没人。
// 序列化一次，所有成员共用同一份字节。
func (r *Router) Broadcast(room string, event string, data any) {
	raw, err := marshalFrame(event, data)
	if err != nil {
		logger.Errorf("[Router] marshal %s frame failed: %v", event, err)
		return
	}
	for _, c := range r.Members(room) {
		c.enqueue(raw)
	}
}

// SendTo 定向回包（发起方回执/错误通知）
func (r *Router) SendTo(c *WsConn, event string, data any) {
	raw, err := marshalFrame(event, data)
	if err != nil {
		logger.Errorf("[Router] marshal %s frame failed: %v", event, err)
		return
	}
	c.enqueue(raw)
}
