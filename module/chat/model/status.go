package model

// Status 会话状态机。closed 在 schema 里有定义，但本网关没有任何事件会迁移过去，
// 预留给外部归档任务（不要在这里发明关闭事件）。
type Status string

const (
	StatusPending Status = "pending"
	StatusActive  Status = "active"
	StatusClosed  Status = "closed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusActive, StatusClosed:
		return true
	}
	return false
}

// Event 会触发状态迁移的入站事件
type Event int

const (
	EventAcceptChat Event = iota
	EventAdminMessage
)

// Next 显式迁移表。返回迁移后的状态，ok=false 表示无需写库（幂等）。
//
//	pending --accept-chat--> active
//	pending --admin-message--> active （隐式激活：客服直接回话）
//
// 两个事件都无条件落到 active，不守卫逆向迁移——存储层 setStatus 本就是无条件写，
// 这里只负责把迁移摆到明面上并吃掉重复写。
func (s Status) Next(ev Event) (Status, bool) {
	switch ev {
	case EventAcceptChat, EventAdminMessage:
		if s == StatusActive {
			return StatusActive, false
		}
		return StatusActive, true
	}
	return s, false
}
