package chat

import (
	"encoding/json"
	"strings"

	"LiveDesk/module/chat/model"
	"LiveDesk/tools/errs"
)

// ===== 事件名（对外协议，别改） =====

// 入站（客户端 -> 网关）
const (
	EvInitChat     = "init-chat"
	EvUserMessage  = "user-message"
	EvAcceptChat   = "accept-chat"
	EvAdminMessage = "admin-message"
)

// 出站（网关 -> 客户端）
const (
	EvChatHistory        = "chat-history"
	EvNewChatRequest     = "new-chat-request"
	EvNewMessage         = "new-message"
	EvNewMessageForAdmin = "new-message-for-admin"
	EvChatAccepted       = "chat-accepted"
	EvChatStatusUpdate   = "chat-status-update"
	EvChatBacklog        = "chat-backlog"
	EvError              = "error"
)

// Frame 统一的线缆帧：{"event": "...", "data": {...}}
type Frame struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// ParseFrame 入站帧解析；event 必填
func ParseFrame(raw []byte) (*Frame, error) {
	f := &Frame{}
	if err := json.Unmarshal(raw, f); err != nil {
		return nil, errs.ErrArgs.WithDetail("unmarshal frame: " + err.Error())
	}
	if strings.TrimSpace(f.Event) == "" {
		return nil, errs.ErrArgs.WithDetail("missing event")
	}
	return f, nil
}

func marshalFrame(event string, data any) ([]byte, error) {
	return json.Marshal(&Frame{Event: event, Data: data})
}

// ===== 入站 payload =====

type InitChatPayload struct {
	VisitorID string `json:"visitorId"`
}

type UserMessagePayload struct {
	VisitorID string `json:"visitorId"`
	Content   string `json:"content"`
}

type AcceptChatPayload struct {
	VisitorID string `json:"visitorId"`
}

type AdminMessagePayload struct {
	VisitorID string `json:"visitorId"`
	Content   string `json:"content"`
}

// ===== 出站 payload =====

// MessageNotice new-message-for-admin：消息带上访客ID，客服端好归档到对应会话
type MessageNotice struct {
	VisitorID string        `json:"visitorId"`
	Message   model.Message `json:"message"`
}

type StatusNotice struct {
	VisitorID string       `json:"visitorId"`
	Status    model.Status `json:"status"`
}

// ErrorNotice 只给 Msg，Detail 不出网
type ErrorNotice struct {
	Message string `json:"message"`
}
