package chat

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"LiveDesk/module/chat/model"
	decode "LiveDesk/tools/decode"
	"LiveDesk/tools/errs"
	ids "LiveDesk/tools/ids"
)

// 四个入站事件的处理。每个事件独立校验、独立一次存储操作序列；
// 校验失败或存储失败都只回发起方，不产生任何广播。

// handleInitChat 访客建联：建档（幂等）、进自己的房间、回历史快照；
// pending 状态额外通知客服房间有新会话
func (s *Server) handleInitChat(ctx context.Context, c *WsConn, data any) error {
	// 客服连接不挂访客房间：一条连接要么 operators 房间、要么一个访客房间
	if c.Operator {
		return errs.ErrArgs.WithDetail("operator connection cannot init chat")
	}
	p, err := decode.DecodeMap[InitChatPayload](data)
	if err != nil {
		return errs.ErrArgs.WithDetail(err.Error())
	}
	vid := strings.TrimSpace(p.VisitorID)
	if vid == "" {
		// 不在服务端兜底生成身份，缺 visitorId 就是硬错误
		return errs.ErrArgs.WithDetail("missing visitorId")
	}

	conv, err := s.store.UpsertPending(ctx, vid)
	if err != nil {
		return err
	}

	s.rooms.JoinVisitor(c, vid)
	s.rooms.SendTo(c, EvChatHistory, conv)

	if conv.Status == model.StatusPending {
		s.rooms.Broadcast(OperatorRoom, EvNewChatRequest, conv)
	}
	return nil
}

// handleUserMessage 访客发言：追加到会话记录，扇出到访客房间与客服房间
func (s *Server) handleUserMessage(ctx context.Context, c *WsConn, data any) error {
	p, err := decode.DecodeMap[UserMessagePayload](data)
	if err != nil {
		return errs.ErrArgs.WithDetail(err.Error())
	}
	vid := strings.TrimSpace(p.VisitorID)
	msg, cerr := buildMessage(model.SenderVisitor, vid, p.Content)
	if cerr != nil {
		return cerr
	}

	if err := s.store.AppendMessage(ctx, vid, msg); err != nil {
		return err
	}

	s.rooms.Broadcast(vid, EvNewMessage, msg)
	s.rooms.Broadcast(OperatorRoom, EvNewMessageForAdmin, &MessageNotice{VisitorID: vid, Message: msg})
	return nil
}

// handleAcceptChat 客服接单：pending -> active（重复接单幂等，不再写库）
func (s *Server) handleAcceptChat(ctx context.Context, c *WsConn, data any) error {
	p, err := decode.DecodeMap[AcceptChatPayload](data)
	if err != nil {
		return errs.ErrArgs.WithDetail(err.Error())
	}
	vid := strings.TrimSpace(p.VisitorID)
	if vid == "" {
		return errs.ErrArgs.WithDetail("missing visitorId")
	}

	conv, err := s.store.Get(ctx, vid)
	if err != nil {
		return err
	}
	if next, changed := conv.Status.Next(model.EventAcceptChat); changed {
		conv, err = s.store.SetStatus(ctx, vid, next)
		if err != nil {
			return err
		}
	}

	s.rooms.Broadcast(vid, EvChatAccepted, conv)
	s.rooms.Broadcast(OperatorRoom, EvChatStatusUpdate, &StatusNotice{VisitorID: vid, Status: conv.Status})
	return nil
}

// handleAdminMessage 客服发言：追加消息，且无论先前状态如何都把会话拉到 active
//（隐式激活走 Next 迁移表，不是就地改字段）
func (s *Server) handleAdminMessage(ctx context.Context, c *WsConn, data any) error {
	p, err := decode.DecodeMap[AdminMessagePayload](data)
	if err != nil {
		return errs.ErrArgs.WithDetail(err.Error())
	}
	vid := strings.TrimSpace(p.VisitorID)
	msg, cerr := buildMessage(model.SenderOperator, vid, p.Content)
	if cerr != nil {
		return cerr
	}

	// 没建过档就报存储错误给客服，append 不负责建档
	conv, err := s.store.Get(ctx, vid)
	if err != nil {
		return err
	}

	// 先迁状态再落消息：失败时不会出现“消息已存但回了错误”的半截状态
	if next, changed := conv.Status.Next(model.EventAdminMessage); changed {
		if conv, err = s.store.SetStatus(ctx, vid, next); err != nil {
			return err
		}
		s.rooms.Broadcast(OperatorRoom, EvChatStatusUpdate, &StatusNotice{VisitorID: vid, Status: conv.Status})
	}

	if err := s.store.AppendMessage(ctx, vid, msg); err != nil {
		return err
	}

	s.rooms.Broadcast(vid, EvNewMessage, msg)
	s.rooms.Broadcast(OperatorRoom, EvNewMessageForAdmin, &MessageNotice{VisitorID: vid, Message: msg})
	return nil
}

// buildMessage 公共校验：visitorId、正文非空且不超限；通过则带上时间戳和消息ID
func buildMessage(sender, visitorID, content string) (model.Message, *errs.CodeError) {
	if visitorID == "" {
		return model.Message{}, errs.ErrArgs.WithDetail("missing visitorId")
	}
	if strings.TrimSpace(content) == "" {
		return model.Message{}, errs.ErrArgs.WithDetail("missing content")
	}
	if utf8.RuneCountInString(content) > model.MaxContentLen {
		return model.Message{}, errs.ErrContentTooLong
	}
	return model.Message{
		ID:        ids.GenerateString(),
		Sender:    sender,
		Content:   content,
		Timestamp: time.Now(),
	}, nil
}
