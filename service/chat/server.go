package chat

import (
	"context"

	"LiveDesk/module/chat/model"
	"LiveDesk/tools/errs"

	"LiveDesk/logger"
)

// ConversationStore 事件处理需要的存储操作。mongo 实现见 module/chat/store，
// 单测用同包的 MemRepo。
type ConversationStore interface {
	UpsertPending(ctx context.Context, visitorID string) (*model.Conversation, error)
	AppendMessage(ctx context.Context, visitorID string, msg model.Message) error
	SetStatus(ctx context.Context, visitorID string, st model.Status) (*model.Conversation, error)
	Get(ctx context.Context, visitorID string) (*model.Conversation, error)
	ListOpen(ctx context.Context) ([]model.Conversation, error)
}

type HandlerFunc func(ctx context.Context, c *WsConn, data any) error

// Server 网关实例：房间表 + 存储 + 事件分发表。构造于进程启动，测试可以起多个互不相干的实例。
type Server struct {
	store    ConversationStore
	rooms    *Router
	handlers map[string]HandlerFunc
}

func NewServer(store ConversationStore, rooms *Router) *Server {
	s := &Server{
		store:    store,
		rooms:    rooms,
		handlers: make(map[string]HandlerFunc),
	}
	s.handlers[EvInitChat] = s.handleInitChat
	s.handlers[EvUserMessage] = s.handleUserMessage
	s.handlers[EvAcceptChat] = s.operatorOnly(s.handleAcceptChat)
	s.handlers[EvAdminMessage] = s.operatorOnly(s.handleAdminMessage)
	return s
}

func (s *Server) Rooms() *Router { return s.rooms }

// Dispatch 按事件名分发。错误只回给发起方（error 事件），不广播、不重试。
func (s *Server) Dispatch(ctx context.Context, c *WsConn, f *Frame) {
	h, ok := s.handlers[f.Event]
	if !ok {
		logger.Infof("[Dispatch] no handler for event=%s conn=%s", f.Event, c.ID)
		s.replyErr(c, errs.ErrArgs.WithDetail("unknown event "+f.Event))
		return
	}
	if err := h(ctx, c, f.Data); err != nil {
		logger.Warnf("[Dispatch] event=%s conn=%s err=%v", f.Event, c.ID, err)
		s.replyErr(c, err)
	}
}

// replyErr 对外只暴露笼统 Msg；Detail 留在日志里
func (s *Server) replyErr(c *WsConn, err error) {
	ce := errs.AsCode(err)
	s.rooms.SendTo(c, EvError, &ErrorNotice{Message: ce.Msg})
}

// operatorOnly 客服侧事件的准入守卫
func (s *Server) operatorOnly(h HandlerFunc) HandlerFunc {
	return func(ctx context.Context, c *WsConn, data any) error {
		if !c.Operator {
			return errs.ErrNotOperator
		}
		return h(ctx, c, data)
	}
}
