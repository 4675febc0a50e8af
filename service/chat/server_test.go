package chat

import (
	"context"
	"encoding/json"
	"testing"

	"LiveDesk/module/chat/model"
	"LiveDesk/module/chat/store"

	"github.com/stretchr/testify/require"
)

// 协议层端到端（内存存储 + 假连接，不起 socket 不起 mongo）

type wireFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func newTestServer() *Server {
	return NewServer(store.NewMemRepo(), NewRouter())
}

func visitorConn(s *Server, id string) *WsConn {
	return newWsConn(id, nil)
}

func operatorConn(s *Server, id string) *WsConn {
	c := newWsConn(id, nil)
	c.Operator = true
	c.OperatorID = "op-" + id
	s.Rooms().Join(OperatorRoom, c)
	return c
}

// recvFrame 取连接上的下一帧；没有则失败
func recvFrame(t *testing.T, c *WsConn) *wireFrame {
	t.Helper()
	select {
	case raw := <-c.Send:
		f := &wireFrame{}
		require.NoError(t, json.Unmarshal(raw, f))
		return f
	default:
		t.Fatalf("expected a frame on conn %s, got none", c.ID)
		return nil
	}
}

func requireNoFrame(t *testing.T, c *WsConn) {
	t.Helper()
	select {
	case raw := <-c.Send:
		t.Fatalf("expected no frame on conn %s, got %s", c.ID, raw)
	default:
	}
}

func decodeData(t *testing.T, f *wireFrame, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(f.Data, out))
}

func dispatch(s *Server, c *WsConn, event string, data map[string]any) {
	s.Dispatch(context.Background(), c, &Frame{Event: event, Data: data})
}

// 场景1：首次 init-chat 建档 pending，回历史，通知客服房间
func TestInitChatCreatesPendingConversation(t *testing.T) {
	s := newTestServer()
	v := visitorConn(s, "v-conn")
	op := operatorConn(s, "op-conn")

	dispatch(s, v, EvInitChat, map[string]any{"visitorId": "v1"})

	f := recvFrame(t, v)
	require.Equal(t, EvChatHistory, f.Event)
	conv := &model.Conversation{}
	decodeData(t, f, conv)
	require.Equal(t, "v1", conv.VisitorID)
	require.Equal(t, model.StatusPending, conv.Status)
	require.Empty(t, conv.Messages)

	f = recvFrame(t, op)
	require.Equal(t, EvNewChatRequest, f.Event)
	decodeData(t, f, conv)
	require.Equal(t, "v1", conv.VisitorID)
}

// P1：重复 init-chat 幂等；激活后重连不再惊动客服房间
func TestInitChatIdempotent(t *testing.T) {
	s := newTestServer()
	v := visitorConn(s, "v-conn")
	op := operatorConn(s, "op-conn")

	dispatch(s, v, EvInitChat, map[string]any{"visitorId": "v1"})
	recvFrame(t, v)  // chat-history
	recvFrame(t, op) // new-chat-request

	dispatch(s, op, EvAcceptChat, map[string]any{"visitorId": "v1"})
	recvFrame(t, v)  // chat-accepted
	recvFrame(t, op) // chat-status-update

	// 访客刷新页面重连
	v2 := visitorConn(s, "v-conn-2")
	dispatch(s, v2, EvInitChat, map[string]any{"visitorId": "v1"})

	f := recvFrame(t, v2)
	require.Equal(t, EvChatHistory, f.Event)
	conv := &model.Conversation{}
	decodeData(t, f, conv)
	require.Equal(t, model.StatusActive, conv.Status) // 没被重置回 pending
	requireNoFrame(t, op)                             // active 会话不再发 new-chat-request
}

// P6：缺 visitorId 只回 error，不建档
func TestInitChatMissingVisitorID(t *testing.T) {
	mem := store.NewMemRepo()
	s := NewServer(mem, NewRouter())
	v := visitorConn(s, "v-conn")
	op := operatorConn(s, "op-conn")

	dispatch(s, v, EvInitChat, map[string]any{})

	f := recvFrame(t, v)
	require.Equal(t, EvError, f.Event)
	notice := &ErrorNotice{}
	decodeData(t, f, notice)
	require.NotEmpty(t, notice.Message)
	requireNoFrame(t, op)

	_, err := mem.Get(context.Background(), "")
	require.Error(t, err)
}

// 场景3 + P5：访客发言扇出到自己房间和客服房间，别的访客收不到
func TestUserMessageFanoutAndIsolation(t *testing.T) {
	s := newTestServer()
	va := visitorConn(s, "conn-a")
	vb := visitorConn(s, "conn-b")
	op := operatorConn(s, "op-conn")

	dispatch(s, va, EvInitChat, map[string]any{"visitorId": "A"})
	dispatch(s, vb, EvInitChat, map[string]any{"visitorId": "B"})
	for _, c := range []*WsConn{va, vb} {
		recvFrame(t, c)
	}
	recvFrame(t, op) // new-chat-request A
	recvFrame(t, op) // new-chat-request B

	dispatch(s, va, EvUserMessage, map[string]any{"visitorId": "A", "content": "Hello"})

	f := recvFrame(t, va)
	require.Equal(t, EvNewMessage, f.Event)
	msg := &model.Message{}
	decodeData(t, f, msg)
	require.Equal(t, model.SenderVisitor, msg.Sender)
	require.Equal(t, "Hello", msg.Content)
	require.NotEmpty(t, msg.ID)
	require.False(t, msg.Timestamp.IsZero())

	f = recvFrame(t, op)
	require.Equal(t, EvNewMessageForAdmin, f.Event)
	notice := &MessageNotice{}
	decodeData(t, f, notice)
	require.Equal(t, "A", notice.VisitorID)
	require.Equal(t, "Hello", notice.Message.Content)

	requireNoFrame(t, vb) // B 的房间一帧都不该有
}

// 场景2 + P3：接单置 active；重复接单观察不到状态变化
func TestAcceptChat(t *testing.T) {
	s := newTestServer()
	v := visitorConn(s, "v-conn")
	op := operatorConn(s, "op-conn")

	dispatch(s, v, EvInitChat, map[string]any{"visitorId": "v1"})
	recvFrame(t, v)
	recvFrame(t, op)

	dispatch(s, op, EvAcceptChat, map[string]any{"visitorId": "v1"})

	f := recvFrame(t, v)
	require.Equal(t, EvChatAccepted, f.Event)
	conv := &model.Conversation{}
	decodeData(t, f, conv)
	require.Equal(t, model.StatusActive, conv.Status)

	f = recvFrame(t, op)
	require.Equal(t, EvChatStatusUpdate, f.Event)
	st := &StatusNotice{}
	decodeData(t, f, st)
	require.Equal(t, "v1", st.VisitorID)
	require.Equal(t, model.StatusActive, st.Status)

	// 再接一次：状态仍是 active
	dispatch(s, op, EvAcceptChat, map[string]any{"visitorId": "v1"})
	f = recvFrame(t, v)
	decodeData(t, f, conv)
	require.Equal(t, model.StatusActive, conv.Status)
}

// P4：admin-message 对 pending 会话隐式激活
func TestAdminMessageActivates(t *testing.T) {
	s := newTestServer()
	v := visitorConn(s, "v-conn")
	op := operatorConn(s, "op-conn")

	dispatch(s, v, EvInitChat, map[string]any{"visitorId": "v1"})
	recvFrame(t, v)
	recvFrame(t, op)

	dispatch(s, op, EvAdminMessage, map[string]any{"visitorId": "v1", "content": "Hi there"})

	f := recvFrame(t, op)
	require.Equal(t, EvChatStatusUpdate, f.Event)
	st := &StatusNotice{}
	decodeData(t, f, st)
	require.Equal(t, model.StatusActive, st.Status)

	f = recvFrame(t, v)
	require.Equal(t, EvNewMessage, f.Event)
	msg := &model.Message{}
	decodeData(t, f, msg)
	require.Equal(t, model.SenderOperator, msg.Sender)

	f = recvFrame(t, op)
	require.Equal(t, EvNewMessageForAdmin, f.Event)
}

// 场景4：没建过档的访客，admin-message 只给客服回存储错误
func TestAdminMessageUnknownVisitor(t *testing.T) {
	s := newTestServer()
	op := operatorConn(s, "op-conn")

	dispatch(s, op, EvAdminMessage, map[string]any{"visitorId": "v2", "content": "Hi"})

	f := recvFrame(t, op)
	require.Equal(t, EvError, f.Event)
	notice := &ErrorNotice{}
	decodeData(t, f, notice)
	require.Equal(t, "conversation not found", notice.Message)
}

// 反向准入：客服连接发 init-chat 被拒，不建档也不进访客房间
func TestInitChatFromOperatorRejected(t *testing.T) {
	mem := store.NewMemRepo()
	s := NewServer(mem, NewRouter())
	op := operatorConn(s, "op-conn")

	dispatch(s, op, EvInitChat, map[string]any{"visitorId": "v1"})

	f := recvFrame(t, op)
	require.Equal(t, EvError, f.Event)
	require.Empty(t, s.Rooms().Members("v1"))
	require.Empty(t, op.VisitorRoom)

	_, err := mem.Get(context.Background(), "v1")
	require.Error(t, err)
}

// 客服侧事件的准入：访客连接冒充直接被拒
func TestOperatorOnlyGuard(t *testing.T) {
	s := newTestServer()
	v := visitorConn(s, "v-conn")

	dispatch(s, v, EvInitChat, map[string]any{"visitorId": "v1"})
	recvFrame(t, v)

	for _, ev := range []string{EvAcceptChat, EvAdminMessage} {
		dispatch(s, v, ev, map[string]any{"visitorId": "v1", "content": "sneaky"})
		f := recvFrame(t, v)
		require.Equal(t, EvError, f.Event, "event %s", ev)
	}
}

// 场景5 + P2：交错的三条消息，落库长度3、保持到达顺序
func TestInterleavedMessagesKeepOrder(t *testing.T) {
	mem := store.NewMemRepo()
	s := NewServer(mem, NewRouter())
	v := visitorConn(s, "v-conn")
	op := operatorConn(s, "op-conn")

	dispatch(s, v, EvInitChat, map[string]any{"visitorId": "v1"})
	recvFrame(t, v)
	recvFrame(t, op)

	dispatch(s, v, EvUserMessage, map[string]any{"visitorId": "v1", "content": "first"})
	dispatch(s, op, EvAdminMessage, map[string]any{"visitorId": "v1", "content": "second"})
	dispatch(s, v, EvUserMessage, map[string]any{"visitorId": "v1", "content": "third"})

	conv, err := mem.Get(context.Background(), "v1")
	require.NoError(t, err)
	require.Len(t, conv.Messages, 3)
	require.Equal(t, "first", conv.Messages[0].Content)
	require.Equal(t, "second", conv.Messages[1].Content)
	require.Equal(t, "third", conv.Messages[2].Content)
	require.Equal(t, model.SenderVisitor, conv.Messages[0].Sender)
	require.Equal(t, model.SenderOperator, conv.Messages[1].Sender)
}

// 正文校验：空串和超限都只回 error，不落库不广播
func TestMessageContentValidation(t *testing.T) {
	mem := store.NewMemRepo()
	s := NewServer(mem, NewRouter())
	v := visitorConn(s, "v-conn")
	op := operatorConn(s, "op-conn")

	dispatch(s, v, EvInitChat, map[string]any{"visitorId": "v1"})
	recvFrame(t, v)
	recvFrame(t, op)

	long := make([]rune, model.MaxContentLen+1)
	for i := range long {
		long[i] = 'x'
	}

	cases := []map[string]any{
		{"visitorId": "v1", "content": ""},
		{"visitorId": "v1", "content": "   "},
		{"visitorId": "v1", "content": string(long)},
		{"visitorId": "", "content": "hello"},
	}
	for _, data := range cases {
		dispatch(s, v, EvUserMessage, data)
		f := recvFrame(t, v)
		require.Equal(t, EvError, f.Event, "payload %v", data)
		requireNoFrame(t, op)
	}

	conv, err := mem.Get(context.Background(), "v1")
	require.NoError(t, err)
	require.Empty(t, conv.Messages)
}

// 未知事件：只回发起方
func TestUnknownEvent(t *testing.T) {
	s := newTestServer()
	v := visitorConn(s, "v-conn")
	op := operatorConn(s, "op-conn")

	dispatch(s, v, "close-chat", map[string]any{"visitorId": "v1"})

	f := recvFrame(t, v)
	require.Equal(t, EvError, f.Event)
	requireNoFrame(t, op)
}
