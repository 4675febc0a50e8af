package chat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJoinIdempotent(t *testing.T) {
	r := NewRouter()
	c := newWsConn("c1", nil)

	r.Join("room-a", c)
	r.Join("room-a", c)
	require.Len(t, r.Members("room-a"), 1)
}

func TestBroadcastOnlyToMembers(t *testing.T) {
	r := NewRouter()
	a := newWsConn("a", nil)
	b := newWsConn("b", nil)
	r.Join("room-a", a)
	r.Join("room-b", b)

	r.Broadcast("room-a", EvNewMessage, map[string]string{"content": "hi"})

	require.Len(t, a.Send, 1)
	require.Len(t, b.Send, 0)
}

func TestBroadcastEmptyRoomIsSilent(t *testing.T) {
	r := NewRouter()
	// 没人订阅就发给没人，不报错
	r.Broadcast("nobody", EvNewMessage, map[string]string{"content": "hi"})
}

func TestJoinVisitorRebinds(t *testing.T) {
	r := NewRouter()
	c := newWsConn("c1", nil)

	r.JoinVisitor(c, "v1")
	r.JoinVisitor(c, "v2")

	require.Empty(t, r.Members("v1"))
	require.Len(t, r.Members("v2"), 1)
	require.Equal(t, "v2", c.VisitorRoom)
}

func TestLeaveAll(t *testing.T) {
	r := NewRouter()
	c := newWsConn("c1", nil)
	c.Operator = true
	r.Join(OperatorRoom, c)
	r.JoinVisitor(c, "v1")

	r.LeaveAll(c)

	require.Empty(t, r.Members(OperatorRoom))
	require.Empty(t, r.Members("v1"))
}

// 广播和断连交错：广播方拿到成员快照后对端才退房+close，
// 入队只能丢帧，不能往已关的 Send 里塞
func TestBroadcastAfterDisconnectDropsFrame(t *testing.T) {
	r := NewRouter()
	c := newWsConn("c1", nil)
	r.JoinVisitor(c, "v1")

	members := r.Members("v1")
	require.Len(t, members, 1)

	r.LeaveAll(c)
	c.close()

	raw, err := marshalFrame(EvNewMessage, map[string]string{"content": "hi"})
	require.NoError(t, err)
	require.NotPanics(t, func() {
		require.False(t, members[0].enqueue(raw))
	})

	// 重复 close 也无副作用
	require.NotPanics(t, c.close)
}

func TestEnqueueDropsWhenFull(t *testing.T) {
	r := NewRouter()
	c := newWsConn("c1", nil)
	r.Join("room-a", c)

	// 灌满队列后继续广播：不能阻塞，只能丢
	for i := 0; i < sendQueueLen+10; i++ {
		r.Broadcast("room-a", EvNewMessage, map[string]int{"n": i})
	}
	require.Len(t, c.Send, sendQueueLen)
}
