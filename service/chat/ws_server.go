package chat

import (
	"context"
	"net"
	"net/http"
	"time"

	"LiveDesk/global"
	storage "LiveDesk/service/storage"
	"LiveDesk/tools/errs"
	"LiveDesk/tools/safe"
	security "LiveDesk/tools/security"

	"LiveDesk/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{ReadBufferSize: 4096, WriteBufferSize: 4096, CheckOrigin: func(r *http.Request) bool { return true }}

// HandleWS 连接入口：ws://host/chat 访客裸连；客服带 ?operator=1&token=xxx。
// operator 标志本身不作数，验签 + redis 会话都过了才进客服房间（握手期完成，先于任何业务事件）。
func (s *Server) HandleWS(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Infof("[HandleWS] upgrade websocket error: %v", err)
		return
	}

	wsc := newWsConn(uuid.NewString(), ws)

	if c.Query("operator") == "1" {
		opID, aerr := s.admitOperator(c.Request.Context(), c.Query("token"))
		if aerr != nil {
			logger.Warnf("[HandleWS] operator admission refused conn=%s err=%v", wsc.ID, aerr)
			_ = ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "operator credential required"),
				time.Now().Add(writeWait))
			_ = ws.Close()
			return
		}
		wsc.Operator = true
		wsc.OperatorID = opID
		s.rooms.Join(OperatorRoom, wsc)
	}

	safe.Go(wsc.writePump)

	// 刚上线的客服先看到当前未关闭的会话（回放靠存储，不靠广播缓冲）
	if wsc.Operator {
		if list, lerr := s.store.ListOpen(c.Request.Context()); lerr == nil {
			s.rooms.SendTo(wsc, EvChatBacklog, list)
		} else {
			logger.Warnf("[HandleWS] list open conversations failed: %v", lerr)
		}
		logger.Infof("[HandleWS] operator online op=%s conn=%s", wsc.OperatorID, wsc.ID)
	}

	// 心跳：pong 续读超时
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	// ---- 读循环：只读不写，出错即退出（写协程收尾） ----
	for {
		mt, data, rerr := ws.ReadMessage()
		if rerr != nil {
			if websocket.IsCloseError(rerr,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Infof("[WS] peer closed conn=%s err=%v", wsc.ID, rerr)
			} else if ne, ok := rerr.(net.Error); ok && ne.Timeout() {
				logger.Infof("[WS] read timeout conn=%s err=%v", wsc.ID, rerr)
			} else {
				logger.Infof("[WS] read err conn=%s err=%v", wsc.ID, rerr)
			}
			break
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}

		frame, perr := ParseFrame(data)
		if perr != nil {
			sample := data
			if len(sample) > 256 {
				sample = sample[:256]
			}
			logger.Infof("[WS] ParseFrame err conn=%s err=%v sample=%q", wsc.ID, perr, sample)
			s.replyErr(wsc, perr)
			continue
		}

		s.Dispatch(c.Request.Context(), wsc, frame)
	}

	// ---- 退出阶段：退房间、收发送队列；会话状态不动（断连≠关单） ----
	s.rooms.LeaveAll(wsc)
	wsc.close()
}

// admitOperator 验签 + 会话双重校验
func (s *Server) admitOperator(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", errs.ErrTokenInvalid.WithDetail("empty token")
	}
	opID, err := security.Verify(security.DefaultOptions(global.GetJwtSecret()), token)
	if err != nil {
		return "", errs.ErrTokenInvalid.WithDetail(err.Error())
	}
	if _, err := storage.LoadSession(ctx, security.HashToken(token)); err != nil {
		return "", err
	}
	return opID, nil
}
