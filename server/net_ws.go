package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ClientConn 负责发送（写）数据到客户端的轻量包装
type ClientConn struct {
	ws   *websocket.Conn
	send chan []byte
	quit chan struct{}
	once sync.Once

	writeWait    time.Duration
	pingInterval time.Duration
	pongWait     time.Duration
	readLimit    int64
}

func NewClientConn(ws *websocket.Conn, cfg Config) *ClientConn {
	return &ClientConn{
		ws:           ws,
		send:         make(chan []byte, cfg.SendQueueSize),
		quit:         make(chan struct{}),
		writeWait:    time.Duration(cfg.WriteWaitMs) * time.Millisecond,
		pingInterval: time.Duration(cfg.PingIntervalMs) * time.Millisecond,
		pongWait:     time.Duration(cfg.PongWaitMs) * time.Millisecond,
		readLimit:    cfg.ReadLimitBytes,
	}
}

// Enqueue 将要发送的消息压入队列；满则丢弃（实时性优先，不反压房间锁）
func (c *ClientConn) Enqueue(b []byte) bool {
	select {
	case <-c.quit:
		return false
	default:
	}
	select {
	case c.send <- b:
		return true
	default:
		return false
	}
}

// Close 终止连接（幂等；踢下线与断线清理都会调用）
func (c *ClientConn) Close() {
	c.once.Do(func() { close(c.quit) })
	_ = c.ws.Close()
}

// writePump 独立协程，负责从 send 队列写出到 WS，并按周期发 Ping 保活
func (c *ClientConn) writePump() {
	ticker := time.NewTicker(c.pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()
	for {
		select {
		case <-c.quit:
			return
		case msg := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump 读取客户端命令并按到达顺序派发
// 单协程逐条处理，天然保证同一参会者的命令不乱序
func (c *ClientConn) readPump(g *Registry, p *Participant) {
	defer func() {
		g.Disconnect(p)
		c.Close()
	}()
	c.ws.SetReadLimit(c.readLimit)
	_ = c.ws.SetReadDeadline(time.Now().Add(c.pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(c.pongWait))
	})

	for {
		_, payload, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		g.dispatch(p, payload)
	}
}

// dispatch 把入站 JSON 翻译为对注册表的类型化命令
// 解析失败只拒绝该条请求（记数+日志），不影响会话
func (g *Registry) dispatch(p *Participant, payload []byte) {
	base, err := DecodeBase(payload)
	if err != nil {
		g.metrics.IncBadMessage()
		Log.Debugf("bad message from %s: %v", p.ID, err)
		return
	}
	switch base.Type {
	case TypeMove:
		var m MoveMsg
		if err := json.Unmarshal(payload, &m); err != nil {
			g.metrics.IncBadMessage()
			return
		}
		dir, err := ParseDirection(m.Direction)
		if err != nil {
			g.metrics.IncBadMessage()
			Log.Debugf("move from %s: %v", p.ID, err)
			return
		}
		_ = g.Move(p, dir, m.X, m.Y)
	case TypeStop:
		g.StopMove(p)
	case TypeEnterRoom:
		var m EnterRoomMsg
		if err := json.Unmarshal(payload, &m); err != nil {
			g.metrics.IncBadMessage()
			return
		}
		_ = g.UseDoor(p, m.Door, m.Code)
	case TypeChat:
		var m ChatMsg
		if err := json.Unmarshal(payload, &m); err != nil || m.Text == "" {
			g.metrics.IncBadMessage()
			return
		}
		g.SendAllChat(p, m.Text)
	case TypeThread:
		var m ThreadMsg
		if err := json.Unmarshal(payload, &m); err != nil || m.Text == "" || m.Chat == "" {
			g.metrics.IncBadMessage()
			return
		}
		_ = g.SendThreadMessage(p, m.Chat, m.Text, m.To)
	default:
		g.metrics.IncBadMessage()
		Log.Debugf("unknown message type %q from %s", base.Type, p.ID)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// 演示环境：允许所有来源（生产环境需严格限制）
		return true
	},
}

// HandleWS WebSocket 接入：?participant=p1&account=a1&name=Alice
// 身份已由外部登录子系统认证，这里只承接；入口格被占则握手失败并断开
func (g *Registry) HandleWS(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	id := q.Get("participant")
	if id == "" {
		http.Error(w, "missing participant query", http.StatusBadRequest)
		return
	}
	card := BusinessCard{
		Name:    q.Get("name"),
		Company: q.Get("company"),
		Email:   q.Get("email"),
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		Log.Infof("upgrade error: %v", err)
		return
	}

	client := NewClientConn(ws, g.cfg)
	p, err := g.Join(ParticipantID(id), q.Get("account"), card, client)
	if err != nil {
		// 连接级错误：入场失败不重试，直接关闭
		Log.Infof("handshake failed for %s: %v", id, err)
		_ = ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "entry blocked"),
			time.Now().Add(time.Second))
		client.Close()
		return
	}

	room := g.Room(p.RoomID)
	p.send(mustJSON(WelcomeMsg{Type: TypeWelcome, Self: p.State(), Room: room.Snapshot()}))

	go client.writePump()
	go client.readPump(g, p)
}
