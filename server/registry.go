package server

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Registry 会场注册表：全部房间与全部会话的唯一拥有者
// 进程启动时显式创建一次（不做全局单例），房间表构建后不再增删
type Registry struct {
	cfg     Config
	rooms   map[string]*Room // 构建后只读
	entry   *Room
	metrics *Metrics

	mu       sync.Mutex
	sessions map[ParticipantID]*Participant
	chats    map[string]*Chat // 线程会话
}

// NewRegistry 依据楼层图构建会场
func NewRegistry(fp *FloorPlan, cfg Config) (*Registry, error) {
	rooms, err := BuildRooms(fp, cfg)
	if err != nil {
		return nil, err
	}
	g := &Registry{
		cfg:      cfg,
		rooms:    rooms,
		entry:    rooms[fp.EntryRoom],
		metrics:  &Metrics{},
		sessions: make(map[ParticipantID]*Participant),
		chats:    make(map[string]*Chat),
	}
	for _, r := range rooms {
		r.metrics = g.metrics
	}
	return g, nil
}

func (g *Registry) Metrics() *Metrics { return g.metrics }

// Room 按 id 查房间；不存在返回 nil
func (g *Registry) Room(id string) *Room { return g.rooms[id] }

// Rooms 返回按 id 排序的房间列表（监控输出需要确定顺序）
func (g *Registry) Rooms() []*Room {
	out := make([]*Room, 0, len(g.rooms))
	for _, r := range g.rooms {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Join 入场握手：重复登录先踢旧会话，再把新会话放到入口房间的入口格
// 入口格被占时握手整体失败，作为连接级错误返回（不重试）
func (g *Registry) Join(id ParticipantID, accountID string, card BusinessCard, conn *ClientConn) (*Participant, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if old, ok := g.sessions[id]; ok {
		g.metrics.IncKick()
		Log.Infof("duplicate login for %s, kicking old session", id)
		if room := g.rooms[old.RoomID]; room != nil {
			room.Leave(old)
		}
		if old.Conn != nil {
			old.Conn.Close()
		}
		delete(g.sessions, id)
	}
	p := NewParticipant(id, accountID, card, conn)
	if err := g.entry.Enter(p, g.entry.EntryX, g.entry.EntryY, g.entry.EntryDir); err != nil {
		return nil, err
	}
	g.sessions[id] = p
	g.metrics.IncHandshake()
	Log.Infof("participant %s entered conference in room %s", id, g.entry.ID)
	return p, nil
}

// Disconnect 清理断开的会话；迟到的重复事件因 Leave 幂等而无害
// 只清理仍指向同一会话对象的表项，避免误删踢旧后的新会话
func (g *Registry) Disconnect(p *Participant) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if cur, ok := g.sessions[p.ID]; !ok || cur != p {
		return
	}
	if room := g.rooms[p.RoomID]; room != nil {
		room.Leave(p)
	}
	delete(g.sessions, p.ID)
	g.metrics.IncDisconnect()
	Log.Infof("participant %s left conference", p.ID)
}

// alive 该对象是否仍是其 id 在册的会话；被踢旧会话在此判负
func (g *Registry) alive(p *Participant) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	cur, ok := g.sessions[p.ID]
	return ok && cur == p
}

// Move 把移动意图路由到参会者当前房间；撞门时转入门转移流程
// 被踢/已断开会话的迟到命令按生命周期错误静默丢弃
func (g *Registry) Move(p *Participant, dir Direction, clientX, clientY int) error {
	if !g.alive(p) {
		return fmt.Errorf("%w: %s", ErrUnknownParticipant, p.ID)
	}
	room := g.rooms[p.RoomID]
	if room == nil {
		return fmt.Errorf("%w: %q", ErrUnknownRoom, p.RoomID)
	}
	door, err := room.Move(p, dir, clientX, clientY)
	if err != nil {
		return err
	}
	if door != nil {
		return g.UseDoor(p, door.ID, "")
	}
	return nil
}

// StopMove 路由停止移动
func (g *Registry) StopMove(p *Participant) {
	if !g.alive(p) {
		return
	}
	if room := g.rooms[p.RoomID]; room != nil {
		room.StopMove(p)
	}
}

// deniedDoor 回发 door_denied 通知（门关着时附带提示文案）
func (g *Registry) deniedDoor(p *Participant, doorID string, d *Door, err error) error {
	msg := ""
	if d != nil && errors.Is(err, ErrDoorClosed) {
		msg = d.ClosedMessage
	}
	p.send(mustJSON(DoorDeniedMsg{
		Type:    TypeDoorDenied,
		Door:    doorID,
		Reason:  DenyReason(err),
		Message: msg,
	}))
	return err
}

// UseDoor 门转移仲裁：整场转移要么全部生效要么全不生效，
// 中间状态对外不可见。全程持注册表锁，与重复登录踢人互斥
// （RoomID 的读写由此串行化）；两个房间的锁按 id 升序获取，避免死锁
func (g *Registry) UseDoor(p *Participant, doorID, code string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if cur, ok := g.sessions[p.ID]; !ok || cur != p {
		return fmt.Errorf("%w: %s", ErrUnknownParticipant, p.ID)
	}
	src := g.rooms[p.RoomID]
	if src == nil {
		return fmt.Errorf("%w: %q", ErrUnknownRoom, p.RoomID)
	}
	// 门描述构建后不可变；参会者位置只被其自身的命令流改动
	// （每连接单读协程保证串行），解析无需持房间锁
	d, err := resolveDoor(src.doors, doorID, p.X, p.Y, code, p.HasUnlocked)
	if err != nil {
		g.metrics.IncTransitionDeny()
		return g.deniedDoor(p, doorID, findDoor(src.doors, doorID), err)
	}
	if !d.Open && d.UnlockCode != "" && code == d.UnlockCode {
		p.UnlockDoor(d.ID)
	}
	dst := g.rooms[d.TargetRoom]
	if dst == nil {
		g.metrics.IncConfigError()
		Log.Errorf("door %s in %s targets unknown room %q", d.ID, src.ID, d.TargetRoom)
		return g.deniedDoor(p, d.ID, d, fmt.Errorf("%w: door %s", ErrBadDoorTarget, d.ID))
	}

	first, second := src, dst
	if first.ID > second.ID {
		first, second = second, first
	}
	first.mu.Lock()
	defer first.mu.Unlock()
	if second != first {
		second.mu.Lock()
		defer second.mu.Unlock()
	}

	if cur, ok := src.participants[p.ID]; !ok || cur != p {
		return fmt.Errorf("%w: %s not in %s", ErrUnknownParticipant, p.ID, src.ID)
	}
	// 楼层图作者错误兜底：目标格 SOLID 时该次转移失败，人留在原地
	if !dst.occ.InBounds(d.TargetX, d.TargetY) || dst.occ.StateAt(d.TargetX, d.TargetY) == CellSolid {
		g.metrics.IncConfigError()
		Log.Errorf("door %s in %s targets solid/off-grid cell %s(%d,%d)",
			d.ID, src.ID, dst.ID, d.TargetX, d.TargetY)
		return g.deniedDoor(p, d.ID, d, fmt.Errorf("%w: door %s", ErrBadDoorTarget, d.ID))
	}
	// 先认领目标格：失败则源房间状态分毫未动（all-or-nothing）
	if err := dst.occ.Claim(d.TargetX, d.TargetY, string(p.ID)); err != nil {
		g.metrics.IncTransitionDeny()
		return g.deniedDoor(p, d.ID, d, fmt.Errorf("%w: door %s", ErrTargetCellOccupied, d.ID))
	}
	src.occ.Vacate(p.X, p.Y)
	delete(src.participants, p.ID)
	src.broadcastLocked(mustJSON(LeftMsg{Type: TypeLeft, Participant: string(p.ID)}), p.ID)

	p.RoomID = dst.ID
	p.X = d.TargetX
	p.Y = d.TargetY
	p.Dir = d.DirectionOnExit
	p.Moving = false
	dst.participants[p.ID] = p
	dst.broadcastLocked(mustJSON(EnteredMsg{Type: TypeEntered, Participant: p.State()}), p.ID)

	g.metrics.IncTransitionOK()
	p.send(mustJSON(RoomSwapMsg{
		Type:        TypeRoomSwap,
		Participant: string(p.ID),
		Room:        dst.ID,
		Snapshot:    dst.snapshotLocked(),
	}))
	return nil
}

// SendAllChat 路由房间全员消息
func (g *Registry) SendAllChat(p *Participant, text string) {
	if !g.alive(p) {
		return
	}
	if room := g.rooms[p.RoomID]; room != nil {
		room.SendAllChat(p, text, time.Now())
	}
}

// SendThreadMessage 线程消息：线程不存在且带 to 名单时按名单建线程；
// 不存在又无名单的消息按生命周期错误静默丢弃
func (g *Registry) SendThreadMessage(p *Participant, chatID, text string, to []string) error {
	g.mu.Lock()
	if cur, ok := g.sessions[p.ID]; !ok || cur != p {
		g.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownParticipant, p.ID)
	}
	c, ok := g.chats[chatID]
	if !ok {
		if len(to) == 0 {
			g.mu.Unlock()
			Log.Debugf("thread message for unknown chat %q from %s dropped", chatID, p.ID)
			return fmt.Errorf("%w: %q", ErrUnknownChat, chatID)
		}
		c = NewChat(chatID, g.cfg.ThreadChatMax)
		c.Participants = append(c.Participants, p.ID)
		for _, id := range to {
			if ParticipantID(id) != p.ID {
				c.Participants = append(c.Participants, ParticipantID(id))
			}
		}
		g.chats[chatID] = c
		p.Chats = append(p.Chats, chatID)
	}
	if !c.Has(p.ID) {
		g.mu.Unlock()
		Log.Debugf("participant %s is not in chat %q, message dropped", p.ID, chatID)
		return fmt.Errorf("%w: %q", ErrUnknownChat, chatID)
	}
	m, evicted := c.Append(p.ID, text, time.Now())
	g.metrics.IncThreadMessage()
	if evicted {
		g.metrics.IncChatEvicted()
	}
	recipients := make([]*Participant, 0, len(c.Participants))
	for _, id := range c.Participants {
		if member, online := g.sessions[id]; online {
			recipients = append(recipients, member)
		}
	}
	g.mu.Unlock()

	b := mustJSON(ChatMessageMsg{Type: TypeChatMessage, Chat: chatID, Message: wireMessage(m)})
	for _, member := range recipients {
		if !member.send(b) {
			g.metrics.IncSendDropped()
		}
	}
	return nil
}

// Chat 按 id 查线程会话（测试与监控用）
func (g *Registry) Chat(id string) *Chat {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.chats[id]
}

// SessionCount 在线会话数
func (g *Registry) SessionCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.sessions)
}

// Session 按 id 查会话（监控用）
func (g *Registry) Session(id ParticipantID) (*Participant, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.sessions[id]
	return p, ok
}
