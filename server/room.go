package server

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// NPC 房间内的非玩家角色：加载期落位，占格不移动
// （剧情/对话状态机在独立子系统，核心只负责占位与快照）
type NPC struct {
	ID   string
	Name string
	X    int
	Y    int
	Dir  Direction
}

// Room 房间：占用表、门、成员表与全员聊天的唯一拥有者
// 以房间锁串行化全部状态变更（monitor 模式）；
// 跨房间的门转移由注册表按固定顺序拿两把房间锁执行
type Room struct {
	ID       string
	Type     string
	Length   int // x 方向格数
	Width    int // y 方向格数
	EntryX   int
	EntryY   int
	EntryDir Direction

	mu           sync.Mutex
	occ          *OccupationMap
	doors        []*Door
	participants map[ParticipantID]*Participant
	npcs         []*NPC
	allChat      *Chat

	snapshotTail int
	metrics      *Metrics
}

// newRoom 创建房间，初始化数据结构（静态元素与门由楼层图构建流程填充）
func newRoom(id, roomType string, length, width, entryX, entryY int, entryDir Direction, cfg Config) *Room {
	return &Room{
		ID:           id,
		Type:         roomType,
		Length:       length,
		Width:        width,
		EntryX:       entryX,
		EntryY:       entryY,
		EntryDir:     entryDir,
		occ:          NewOccupationMap(length, width),
		participants: make(map[ParticipantID]*Participant),
		allChat:      NewChat(id, cfg.RoomChatMax),
		snapshotTail: cfg.SnapshotChat,
	}
}

// Enter 将参会者放入指定格并加入成员表；对房内其他人广播 entered
// 入口格被占时整体失败，调用方决定是连接级错误（首次入场）还是转移拒绝
func (r *Room) Enter(p *Participant, x, y int, dir Direction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.enterLocked(p, x, y, dir)
}

func (r *Room) enterLocked(p *Participant, x, y int, dir Direction) error {
	// 网格外的门格不经占用表（只能由门路径送达），网格内正常认领
	if r.occ.InBounds(x, y) {
		if err := r.occ.Claim(x, y, string(p.ID)); err != nil {
			if errors.Is(err, ErrCellOccupied) {
				return fmt.Errorf("%w: %s(%d,%d)", ErrEntryCellBlocked, r.ID, x, y)
			}
			return err
		}
	}
	p.RoomID = r.ID
	p.X = x
	p.Y = y
	p.Dir = dir
	p.Moving = false
	r.participants[p.ID] = p
	r.broadcastLocked(mustJSON(EnteredMsg{Type: TypeEntered, Participant: p.State()}), p.ID)
	return nil
}

// Leave 将参会者移出房间并释放其格位；非成员时为无操作（容忍重复断线）
func (r *Room) Leave(p *Participant) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(p)
}

func (r *Room) leaveLocked(p *Participant) {
	// 按对象同一性校验成员资格：被踢旧会话不得释放新会话的格位
	if cur, ok := r.participants[p.ID]; !ok || cur != p {
		return
	}
	r.occ.Vacate(p.X, p.Y)
	delete(r.participants, p.ID)
	r.broadcastLocked(mustJSON(LeftMsg{Type: TypeLeft, Participant: string(p.ID)}), p.ID)
}

// Move 处理一次移动意图（服务端权威位置 + 方向单位位移）
// 候选格撞上门格时返回该门，由注册表走转移流程；
// 候选格不可进入时返回 ErrBlocked 且不改动任何状态
func (r *Room) Move(p *Participant, dir Direction, clientX, clientY int) (*Door, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	// 同 id 不同对象即被踢旧会话，其迟到命令静默丢弃
	if cur, ok := r.participants[p.ID]; !ok || cur != p {
		return nil, fmt.Errorf("%w: %s not in %s", ErrUnknownParticipant, p.ID, r.ID)
	}
	// 客户端自报坐标仅用于对账：不一致只记日志与指标，不作为权威依据
	if clientX != p.X || clientY != p.Y {
		if r.metrics != nil {
			r.metrics.IncMoveDesync()
		}
		Log.Debugf("desync: %s believes (%d,%d), server has (%d,%d)", p.ID, clientX, clientY, p.X, p.Y)
	}
	dx, dy := dir.Delta()
	cx, cy := p.X+dx, p.Y+dy
	if d := doorAt(r.doors, cx, cy); d != nil {
		return d, nil
	}
	if !r.occ.IsFree(cx, cy) {
		if r.metrics != nil {
			r.metrics.IncMoveBlocked()
		}
		return nil, fmt.Errorf("%w: (%d,%d)", ErrBlocked, cx, cy)
	}
	// 同一把锁内先释放旧格再认领新格：对外表现为一次原子换格
	r.occ.Vacate(p.X, p.Y)
	if err := r.occ.Claim(cx, cy, string(p.ID)); err != nil {
		// IsFree 刚确认过且持锁，走到这里属编程错误
		Log.Errorf("claim after IsFree failed: %v", err)
		_ = r.occ.Claim(p.X, p.Y, string(p.ID))
		return nil, err
	}
	p.X = cx
	p.Y = cy
	p.Dir = dir
	p.Moving = true
	if r.metrics != nil {
		r.metrics.IncMoveAccepted()
	}
	r.broadcastLocked(mustJSON(PositionMsg{
		Type:        TypePosition,
		Participant: string(p.ID),
		Position:    PositionState{Room: r.ID, X: cx, Y: cy},
		Direction:   dir.String(),
		Moving:      true,
	}), p.ID)
	return nil, nil
}

// StopMove 标记停止移动并广播；总是接受，重复调用结果相同
func (r *Room) StopMove(p *Participant) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.participants[p.ID]; !ok || cur != p {
		return
	}
	p.Moving = false
	if r.metrics != nil {
		r.metrics.IncStop()
	}
	r.broadcastLocked(mustJSON(PositionMsg{
		Type:        TypePosition,
		Participant: string(p.ID),
		Position:    PositionState{Room: r.ID, X: p.X, Y: p.Y},
		Direction:   p.Dir.String(),
		Moving:      false,
	}), p.ID)
}

// SendAllChat 追加一条房间全员消息并广播给包括发送者在内的全体成员
func (r *Room) SendAllChat(p *Participant, text string, now time.Time) ChatMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, evicted := r.allChat.Append(p.ID, text, now)
	if r.metrics != nil {
		r.metrics.IncChatMessage()
		if evicted {
			r.metrics.IncChatEvicted()
		}
	}
	r.broadcastLocked(mustJSON(ChatMessageMsg{
		Type:    TypeChatMessage,
		Chat:    r.allChat.ID,
		Message: wireMessage(m),
	}), "")
	return m
}

// Snapshot 生成进房/换房下发的房间视图
func (r *Room) Snapshot() RoomSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *Room) snapshotLocked() RoomSnapshot {
	snap := RoomSnapshot{
		ID:     r.ID,
		Type:   r.Type,
		Width:  r.Width,
		Length: r.Length,
	}
	for _, p := range r.participants {
		snap.Participants = append(snap.Participants, p.State())
	}
	for _, n := range r.npcs {
		snap.NPCs = append(snap.NPCs, NPCState{
			ID: n.ID, Name: n.Name, X: n.X, Y: n.Y, Direction: n.Dir.String(),
		})
	}
	for _, d := range r.doors {
		snap.Doors = append(snap.Doors, DoorState{
			ID: d.ID, Name: d.Name, X: d.MapX, Y: d.MapY, Open: d.Open,
		})
	}
	for _, m := range r.allChat.Log().Tail(r.snapshotTail) {
		snap.Chat = append(snap.Chat, wireMessage(m))
	}
	return snap
}

// MemberCount 当前成员数（监控用）
func (r *Room) MemberCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.participants)
}

// broadcastLocked 对房内成员（except 除外）推送已编码消息；队列满即丢弃
func (r *Room) broadcastLocked(b []byte, except ParticipantID) {
	for id, p := range r.participants {
		if id == except {
			continue
		}
		if !p.send(b) && r.metrics != nil {
			r.metrics.IncSendDropped()
		}
	}
}
