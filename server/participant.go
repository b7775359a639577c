package server

// BusinessCard 名片数据（由外部账号子系统提供，这里只承载与广播）
type BusinessCard struct {
	Name    string `json:"name"`
	Company string `json:"company,omitempty"`
	Email   string `json:"email,omitempty"`
}

// Participant 参会者会话：连接期的服务端权威状态
// 所有权归注册表；房间成员表只持非拥有引用
// 位置/朝向/移动标记只在所属房间的锁内改动
type Participant struct {
	ID        ParticipantID
	AccountID string
	Card      BusinessCard
	Moderator bool

	RoomID string
	X      int
	Y      int
	Dir    Direction
	Moving bool

	// 社交与积分子状态（周边子系统的数据，核心只携带）
	Friends          []string
	ReceivedRequests []string
	SentRequests     []string
	Chats            []string // 参与的线程会话 id
	TaskCounters     map[string]int
	AwardPoints      int

	// 本会话内已用解锁码打开过的门
	unlockedDoors map[string]bool

	Conn *ClientConn
}

func NewParticipant(id ParticipantID, accountID string, card BusinessCard, conn *ClientConn) *Participant {
	return &Participant{
		ID:            id,
		AccountID:     accountID,
		Card:          card,
		TaskCounters:  make(map[string]int),
		unlockedDoors: make(map[string]bool),
		Conn:          conn,
	}
}

// Position 返回当前权威位置（值拷贝）
func (p *Participant) Position() Position {
	return Position{RoomID: p.RoomID, X: p.X, Y: p.Y}
}

// UnlockDoor 记录解锁成功，后续使用该门无需再出示解锁码
func (p *Participant) UnlockDoor(doorID string) {
	p.unlockedDoors[doorID] = true
}

func (p *Participant) HasUnlocked(doorID string) bool {
	return p.unlockedDoors[doorID]
}

// State 生成广播用的轻量状态
func (p *Participant) State() ParticipantState {
	return ParticipantState{
		ID:        string(p.ID),
		Name:      p.Card.Name,
		Company:   p.Card.Company,
		Moderator: p.Moderator,
		Position:  PositionState{Room: p.RoomID, X: p.X, Y: p.Y},
		Direction: p.Dir.String(),
		Moving:    p.Moving,
	}
}

// send 将已编码消息压入该参会者的发送队列；返回是否入队成功
func (p *Participant) send(b []byte) bool {
	if p.Conn == nil {
		return false
	}
	return p.Conn.Enqueue(b)
}
