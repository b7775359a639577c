package server

import "encoding/json"

// 入站消息类型（WebSocket 文本 JSON）
const (
	TypeMove      = "move"
	TypeStop      = "stop"
	TypeEnterRoom = "enter_room"
	TypeChat      = "chat"
	TypeThread    = "thread"
)

// 出站消息类型
const (
	TypeWelcome     = "welcome"
	TypeEntered     = "entered"
	TypePosition    = "position"
	TypeLeft        = "left"
	TypeRoomSwap    = "room_swap"
	TypeDoorDenied  = "door_denied"
	TypeChatMessage = "chat_message"
)

// BaseMessage 仅含 type 字段，用于按类型路由未知 JSON
type BaseMessage struct {
	Type string `json:"type"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}

// ---- 入站 ----

// MoveMsg 移动意图；x/y 是客户端自认位置，仅用于对账检测，不作为依据
type MoveMsg struct {
	Type      string `json:"type"`
	Direction string `json:"direction"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Seq       int64  `json:"seq,omitempty"`
}

// EnterRoomMsg 请求经门转移；code 为可选解锁码
type EnterRoomMsg struct {
	Type string `json:"type"`
	Door string `json:"door"`
	Code string `json:"code,omitempty"`
}

// ChatMsg 房间全员消息
type ChatMsg struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ThreadMsg 线程消息；to 仅在首条（线程尚不存在）时用于建立线程
type ThreadMsg struct {
	Type string   `json:"type"`
	Chat string   `json:"chat"`
	Text string   `json:"text"`
	To   []string `json:"to,omitempty"`
}

// ---- 出站 ----

type PositionState struct {
	Room string `json:"room"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

type ParticipantState struct {
	ID        string        `json:"id"`
	Name      string        `json:"name,omitempty"`
	Company   string        `json:"company,omitempty"`
	Moderator bool          `json:"moderator,omitempty"`
	Position  PositionState `json:"position"`
	Direction string        `json:"direction"`
	Moving    bool          `json:"moving"`
}

type NPCState struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Direction string `json:"direction"`
}

type WireMessage struct {
	ID     string `json:"id"`
	Sender string `json:"sender"`
	Text   string `json:"text"`
	SentAt int64  `json:"sentAt"` // Unix 毫秒
}

type DoorState struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
	Open bool   `json:"open"`
}

// RoomSnapshot 进房/换房时下发的房间全量视图
type RoomSnapshot struct {
	ID           string             `json:"id"`
	Type         string             `json:"roomType,omitempty"`
	Width        int                `json:"width"`
	Length       int                `json:"length"`
	Participants []ParticipantState `json:"participants"`
	NPCs         []NPCState         `json:"npcs,omitempty"`
	Doors        []DoorState        `json:"doors,omitempty"`
	Chat         []WireMessage      `json:"chat,omitempty"`
}

type WelcomeMsg struct {
	Type string           `json:"type"`
	Self ParticipantState `json:"self"`
	Room RoomSnapshot     `json:"room"`
}

type EnteredMsg struct {
	Type        string           `json:"type"`
	Participant ParticipantState `json:"participant"`
}

type PositionMsg struct {
	Type        string        `json:"type"`
	Participant string        `json:"participant"`
	Position    PositionState `json:"position"`
	Direction   string        `json:"direction"`
	Moving      bool          `json:"moving"`
}

type LeftMsg struct {
	Type        string `json:"type"`
	Participant string `json:"participant"`
}

type RoomSwapMsg struct {
	Type        string       `json:"type"`
	Participant string       `json:"participant"`
	Room        string       `json:"room"`
	Snapshot    RoomSnapshot `json:"snapshot"`
}

type DoorDeniedMsg struct {
	Type    string `json:"type"`
	Door    string `json:"door,omitempty"`
	Reason  string `json:"reason"`
	Message string `json:"message,omitempty"`
}

type ChatMessageMsg struct {
	Type    string      `json:"type"`
	Chat    string      `json:"chat"`
	Message WireMessage `json:"message"`
}

// wireMessage 转换为线上消息格式
func wireMessage(m ChatMessage) WireMessage {
	return WireMessage{
		ID:     m.ID,
		Sender: string(m.Sender),
		Text:   m.Text,
		SentAt: m.SentAt.UnixMilli(),
	}
}

// mustJSON 编码出站消息；出站结构均可编码，失败属编程错误
func mustJSON(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		Log.Errorf("marshal outbound: %v", err)
		return []byte("{}")
	}
	return b
}
