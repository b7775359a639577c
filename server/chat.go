package server

import (
	"fmt"
	"time"
)

// ChatMessage 单条消息；id 由所属 Chat 生成，保证会话内唯一
type ChatMessage struct {
	ID     string
	Sender ParticipantID
	Text   string
	SentAt time.Time
}

// ChatLog 有界消息日志：超容量时先淘汰最旧一条（FIFO），
// 任何时刻长度都不会超过 max；顺序即追加顺序，绝不按时间戳重排
type ChatLog struct {
	max  int
	msgs []ChatMessage
}

func NewChatLog(max int) *ChatLog {
	if max < 1 {
		max = 1
	}
	return &ChatLog{max: max}
}

// Append 追加一条消息，必要时淘汰最旧的；返回是否发生淘汰
func (l *ChatLog) Append(m ChatMessage) bool {
	evicted := false
	if len(l.msgs) >= l.max {
		copy(l.msgs, l.msgs[1:])
		l.msgs = l.msgs[:len(l.msgs)-1]
		evicted = true
	}
	l.msgs = append(l.msgs, m)
	return evicted
}

// Remove 按 id 线性删除；不存在时静默无操作（幂等删除）
func (l *ChatLog) Remove(id string) {
	for i, m := range l.msgs {
		if m.ID == id {
			l.msgs = append(l.msgs[:i], l.msgs[i+1:]...)
			return
		}
	}
}

func (l *ChatLog) Len() int { return len(l.msgs) }

// Messages 返回只读副本
func (l *ChatLog) Messages() []ChatMessage {
	out := make([]ChatMessage, len(l.msgs))
	copy(out, l.msgs)
	return out
}

// Tail 返回最近 n 条（用于房间快照）
func (l *ChatLog) Tail(n int) []ChatMessage {
	if n >= len(l.msgs) {
		return l.Messages()
	}
	out := make([]ChatMessage, n)
	copy(out, l.msgs[len(l.msgs)-n:])
	return out
}

// Chat 一个会话（房间全员频道或私聊线程）
// 并发约束：调用方负责串行化（房间频道在房间锁内，线程在注册表锁内）
type Chat struct {
	ID           string
	Participants []ParticipantID // 房间全员频道为空，按房间成员即时取
	log          *ChatLog
	seq          int // 历史追加总数（淘汰不回退，保证 id 不复用）
}

func NewChat(id string, maxMessages int) *Chat {
	return &Chat{ID: id, log: NewChatLog(maxMessages)}
}

// Append 生成确定性 id「chatId.senderId.追加序号」并入账
func (c *Chat) Append(sender ParticipantID, text string, now time.Time) (ChatMessage, bool) {
	m := ChatMessage{
		ID:     fmt.Sprintf("%s.%s.%d", c.ID, sender, c.seq),
		Sender: sender,
		Text:   text,
		SentAt: now,
	}
	c.seq++
	evicted := c.log.Append(m)
	return m, evicted
}

// Has 判断参会者是否在此线程内
func (c *Chat) Has(id ParticipantID) bool {
	for _, p := range c.Participants {
		if p == id {
			return true
		}
	}
	return false
}

func (c *Chat) Log() *ChatLog { return c.log }
