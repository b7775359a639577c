package server

import (
	"sync/atomic"
)

// Metrics 记录会场运行期的关键指标（用于监控与调试）
type Metrics struct {
	Handshakes      int64 // 成功入场次数
	Kicks           int64 // 重复登录踢下线次数
	Disconnects     int64 // 断线清理次数
	MovesAccepted   int64 // 被接受的移动
	MovesBlocked    int64 // 因格被占/越界被拒的移动
	MovesDesync     int64 // 客户端坐标与服务端不一致的次数
	StopRequests    int64 // 停止移动请求数
	TransitionsOK   int64 // 成功的门转移
	TransitionsDeny int64 // 被拒的门转移
	ConfigErrors    int64 // 楼层图配置错误触发次数
	ChatMessages    int64 // 房间全员消息数
	ThreadMessages  int64 // 线程消息数
	ChatEvicted     int64 // 因容量淘汰的消息数
	SendDropped     int64 // 因发送队列满被丢弃的出站消息数
	BadMessages     int64 // 无法解析/校验失败的入站消息数
}

func (m *Metrics) IncHandshake() { atomic.AddInt64(&m.Handshakes, 1) }
func (m *Metrics) IncKick() { atomic.AddInt64(&m.Kicks, 1) }
func (m *Metrics) IncDisconnect() { atomic.AddInt64(&m.Disconnects, 1) }
func (m *Metrics) IncMoveAccepted() { atomic.AddInt64(&m.MovesAccepted, 1) }
func (m *Metrics) IncMoveBlocked() { atomic.AddInt64(&m.MovesBlocked, 1) }
func (m *Metrics) IncMoveDesync() { atomic.AddInt64(&m.MovesDesync, 1) }
func (m *Metrics) IncStop() { atomic.AddInt64(&m.StopRequests, 1) }
func (m *Metrics) IncTransitionOK() { atomic.AddInt64(&m.TransitionsOK, 1) }
func (m *Metrics) IncTransitionDeny() { atomic.AddInt64(&m.TransitionsDeny, 1) }
func (m *Metrics) IncConfigError() { atomic.AddInt64(&m.ConfigErrors, 1) }
func (m *Metrics) IncChatMessage() { atomic.AddInt64(&m.ChatMessages, 1) }
func (m *Metrics) IncThreadMessage() { atomic.AddInt64(&m.ThreadMessages, 1) }
func (m *Metrics) IncChatEvicted() { atomic.AddInt64(&m.ChatEvicted, 1) }
func (m *Metrics) IncSendDropped() { atomic.AddInt64(&m.SendDropped, 1) }
func (m *Metrics) IncBadMessage() { atomic.AddInt64(&m.BadMessages, 1) }

// Snapshot 返回只读副本，便于 HTTP 输出
func (m *Metrics) Snapshot() map[string]any {
	return map[string]any{
		"handshakes":         atomic.LoadInt64(&m.Handshakes),
		"kicks":              atomic.LoadInt64(&m.Kicks),
		"disconnects":        atomic.LoadInt64(&m.Disconnects),
		"moves_accepted":     atomic.LoadInt64(&m.MovesAccepted),
		"moves_blocked":      atomic.LoadInt64(&m.MovesBlocked),
		"moves_desync":       atomic.LoadInt64(&m.MovesDesync),
		"stop_requests":      atomic.LoadInt64(&m.StopRequests),
		"transitions_ok":     atomic.LoadInt64(&m.TransitionsOK),
		"transitions_denied": atomic.LoadInt64(&m.TransitionsDeny),
		"config_errors":      atomic.LoadInt64(&m.ConfigErrors),
		"chat_messages":      atomic.LoadInt64(&m.ChatMessages),
		"thread_messages":    atomic.LoadInt64(&m.ThreadMessages),
		"chat_evicted":       atomic.LoadInt64(&m.ChatEvicted),
		"send_dropped":       atomic.LoadInt64(&m.SendDropped),
		"bad_messages":       atomic.LoadInt64(&m.BadMessages),
	}
}
