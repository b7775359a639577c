package server

import (
	"sync/atomic"
	"testing"
)

func TestDispatchMoveCommand(t *testing.T) {
	g := newTestRegistry(t)
	p, err := g.Join("p1", "a1", BusinessCard{}, nil)
	if err != nil {
		t.Fatalf("Join = %v", err)
	}

	g.dispatch(p, []byte(`{"type":"move","direction":"downright","x":1,"y":1}`))
	if p.X != 2 || p.Y != 1 || !p.Moving {
		t.Fatalf("after move dispatch: (%d,%d) moving=%v, want (2,1) moving=true", p.X, p.Y, p.Moving)
	}

	g.dispatch(p, []byte(`{"type":"stop"}`))
	if p.Moving {
		t.Fatalf("after stop dispatch: moving=true, want false")
	}
}

func TestDispatchChatCommand(t *testing.T) {
	g := newTestRegistry(t)
	alpha := g.Room("alpha")
	p, err := g.Join("p1", "a1", BusinessCard{}, nil)
	if err != nil {
		t.Fatalf("Join = %v", err)
	}

	g.dispatch(p, []byte(`{"type":"chat","text":"hello everyone"}`))
	msgs := alpha.allChat.Log().Messages()
	if len(msgs) != 1 || msgs[0].Text != "hello everyone" || msgs[0].Sender != "p1" {
		t.Fatalf("all-chat log = %v, want one message from p1", msgs)
	}
}

func TestDispatchRejectsMalformedInput(t *testing.T) {
	g := newTestRegistry(t)
	p, err := g.Join("p1", "a1", BusinessCard{}, nil)
	if err != nil {
		t.Fatalf("Join = %v", err)
	}

	bad := [][]byte{
		[]byte(`not json at all`),
		[]byte(`{"type":"move","direction":"sideways","x":1,"y":1}`),
		[]byte(`{"type":"chat","text":""}`),
		[]byte(`{"type":"thread","chat":"","text":"x"}`),
		[]byte(`{"type":"teleport"}`),
	}
	for _, payload := range bad {
		g.dispatch(p, payload)
	}
	if got := atomic.LoadInt64(&g.metrics.BadMessages); got != int64(len(bad)) {
		t.Fatalf("BadMessages = %d, want %d", got, len(bad))
	}
	// 畸形输入绝不改动会话状态
	if p.X != 1 || p.Y != 1 || p.Moving {
		t.Fatalf("malformed input mutated participant: (%d,%d) moving=%v", p.X, p.Y, p.Moving)
	}
}

func TestDispatchEnterRoomCommand(t *testing.T) {
	g := newTestRegistry(t)
	alpha := g.Room("alpha")
	p, err := g.Join("p1", "a1", BusinessCard{}, nil)
	if err != nil {
		t.Fatalf("Join = %v", err)
	}
	place(alpha, p, 2, 0)

	g.dispatch(p, []byte(`{"type":"enter_room","door":"D"}`))
	if p.RoomID != "beta" || p.X != 3 || p.Y != 0 {
		t.Fatalf("after enter_room dispatch: room=%s pos=(%d,%d), want beta (3,0)", p.RoomID, p.X, p.Y)
	}
}

func TestClientConnEnqueueDropsWhenFull(t *testing.T) {
	c := &ClientConn{send: make(chan []byte, 1), quit: make(chan struct{})}
	if !c.Enqueue([]byte("a")) {
		t.Fatalf("first Enqueue = false, want true")
	}
	// 队列满：丢弃而不是阻塞（不允许反压房间锁）
	if c.Enqueue([]byte("b")) {
		t.Fatalf("Enqueue into full queue = true, want false")
	}
	close(c.quit)
	if c.Enqueue([]byte("c")) {
		t.Fatalf("Enqueue after close = true, want false")
	}
}
