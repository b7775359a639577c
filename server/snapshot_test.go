package server

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestDumpRoundTrip(t *testing.T) {
	g := newTestRegistry(t)
	p, err := g.Join("p1", "a1", BusinessCard{Name: "Alice"}, nil)
	if err != nil {
		t.Fatalf("Join = %v", err)
	}
	g.SendAllChat(p, "hello")

	path := filepath.Join(t.TempDir(), "conf.dump.zst")
	if err := WriteDump(path, g.DumpState()); err != nil {
		t.Fatalf("WriteDump = %v", err)
	}

	d, err := ReadDump(path)
	if err != nil {
		t.Fatalf("ReadDump = %v", err)
	}
	if d.Version != dumpVersion || d.Sessions != 1 || len(d.Rooms) != 2 {
		t.Fatalf("dump = version %d, %d sessions, %d rooms, want %d/1/2",
			d.Version, d.Sessions, len(d.Rooms), dumpVersion)
	}
	var alpha *RoomSnapshot
	for i := range d.Rooms {
		if d.Rooms[i].ID == "alpha" {
			alpha = &d.Rooms[i]
		}
	}
	if alpha == nil {
		t.Fatalf("alpha missing from dump")
	}
	if len(alpha.Participants) != 1 || alpha.Participants[0].ID != "p1" {
		t.Fatalf("alpha participants = %v, want [p1]", alpha.Participants)
	}
	if len(alpha.Chat) != 1 || alpha.Chat[0].Text != "hello" {
		t.Fatalf("alpha chat tail = %v, want the hello message", alpha.Chat)
	}
}

func TestWriteDumpCleansUpTempFileOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf.dump.zst")
	// NaN 无法编码为 JSON，触发写入中途失败
	d := ConferenceDump{Version: dumpVersion, Metrics: map[string]any{"bad": math.NaN()}}
	if err := WriteDump(path, d); err == nil {
		t.Fatalf("WriteDump with unencodable payload = nil, want error")
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind after failed dump")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("dump file created despite error")
	}
}

func TestReadDumpMissingFile(t *testing.T) {
	if _, err := ReadDump(filepath.Join(t.TempDir(), "nope.zst")); err == nil {
		t.Fatalf("ReadDump on missing file = nil, want error")
	}
}
