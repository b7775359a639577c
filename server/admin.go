package server

import (
	"encoding/json"
	"net/http"
)

// HandleMetrics 输出会场运行指标
// GET /metrics
func (g *Registry) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	payload := map[string]any{
		"sessions": g.SessionCount(),
		"metrics":  g.metrics.Snapshot(),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

// HandleRooms 列出各房间的人数与占用概况
// GET /admin/rooms
func (g *Registry) HandleRooms(w http.ResponseWriter, r *http.Request) {
	type roomInfo struct {
		ID      string `json:"id"`
		Type    string `json:"roomType,omitempty"`
		Width   int    `json:"width"`
		Length  int    `json:"length"`
		Members int    `json:"members"`
		NPCs    int    `json:"npcs"`
		Doors   int    `json:"doors"`
	}
	out := make([]roomInfo, 0)
	for _, room := range g.Rooms() {
		out = append(out, roomInfo{
			ID:      room.ID,
			Type:    room.Type,
			Width:   room.Width,
			Length:  room.Length,
			Members: room.MemberCount(),
			NPCs:    len(room.npcs),
			Doors:   len(room.doors),
		})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

// HandleDump 将全会场状态压缩转储到磁盘（排障用）
// POST /admin/dump
func (g *Registry) HandleDump(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	path := g.cfg.DumpPath
	if err := WriteDump(path, g.DumpState()); err != nil {
		Log.Errorf("write dump: %v", err)
		http.Error(w, "dump failed", http.StatusInternalServerError)
		return
	}
	Log.Infof("conference state dumped to %s", path)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "path": path})
}
