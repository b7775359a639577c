package server

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
)

// ConferenceDump 全会场状态转储（调试用途；不承诺跨重启恢复）
type ConferenceDump struct {
	Version   int            `json:"version"`
	CreatedAt time.Time      `json:"createdAt"`
	Sessions  int            `json:"sessions"`
	Rooms     []RoomSnapshot `json:"rooms"`
	Metrics   map[string]any `json:"metrics"`
}

const dumpVersion = 1

// DumpState 采集当前全量状态（逐房间取快照，不做跨房间一致性冻结）
func (g *Registry) DumpState() ConferenceDump {
	d := ConferenceDump{
		Version:   dumpVersion,
		CreatedAt: time.Now(),
		Sessions:  g.SessionCount(),
		Metrics:   g.metrics.Snapshot(),
	}
	for _, r := range g.Rooms() {
		d.Rooms = append(d.Rooms, r.Snapshot())
	}
	return d
}

// WriteDump 将转储以 zstd 压缩 JSON 写入文件（先写临时文件再改名）
func WriteDump(path string, d ConferenceDump) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(f)
	zw, err := zstd.NewWriter(bw)
	if err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := json.NewEncoder(zw).Encode(&d); err != nil {
		_ = zw.Close()
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("encode dump: %w", err)
	}
	if err := zw.Close(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := bw.Flush(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, filepath.Clean(path)); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// ReadDump 读回转储文件（排障时在线下解包）
func ReadDump(path string) (ConferenceDump, error) {
	var d ConferenceDump
	f, err := os.Open(path)
	if err != nil {
		return d, err
	}
	defer f.Close()
	zr, err := zstd.NewReader(bufio.NewReader(f))
	if err != nil {
		return d, err
	}
	defer zr.Close()
	if err := json.NewDecoder(zr).Decode(&d); err != nil {
		return d, fmt.Errorf("decode dump: %w", err)
	}
	return d, nil
}
