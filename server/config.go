package server

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config 服务端运行参数（启动时一次性加载，运行期只读）
type Config struct {
	Addr    string `yaml:"addr"`
	LogFile string `yaml:"log_file"`

	// 聊天日志容量
	RoomChatMax   int `yaml:"room_chat_max"`
	ThreadChatMax int `yaml:"thread_chat_max"`
	SnapshotChat  int `yaml:"snapshot_chat_tail"` // 快照携带的最近消息条数

	// 连接参数
	SendQueueSize  int   `yaml:"send_queue_size"`
	PingIntervalMs int   `yaml:"ping_interval_ms"`
	PongWaitMs     int   `yaml:"pong_wait_ms"`
	WriteWaitMs    int   `yaml:"write_wait_ms"`
	ReadLimitBytes int64 `yaml:"read_limit_bytes"`

	// 状态转储文件路径（POST /admin/dump）
	DumpPath string `yaml:"dump_path"`
}

// DefaultConfig 缺省参数；缺配置文件时可直接试跑
func DefaultConfig() Config {
	return Config{
		Addr:           ":8080",
		LogFile:        "app.log",
		RoomChatMax:    100,
		ThreadChatMax:  50,
		SnapshotChat:   20,
		SendQueueSize:  64,
		PingIntervalMs: 25000,
		PongWaitMs:     60000,
		WriteWaitMs:    5000,
		ReadLimitBytes: 1 << 20,
		DumpPath:       "conference.dump.zst",
	}
}

// LoadConfig 读取 YAML 配置；path 为空时返回缺省值
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("config.yaml: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.RoomChatMax < 1 || c.ThreadChatMax < 1 {
		return fmt.Errorf("config.yaml: chat capacity must be >= 1")
	}
	if c.SendQueueSize < 1 {
		return fmt.Errorf("config.yaml: send_queue_size must be >= 1")
	}
	if c.PingIntervalMs >= c.PongWaitMs {
		return fmt.Errorf("config.yaml: ping_interval_ms must be < pong_wait_ms")
	}
	return nil
}
