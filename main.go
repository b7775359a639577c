package main

import (
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"minihall/server"
)

// MiniHall 入口：加载配置与楼层图，启动 HTTP + WebSocket 服务
func main() {
	var (
		addr     string
		cfgPath  string
		planPath string
	)
	flag.StringVar(&addr, "addr", "", "listen address override, e.g. :8080")
	flag.StringVar(&cfgPath, "config", "", "server config yaml (optional)")
	flag.StringVar(&planPath, "floorplan", "floorplan.json", "floor plan json")
	flag.Parse()

	cfg, err := server.LoadConfig(cfgPath)
	if err != nil {
		panic(err)
	}
	if addr != "" {
		cfg.Addr = addr
	}
	// 使用第三方 zap 日志库写入文件（带滚动）
	if err := server.InitLogger(cfg.LogFile); err != nil {
		panic(err)
	}
	defer server.SyncLogger()

	// 楼层图在启动期完成结构与语义校验，畸形数据直接拒绝启动
	plan, err := server.LoadFloorPlan(planPath)
	if err != nil {
		server.Log.Fatalf("load floorplan: %v", err)
	}
	reg, err := server.NewRegistry(plan, cfg)
	if err != nil {
		server.Log.Fatalf("build conference: %v", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", reg.HandleWS)
	// 管理与监控接口
	mux.HandleFunc("/metrics", reg.HandleMetrics)
	mux.HandleFunc("/admin/rooms", reg.HandleRooms)
	mux.HandleFunc("/admin/dump", reg.HandleDump)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{Addr: cfg.Addr, Handler: mux}

	go func() {
		server.Log.Infof("MiniHall listening on %s", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			server.Log.Fatalf("listen: %v", err)
		}
	}()

	// 优雅退出（Ctrl+C）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	server.Log.Info("Shutting down...")
}
