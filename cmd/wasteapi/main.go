// wasteapi serves the frame-analysis API: clients post camera frames and
// get back the violation verdict as JSON, over HTTP or a websocket
// stream.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"

	"wastewatch/logger"
	"wastewatch/monitor"
	"wastewatch/server"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	if err := logger.InitProduction(); err != nil {
		fmt.Fprintf(os.Stderr, "logger init: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.S()

	cfg, err := server.LoadConfig(*configPath)
	if err != nil {
		log.Fatalw("load config", "error", err)
	}
	if cfg.WorkersNum > runtime.NumCPU() {
		log.Warnw("workersNum exceeds CPU cores, expect degradation",
			"workers", cfg.WorkersNum, "cores", runtime.NumCPU())
	}
	log.Infow("starting analysis service",
		"httpPort", cfg.HTTPPort,
		"monitorPort", cfg.MonitorPort,
		"workers", cfg.WorkersNum,
		"model", cfg.ModelPath,
		"bin", cfg.Bin,
	)

	srv, err := server.New(cfg)
	if err != nil {
		log.Fatalw("server setup", "error", err)
	}
	if err := srv.StartWorkers(); err != nil {
		log.Fatalw("start workers", "error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if cfg.MonitorPort > 0 {
		go monitor.StartMon(cfg.MonitorPort, ctx)
	}

	if err := srv.Run(); err != nil {
		log.Fatalw("http server", "error", err)
	}
}
