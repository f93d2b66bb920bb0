package monitor

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shirou/gopsutil/v4/process"

	"wastewatch/logger"
)

// Counters stay usable whether or not the metrics server runs, so the
// pipelines can increment them unconditionally.
var (
	proc     process.Process
	memUsage = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "memory_usage_megabytes",
		Help: "Memory usage in Megabytes",
	})
	cpuUsage = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cpu_usage_percent",
		Help: "CPU usage in percent",
	})
	FramesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "frames_analyzed_total",
		Help: "Total number of frames run through the detector",
	})
	ViolationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "violations_total",
		Help: "Total number of frames classified as violations",
	})
)

var srv *http.Server

func prom(port int) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(memUsage, cpuUsage, FramesTotal, ViolationsTotal)
	http.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
	srv = &http.Server{Addr: fmt.Sprintf(":%d", port)}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.S().Errorw("metrics server error", "error", err)
		}
	}()
}

func checkProcessInfo() {
	memInfo, err := proc.MemoryInfo()
	if err == nil {
		memUsage.Set(float64(memInfo.RSS / 1024 / 1024))
	}
	cpuPercent, err := proc.CPUPercent()
	if err == nil {
		cpuUsage.Set(math.Round(cpuPercent*100) / 100)
	}
}

// StartMon serves /metrics on the given port and samples process
// mem/CPU every 500ms until the context is cancelled.
func StartMon(port int, ctx context.Context) {
	proc = process.Process{Pid: int32(os.Getpid())}
	prom(port)
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
sample:
	for {
		select {
		case <-ctx.Done():
			break sample
		case <-ticker.C:
			checkProcessInfo()
		}
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.S().Errorw("metrics server shutdown error", "error", err)
	}
}
