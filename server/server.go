// Package server exposes the waste-sorting analyzer over HTTP and
// WebSocket. Detectors are owned by worker goroutines fed through a job
// queue; handlers never touch a detector directly.
package server

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gocv.io/x/gocv"

	"wastewatch/alert"
	"wastewatch/classify"
	"wastewatch/engine"
	"wastewatch/iface"
	"wastewatch/logger"
	"wastewatch/monitor"
	"wastewatch/snapshot"
)

type job struct {
	image  []byte
	result chan iface.RetData
}

// Server wires the detector workers, classifier, snapshot writer and
// alert notifier behind the HTTP surface.
type Server struct {
	cfg      Config
	bin      classify.Bin
	jobs     chan job
	writer   *snapshot.Writer
	notifier *alert.Notifier
	now      func() time.Time
}

// New validates the config and prepares the snapshot directory. Workers
// are not started yet; call StartWorkers before serving.
func New(cfg Config) (*Server, error) {
	bin, err := classify.ParseBin(cfg.Bin)
	if err != nil {
		return nil, err
	}
	writer, err := snapshot.NewWriter(cfg.SnapshotDir)
	if err != nil {
		return nil, err
	}
	return &Server{
		cfg:      cfg,
		bin:      bin,
		jobs:     make(chan job, cfg.WorkersNum),
		writer:   writer,
		notifier: alert.NewNotifier(cfg.AlertURL),
		now:      time.Now,
	}, nil
}

// StartWorkers loads one detector per worker and launches the worker
// goroutines. A weights load failure is fatal for startup.
func (s *Server) StartWorkers() error {
	for i := 0; i < s.cfg.WorkersNum; i++ {
		d := &engine.Detector{}
		d.New()
		names := iface.NamesConf{IsFile: false, Data: s.cfg.Names}
		if s.cfg.NamesFile != "" {
			names = iface.NamesConf{IsFile: true, Data: s.cfg.NamesFile}
		}
		if err := d.LoadModel(s.cfg.ModelPath, names, s.cfg.Conf, s.cfg.Iou, s.cfg.UseGPU); err != nil {
			return fmt.Errorf("worker %d: %w", i, err)
		}
		if s.cfg.UseGPU {
			warmup(d, i)
		}
		go s.runWorker(i, d)
	}
	return nil
}

// warmup pushes a few tiny frames through a GPU-backed detector so the
// first real request does not pay the kernel-compilation cost.
func warmup(d *engine.Detector, workerID int) {
	logger.S().Infow("warming up detector", "worker", workerID)
	warmMat := gocv.NewMatWithSize(32, 32, gocv.MatTypeCV8UC3)
	for i := 0; i < 3; i++ {
		func() {
			defer func() {
				if r := recover(); r != nil {
					logger.S().Errorw("panic during warmup detect", "worker", workerID, "panic", r)
				}
			}()
			_ = d.Detect(warmMat)
		}()
	}
	_ = warmMat.Close()
	logger.S().Infow("warmup finished", "worker", workerID)
}

func (s *Server) runWorker(workerID int, d iface.Backend) {
	defer func() {
		if r := recover(); r != nil {
			logger.S().Errorw("worker panic, restarting in 1s", "worker", workerID, "panic", r)
			time.Sleep(1 * time.Second)
			go s.runWorker(workerID, d)
		}
	}()
	logger.S().Infow("worker started", "worker", workerID)
	for j := range s.jobs {
		mat, err := bytesToMat(j.image)
		if err != nil {
			j.result <- iface.RetData{Success: false, Message: err.Error()}
			continue
		}
		j.result <- d.Detect(mat)
		if err := mat.Close(); err != nil {
			logger.S().Errorw("error closing frame", "worker", workerID, "error", err)
		}
	}
}

// bytesToMat decodes an encoded image into a Mat.
func bytesToMat(data []byte) (gocv.Mat, error) {
	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return gocv.NewMat(), err
	}
	if mat.Empty() {
		_ = mat.Close()
		return gocv.NewMat(), errors.New("decoded image is empty or unsupported format")
	}
	return mat, nil
}

// decodeBase64Image strips an optional data-URL prefix and decodes the
// payload.
func decodeBase64Image(b64 string) ([]byte, error) {
	if i := strings.Index(b64, ","); i != -1 && strings.HasPrefix(b64, "data:") {
		b64 = b64[i+1:]
	}
	return base64.StdEncoding.DecodeString(b64)
}

// Analysis is the JSON response for one analyzed frame. Class and
// Confidence are null when the frame had no detections.
type Analysis struct {
	Class        *string  `json:"class"`
	WetDry       *string  `json:"wet_dry"`
	Confidence   *float32 `json:"confidence"`
	IsMixed      bool     `json:"is_mixed"`
	IsViolation  bool     `json:"is_violation"`
	SnapshotPath string   `json:"snapshot_path,omitempty"`
	Timestamp    string   `json:"timestamp"`
}

// analyze runs one frame through a worker, classifies the result, and
// on violation persists a snapshot and notifies the webhook.
func (s *Server) analyze(ctx context.Context, image []byte, bin classify.Bin) (Analysis, error) {
	result := make(chan iface.RetData, 1)
	s.jobs <- job{image: image, result: result}
	ret := <-result
	if !ret.Success {
		return Analysis{}, fmt.Errorf("inference failed: %s", ret.Message)
	}
	monitor.FramesTotal.Inc()

	frame, err := classify.Classify(ret.Detections, bin)
	if err != nil {
		return Analysis{}, err
	}

	now := s.now()
	out := Analysis{
		IsMixed:     frame.IsMixed,
		IsViolation: frame.IsViolation,
		Timestamp:   now.Format(time.RFC3339),
	}
	if frame.DominantClass != "" {
		cls := frame.DominantClass
		conf := frame.DominantConf
		out.Class = &cls
		out.WetDry = &cls
		out.Confidence = &conf
	}

	if frame.IsViolation {
		monitor.ViolationsTotal.Inc()
		path, err := s.writer.SaveBytes(image, now)
		if err != nil {
			// Report, keep serving: a failed snapshot is fatal for this
			// frame's evidence only.
			logger.S().Errorw("snapshot write failed", "error", err)
		} else {
			out.SnapshotPath = path
		}
		if err := s.notifier.Send(ctx, alert.NewEvent(
			frame.DominantClass, frame.DominantConf, frame.IsMixed, out.SnapshotPath, now)); err != nil {
			logger.S().Warnw("violation alert not delivered", "error", err)
		}
		logger.S().Infow("violation detected",
			"class", frame.DominantClass,
			"confidence", frame.DominantConf,
			"mixed", frame.IsMixed,
			"snapshot", out.SnapshotPath,
		)
	}
	return out, nil
}

type analyzeRequest struct {
	Image string `json:"image" binding:"required"`
	Bin   string `json:"bin"`
}

// Router assembles the gin routes.
func (s *Server) Router() *gin.Engine {
	r := gin.Default()
	r.GET("/api/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	r.POST("/api/analyze", func(c *gin.Context) {
		var req analyzeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		bin := s.bin
		if req.Bin != "" {
			parsed, err := classify.ParseBin(req.Bin)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			bin = parsed
		}
		image, err := decodeBase64Image(req.Image)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid image: " + err.Error()})
			return
		}
		out, err := s.analyze(c.Request.Context(), image, bin)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, out)
	})
	r.GET("/ws", s.handleWS)
	return r
}

// Run serves the HTTP surface.
func (s *Server) Run() error {
	return s.Router().Run(fmt.Sprintf(":%d", s.cfg.HTTPPort))
}
