// wastemon watches a camera feed and flags waste dropped into the wrong
// bin. It draws detections live, saves a snapshot of every violation
// frame, and quits on 'q'. Set WASTEMON_ALERT_URL to also push each
// violation to a webhook.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gocv.io/x/gocv"

	"wastewatch/alert"
	"wastewatch/camera"
	"wastewatch/classify"
	"wastewatch/engine"
	"wastewatch/iface"
	"wastewatch/logger"
	"wastewatch/snapshot"
)

const snapshotDir = "snapshots"

var classNames = []string{"dry", "wet"}

func main() {
	var (
		weights   string
		binName   string
		threshold float64
	)
	flag.StringVar(&weights, "weights", "best.onnx", "path to model weights")
	flag.StringVar(&weights, "w", "best.onnx", "shorthand for -weights")
	flag.StringVar(&binName, "bin", "wet", "expected bin type (dry|wet)")
	flag.StringVar(&binName, "b", "wet", "shorthand for -bin")
	flag.Float64Var(&threshold, "conf", 0.50, "confidence threshold")
	flag.Float64Var(&threshold, "c", 0.50, "shorthand for -conf")
	flag.Parse()

	if err := logger.InitDevelopment(); err != nil {
		fmt.Fprintf(os.Stderr, "logger init: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.S()

	bin, err := classify.ParseBin(binName)
	if err != nil {
		log.Fatalw("invalid --bin", "error", err)
	}

	resolved, err := resolveWeights(weights)
	if err != nil {
		log.Fatalw("model weights not found", "weights", weights)
	}
	log.Infow("loading model", "weights", resolved, "bin", bin, "conf", threshold)

	detector := &engine.Detector{}
	detector.New()
	names := iface.NamesConf{IsFile: false, Data: classNames}
	if err := detector.LoadModel(resolved, names, float32(threshold), 0.45, false); err != nil {
		log.Fatalw("load model", "error", err)
	}
	defer detector.Destroy()

	src, err := camera.Open(0)
	if err != nil {
		log.Fatalw("camera not accessible", "error", err)
	}
	defer src.Close()

	writer, err := snapshot.NewWriter(snapshotDir)
	if err != nil {
		log.Fatalw("snapshot directory", "error", err)
	}
	notifier := alert.NewNotifier(os.Getenv("WASTEMON_ALERT_URL"))

	window := gocv.NewWindow("Waste Monitor")
	defer window.Close()

	frame := gocv.NewMat()
	defer frame.Close()

	log.Info("camera running, press q to quit")
	for {
		if ok := src.Read(&frame); !ok || frame.Empty() {
			continue
		}

		ret := detector.Detect(frame)
		if !ret.Success {
			log.Warnw("detection failed, skipping frame", "message", ret.Message)
			continue
		}
		result, err := classify.Classify(ret.Detections, bin)
		if err != nil {
			log.Warnw("classification failed, skipping frame", "error", err)
			continue
		}

		snapshot.DrawDetections(&frame, result.Detections, bin)
		if result.IsViolation {
			now := time.Now()
			snapshot.DrawViolationBanner(&frame)
			path, err := writer.Save(frame, now)
			if err != nil {
				log.Errorw("snapshot write failed", "error", err)
			} else {
				log.Infow("violation detected",
					"class", result.DominantClass,
					"confidence", result.DominantConf,
					"mixed", result.IsMixed,
					"snapshot", path,
				)
			}
			if err := notifier.Send(context.Background(), alert.NewEvent(
				result.DominantClass, result.DominantConf, result.IsMixed, path, now)); err != nil {
				log.Warnw("violation alert not delivered", "error", err)
			}
		}

		window.IMShow(frame)
		if window.WaitKey(1) == 'q' {
			break
		}
	}
}

// resolveWeights tries the given path as-is, then next to the
// executable. Missing weights abort startup.
func resolveWeights(path string) (string, error) {
	if fileExists(path) {
		return path, nil
	}
	if exePath, err := os.Executable(); err == nil {
		cand := filepath.Join(filepath.Dir(exePath), path)
		if fileExists(cand) {
			return cand, nil
		}
	}
	return "", fmt.Errorf("model weights not found: %s", path)
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}
