// Package snapshot draws violation overlays and persists alert frames.
package snapshot

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gocv.io/x/gocv"

	"wastewatch/classify"
	"wastewatch/iface"
)

var (
	colorOK    = color.RGBA{G: 255}
	colorAlert = color.RGBA{R: 255}
)

// Filename returns the snapshot name for a violation at ts. Names have
// second resolution; two violations inside the same second reuse the
// name and the later write wins.
func Filename(ts time.Time) string {
	return fmt.Sprintf("violation_%s.jpg", ts.Format("20060102_150405"))
}

// Writer persists violation snapshots into a fixed directory.
type Writer struct {
	Dir string
}

// NewWriter ensures the snapshot directory exists.
func NewWriter(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	return &Writer{Dir: dir}, nil
}

// Save writes the frame as a JPEG and returns its path. A failed write
// is returned to the caller; it is fatal for this frame only.
func (w *Writer) Save(frame gocv.Mat, ts time.Time) (string, error) {
	path := filepath.Join(w.Dir, Filename(ts))
	if ok := gocv.IMWrite(path, frame); !ok {
		return "", fmt.Errorf("write snapshot %s", path)
	}
	return path, nil
}

// SaveBytes persists an already-encoded JPEG frame, for callers that
// received the frame over the wire and never decoded it.
func (w *Writer) SaveBytes(data []byte, ts time.Time) (string, error) {
	path := filepath.Join(w.Dir, Filename(ts))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return path, nil
}

// DrawDetections draws one labeled box per detection, green when the
// class matches the expected bin and red when it does not.
func DrawDetections(frame *gocv.Mat, dets []iface.Detection, expected classify.Bin) {
	for _, d := range dets {
		c := colorOK
		if d.Class != string(expected) {
			c = colorAlert
		}
		rect := image.Rect(
			int(d.Box.LT.X), int(d.Box.LT.Y),
			int(d.Box.RB.X), int(d.Box.RB.Y),
		)
		label := fmt.Sprintf("%s (%.2f)", strings.ToUpper(d.Class), d.Conf)
		gocv.Rectangle(frame, rect, c, 2)
		gocv.PutText(frame, label, image.Pt(rect.Min.X, rect.Min.Y-10),
			gocv.FontHersheySimplex, 0.8, c, 2)
	}
}

// DrawViolationBanner frames the image in red and stamps the alert text.
func DrawViolationBanner(frame *gocv.Mat) {
	w := frame.Cols()
	h := frame.Rows()
	gocv.Rectangle(frame, image.Rect(0, 0, w-1, h-1), colorAlert, 10)
	gocv.PutText(frame, "VIOLATION DETECTED!", image.Pt(50, 80),
		gocv.FontHersheySimplex, 2, colorAlert, 5)
}
