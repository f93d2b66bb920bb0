package engine

import (
	"fmt"
	"image"
	"sort"

	"gocv.io/x/gocv"

	"wastewatch/iface"
)

func (d *Detector) initNet() error {
	net := gocv.ReadNetFromONNX(d.ModelPath)
	if net.Empty() {
		return fmt.Errorf("failed to load network from %s", d.ModelPath)
	}
	backend := gocv.NetBackendDefault
	target := gocv.NetTargetCPU
	if d.UseGPU {
		backend = gocv.NetBackendCUDA
		target = gocv.NetTargetCUDA
	}
	if err := net.SetPreferableBackend(backend); err != nil {
		_ = net.Close()
		return fmt.Errorf("set backend: %w", err)
	}
	if err := net.SetPreferableTarget(target); err != nil {
		_ = net.Close()
		return fmt.Errorf("set target: %w", err)
	}
	d.net = net
	d.loaded = true
	return nil
}

// forward runs the network on one frame and decodes the YOLO output
// tensor ([1, 4+classes, anchors]) into pixel-space detections, highest
// confidence first.
func (d *Detector) forward(img gocv.Mat) ([]iface.Detection, error) {
	if img.Empty() {
		return nil, fmt.Errorf("empty input frame")
	}
	size := d.InputSize
	blob := gocv.BlobFromImage(img, 1.0/255.0, image.Pt(size, size),
		gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")
	out := d.net.Forward("")
	defer out.Close()

	dims := out.Size()
	if len(dims) != 3 {
		return nil, fmt.Errorf("unexpected output shape %v", dims)
	}
	rows := dims[1]
	cols := dims[2]
	if rows < 5 {
		return nil, fmt.Errorf("output has %d channels, need at least 5", rows)
	}
	flat := out.Reshape(1, rows)
	defer flat.Close()

	xFactor := float32(img.Cols()) / float32(size)
	yFactor := float32(img.Rows()) / float32(size)

	var rects []image.Rectangle
	var scores []float32
	var classIDs []int
	for c := 0; c < cols; c++ {
		best := float32(0)
		bestClass := 0
		for r := 4; r < rows; r++ {
			if s := flat.GetFloatAt(r, c); s > best {
				best = s
				bestClass = r - 4
			}
		}
		if best < d.Conf {
			continue
		}
		cx := flat.GetFloatAt(0, c) * xFactor
		cy := flat.GetFloatAt(1, c) * yFactor
		w := flat.GetFloatAt(2, c) * xFactor
		h := flat.GetFloatAt(3, c) * yFactor
		rects = append(rects, image.Rect(
			int(cx-w/2), int(cy-h/2),
			int(cx+w/2), int(cy+h/2),
		))
		scores = append(scores, best)
		classIDs = append(classIDs, bestClass)
	}
	if len(rects) == 0 {
		return nil, nil
	}

	keep := gocv.NMSBoxes(rects, scores, d.Conf, d.Iou)
	sort.Slice(keep, func(i, j int) bool { return scores[keep[i]] > scores[keep[j]] })

	dets := make([]iface.Detection, 0, len(keep))
	for _, idx := range keep {
		r := rects[idx]
		box := iface.BoxFromCorners(
			float32(r.Min.X), float32(r.Min.Y),
			float32(r.Max.X), float32(r.Max.Y),
		)
		dets = append(dets, iface.Detection{
			Class: d.className(classIDs[idx]),
			Conf:  scores[idx],
			Box:   box,
			Center: iface.Position{
				X: (box.LT.X + box.RB.X) / 2,
				Y: (box.LT.Y + box.RB.Y) / 2,
			},
		})
	}
	return dets, nil
}

func (d *Detector) className(idx int) string {
	if idx >= 0 && idx < len(d.Names) {
		return d.Names[idx]
	}
	return fmt.Sprintf("class_%d", idx)
}
