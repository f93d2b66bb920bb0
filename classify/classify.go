// Package classify decides whether a frame's detections violate the
// expected bin type.
package classify

import (
	"errors"
	"fmt"

	"wastewatch/iface"
)

// Bin is the waste class a bin is expected to receive.
type Bin string

const (
	BinDry Bin = "dry"
	BinWet Bin = "wet"
)

// ErrInvalidConfidence reports a detection confidence outside [0, 1].
var ErrInvalidConfidence = errors.New("confidence out of range [0,1]")

// ParseBin validates a bin name from configuration or a request.
func ParseBin(s string) (Bin, error) {
	switch Bin(s) {
	case BinDry:
		return BinDry, nil
	case BinWet:
		return BinWet, nil
	}
	return "", fmt.Errorf("invalid bin type %q (want dry or wet)", s)
}

// FrameResult is the per-frame classification outcome. DominantClass is
// empty when the frame had no detections.
type FrameResult struct {
	Detections    []iface.Detection
	IsViolation   bool
	IsMixed       bool
	DominantClass string
	DominantConf  float32
}

// Classify derives a FrameResult from one frame's detections. The frame
// is a violation when the most confident detection's class differs from
// the expected bin. Confidence ties keep the earlier detection, so the
// result is stable for a given input order. Pure; no side effects.
func Classify(dets []iface.Detection, expected Bin) (FrameResult, error) {
	res := FrameResult{Detections: dets}
	if len(dets) == 0 {
		return res, nil
	}

	classes := make(map[string]struct{}, 2)
	top := 0
	for i, d := range dets {
		if d.Conf < 0 || d.Conf > 1 {
			return FrameResult{}, fmt.Errorf("detection %d (%s): %w", i, d.Class, ErrInvalidConfidence)
		}
		classes[d.Class] = struct{}{}
		if d.Conf > dets[top].Conf {
			top = i
		}
	}

	res.IsMixed = len(classes) > 1
	res.DominantClass = dets[top].Class
	res.DominantConf = dets[top].Conf
	res.IsViolation = res.DominantClass != string(expected)
	return res, nil
}
