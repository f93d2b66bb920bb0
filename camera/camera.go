// Package camera wraps the frame source used by the inference loop.
package camera

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"
)

// ErrUnavailable reports that the capture device could not be opened.
var ErrUnavailable = errors.New("camera not accessible")

// Source is a blocking frame source backed by a capture device.
type Source struct {
	cap *gocv.VideoCapture
}

// Open acquires the capture device. Failure is fatal for the session.
func Open(device int) (*Source, error) {
	cap, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, fmt.Errorf("%w: device %d: %v", ErrUnavailable, device, err)
	}
	if !cap.IsOpened() {
		_ = cap.Close()
		return nil, fmt.Errorf("%w: device %d", ErrUnavailable, device)
	}
	return &Source{cap: cap}, nil
}

// Read blocks for the next frame. ok=false means this frame failed to
// read; the caller skips the iteration and tries again.
func (s *Source) Read(frame *gocv.Mat) (ok bool) {
	return s.cap.Read(frame)
}

// Close releases the capture device.
func (s *Source) Close() error {
	return s.cap.Close()
}
