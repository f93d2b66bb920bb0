package engine

import (
	"fmt"
	"os"
	"reflect"
	"strings"

	"gocv.io/x/gocv"

	"wastewatch/iface"
)

// Lifecycle states. UNREGISTERED is the zero value, so a Detector that
// was never initialized refuses work instead of reaching a nil network.
const (
	UNREGISTERED = iota
	REGISTERED
	IDLE
	BUSY
)

// DefaultInputSize is the square input resolution the network expects.
const DefaultInputSize = 640

// ReadNamesFile loads one class name per line, tolerating CRLF endings
// and blank trailing lines.
func ReadNamesFile(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	raw := strings.Split(string(b), "\n")
	var lines []string
	for _, l := range raw {
		l = strings.TrimRight(l, "\r")
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines, nil
}

// Detector wraps an ONNX object-detection network. Zero value is
// unusable; call New, then LoadModel, then Detect, and Destroy at
// session end.
type Detector struct {
	ModelPath string
	Names     []string
	Conf      float32
	Iou       float32
	UseGPU    bool
	InputSize int
	State     int

	net    gocv.Net
	loaded bool
}

func (d *Detector) New() bool {
	d.State = REGISTERED
	d.InputSize = DefaultInputSize
	return true
}

func (d *Detector) CheckConfig() iface.EngineConfig {
	return iface.EngineConfig{
		ModelPath: d.ModelPath,
		Conf:      d.Conf,
		Iou:       d.Iou,
		UseGPU:    d.UseGPU,
		Names: iface.NamesConf{
			IsFile: false,
			Data:   d.Names,
		},
	}
}

// LoadModel reads the ONNX weights and resolves class names from either
// a names file or an inline slice.
func (d *Detector) LoadModel(modelPath string, names iface.NamesConf, conf float32, iou float32, useGPU bool) error {
	if names.IsFile {
		resolved, err := ReadNamesFile(names.Data.(string))
		if err != nil {
			return fmt.Errorf("read names file: %w", err)
		}
		d.Names = resolved
	} else {
		rv := reflect.ValueOf(names.Data)
		if rv.Kind() != reflect.Slice {
			return fmt.Errorf("names must be a slice or a file path")
		}
		n := rv.Len()
		d.Names = make([]string, n)
		for i := 0; i < n; i++ {
			d.Names[i] = rv.Index(i).Interface().(string)
		}
	}
	if !strings.HasSuffix(modelPath, ".onnx") {
		return fmt.Errorf("LoadModel only supports .onnx weights, got %q", modelPath)
	}
	if conf < 0 || conf > 1 {
		return fmt.Errorf("confidence must be between 0.0 and 1.0, got %f", conf)
	}
	if iou < 0 || iou > 1 {
		return fmt.Errorf("IoU must be between 0.0 and 1.0, got %f", iou)
	}
	d.ModelPath = modelPath
	d.Conf = conf
	d.Iou = iou
	d.UseGPU = useGPU
	if d.InputSize == 0 {
		d.InputSize = DefaultInputSize
	}
	if err := d.initNet(); err != nil {
		d.State = UNREGISTERED
		return err
	}
	d.State = IDLE
	return nil
}

func (d *Detector) SetInputSize(size int) {
	d.InputSize = size
}

// Destroy releases the network and resets the detector to its
// unregistered state.
func (d *Detector) Destroy() {
	if d.loaded {
		_ = d.net.Close()
		d.loaded = false
	}
	d.ModelPath = ""
	d.Names = nil
	d.Conf = 0
	d.Iou = 0
	d.UseGPU = false
	d.State = UNREGISTERED
}

// Detect runs one inference pass over the frame.
func (d *Detector) Detect(img gocv.Mat) iface.RetData {
	switch d.State {
	case UNREGISTERED:
		return iface.RetData{Success: false, Message: "detector not registered"}
	case REGISTERED:
		return iface.RetData{Success: false, Message: "model not loaded"}
	case BUSY:
		return iface.RetData{Success: false, Message: "detector is busy"}
	}
	d.State = BUSY
	defer func() { d.State = IDLE }()

	dets, err := d.forward(img)
	if err != nil {
		return iface.RetData{Success: false, Message: err.Error()}
	}
	return iface.RetData{Success: true, Detections: dets}
}
