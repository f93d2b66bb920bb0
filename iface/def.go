package iface

import "gocv.io/x/gocv"

// NamesConf carries class names either inline or as a path to a
// newline-separated names file.
type NamesConf struct {
	IsFile bool
	Data   any
}

type EngineConfig struct {
	UseGPU    bool
	ModelPath string
	Names     NamesConf
	Conf      float32
	Iou       float32
}

type Position struct {
	X, Y float32
}

// Box is a pixel-space bounding box given by its four corners.
type Box struct {
	LT Position
	RT Position
	RB Position
	LB Position
}

// Detection is one object instance found in a frame. Detections are
// produced in descending confidence order and never mutated afterwards.
type Detection struct {
	Class  string
	Conf   float32
	Box    Box
	Center Position
}

// RetData is the detector result envelope.
type RetData struct {
	Success    bool
	Detections []Detection
	Message    string
}

// BoxFromCorners builds a Box from the top-left and bottom-right corners.
func BoxFromCorners(x1, y1, x2, y2 float32) Box {
	return Box{
		LT: Position{X: x1, Y: y1},
		RT: Position{X: x2, Y: y1},
		RB: Position{X: x2, Y: y2},
		LB: Position{X: x1, Y: y2},
	}
}

type Backend interface {
	LoadModel(modelPath string, names NamesConf, conf float32, iou float32, useGPU bool) error
	Detect(image gocv.Mat) RetData
	Destroy()
	CheckConfig() EngineConfig
}
