package server

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the analysis service configuration, read from config.yaml.
type Config struct {
	HTTPPort    int      `yaml:"httpPort"`
	MonitorPort int      `yaml:"monitorPort"`
	WorkersNum  int      `yaml:"workersNum"`
	ModelPath   string   `yaml:"modelPath"`
	NamesFile   string   `yaml:"namesFile"`
	Names       []string `yaml:"names"`
	Conf        float32  `yaml:"conf"`
	Iou         float32  `yaml:"iou"`
	UseGPU      bool     `yaml:"useGPU"`
	Bin         string   `yaml:"bin"`
	SnapshotDir string   `yaml:"snapshotDir"`
	AlertURL    string   `yaml:"alertURL"`
}

// DefaultConfig mirrors the historical deployment defaults.
func DefaultConfig() Config {
	return Config{
		HTTPPort:    8080,
		MonitorPort: 0, // metrics disabled unless configured
		WorkersNum:  1,
		ModelPath:   "best.onnx",
		Names:       []string{"dry", "wet"},
		Conf:        0.50,
		Iou:         0.45,
		Bin:         "dry",
		SnapshotDir: "snapshots",
	}
}

// LoadConfig reads a YAML config, filling unset fields from defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.WorkersNum <= 0 {
		cfg.WorkersNum = 1
	}
	return cfg, nil
}
