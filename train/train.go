// Package train launches the external detection-training framework with
// a fixed configuration. Training itself is a black box; this package
// only supplies parameters and reports the exit status.
package train

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"wastewatch/logger"
)

// Config mirrors the options the training framework recognizes.
type Config struct {
	Trainer    string `yaml:"trainer"` // trainer executable, default "yolo"
	Data       string `yaml:"data"`    // dataset manifest path
	Epochs     int    `yaml:"epochs"`
	ImageSize  int    `yaml:"imgsz"`
	BatchSize  int    `yaml:"batch"`
	Device     string `yaml:"device"` // cpu or gpu
	Workers    int    `yaml:"workers"`
	Pretrained bool   `yaml:"pretrained"`
	RunName    string `yaml:"name"`
}

// DefaultConfig matches the historical training run for this dataset.
func DefaultConfig() Config {
	return Config{
		Trainer:    "yolo",
		Data:       "data/taco_yolo/data.yaml",
		Epochs:     50,
		ImageSize:  640,
		BatchSize:  8,
		Device:     "cpu",
		Workers:    0,
		Pretrained: true,
		RunName:    "taco_yolo_v11",
	}
}

// LoadConfig reads a training config, filling unset fields from the
// defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read training config: %w", err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse training config %s: %w", path, err)
	}
	if cfg.Device != "cpu" && cfg.Device != "gpu" {
		return cfg, fmt.Errorf("invalid device %q (want cpu or gpu)", cfg.Device)
	}
	return cfg, nil
}

// Args renders the trainer's command line. The framework maps "gpu" to
// its first CUDA device.
func (c Config) Args() []string {
	device := c.Device
	if device == "gpu" {
		device = "0"
	}
	return []string{
		"detect", "train",
		fmt.Sprintf("data=%s", c.Data),
		fmt.Sprintf("epochs=%d", c.Epochs),
		fmt.Sprintf("imgsz=%d", c.ImageSize),
		fmt.Sprintf("batch=%d", c.BatchSize),
		fmt.Sprintf("device=%s", device),
		fmt.Sprintf("workers=%d", c.Workers),
		fmt.Sprintf("pretrained=%t", c.Pretrained),
		fmt.Sprintf("name=%s", c.RunName),
	}
}

// ResolveTrainer locates the trainer executable: next to this binary,
// then in the working directory, then on PATH.
func ResolveTrainer(name string) (string, error) {
	var tried []string
	if exePath, err := os.Executable(); err == nil {
		p := filepath.Join(filepath.Dir(exePath), name)
		tried = append(tried, p)
		if fileExists(p) {
			return p, nil
		}
	}
	if cwd, err := os.Getwd(); err == nil {
		p := filepath.Join(cwd, name)
		tried = append(tried, p)
		if fileExists(p) {
			return p, nil
		}
	}
	if p, err := exec.LookPath(name); err == nil {
		return p, nil
	}
	tried = append(tried, "$PATH")
	return "", fmt.Errorf("trainer %q not found, tried: %v", name, tried)
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}

// Run resolves the trainer and executes it with the configured
// parameters, wiring its output through. The exit status propagates to
// the caller.
func Run(cfg Config) error {
	target, err := ResolveTrainer(cfg.Trainer)
	if err != nil {
		return err
	}
	log := logger.S()
	log.Infow("starting training", "trainer", target, "data", cfg.Data,
		"epochs", cfg.Epochs, "device", cfg.Device, "name", cfg.RunName)

	cmd := exec.Command(target, cfg.Args()...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("trainer exited: %w", err)
	}
	log.Infow("training complete", "run", cfg.RunName)
	return nil
}
