package train

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Args(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, []string{
		"detect", "train",
		"data=data/taco_yolo/data.yaml",
		"epochs=50",
		"imgsz=640",
		"batch=8",
		"device=cpu",
		"workers=0",
		"pretrained=true",
		"name=taco_yolo_v11",
	}, cfg.Args())
}

func TestConfig_ArgsGPU(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Device = "gpu"
	assert.Contains(t, cfg.Args(), "device=0")
}

func TestLoadConfig(t *testing.T) {
	t.Run("overrides merge onto defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "train.yaml")
		assert.NoError(t, os.WriteFile(path, []byte("epochs: 5\nname: smoke\n"), 0o644))

		cfg, err := LoadConfig(path)
		assert.NoError(t, err)
		assert.Equal(t, 5, cfg.Epochs)
		assert.Equal(t, "smoke", cfg.RunName)
		// untouched fields keep their defaults
		assert.Equal(t, 8, cfg.BatchSize)
		assert.Equal(t, "cpu", cfg.Device)
	})

	t.Run("rejects unknown device", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "train.yaml")
		assert.NoError(t, os.WriteFile(path, []byte("device: tpu\n"), 0o644))
		_, err := LoadConfig(path)
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})
}

func TestResolveTrainer(t *testing.T) {
	t.Run("finds binary in working directory", func(t *testing.T) {
		dir := t.TempDir()
		bin := filepath.Join(dir, "faketrainer")
		assert.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\n"), 0o755))

		wd, err := os.Getwd()
		assert.NoError(t, err)
		assert.NoError(t, os.Chdir(dir))
		t.Cleanup(func() { _ = os.Chdir(wd) })

		p, err := ResolveTrainer("faketrainer")
		assert.NoError(t, err)
		assert.Equal(t, bin, p)
	})

	t.Run("reports tried locations when absent", func(t *testing.T) {
		_, err := ResolveTrainer("definitely-not-a-trainer")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})
}
