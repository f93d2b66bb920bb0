// trainrun launches the external detection trainer with the parameters
// from train.yaml. The trained weights land wherever the framework puts
// them; this program only supplies configuration.
package main

import (
	"flag"
	"fmt"
	"os"

	"wastewatch/logger"
	"wastewatch/train"
)

func main() {
	configPath := flag.String("config", "train.yaml", "path to training config")
	flag.Parse()

	if err := logger.InitDevelopment(); err != nil {
		fmt.Fprintf(os.Stderr, "logger init: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.S()

	cfg, err := train.LoadConfig(*configPath)
	if err != nil {
		log.Fatalw("load training config", "error", err)
	}
	if err := train.Run(cfg); err != nil {
		log.Fatalw("training run failed", "error", err)
	}
}
