// taco2yolo converts a COCO-style annotation set into the split
// image/label tree plus data.yaml manifest the training framework
// consumes.
package main

import (
	"flag"
	"fmt"
	"os"

	"wastewatch/dataset"
	"wastewatch/logger"
)

func main() {
	var (
		annotations = flag.String("annotations", "data/raw/taco/annotations_final.json", "COCO annotation file")
		imageRoot   = flag.String("images", "data/raw/taco", "directory containing the source images")
		outRoot     = flag.String("out", "data/taco_yolo", "output dataset root")
		seed        = flag.Int64("seed", dataset.DefaultSeed, "split shuffle seed")
	)
	flag.Parse()

	if err := logger.InitDevelopment(); err != nil {
		fmt.Fprintf(os.Stderr, "logger init: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.S()

	log.Infow("using annotation file", "path", *annotations)
	coco, err := dataset.Load(*annotations)
	if err != nil {
		log.Fatalw("load annotations", "error", err)
	}

	conv := dataset.NewConverter(*imageRoot, *outRoot)
	conv.Seed = *seed
	stats, err := conv.Run(coco)
	if err != nil {
		log.Fatalw("conversion failed", "error", err)
	}

	log.Infow("dataset ready",
		"root", *outRoot,
		"copied", stats.Copied,
		"labeled", stats.Labeled,
		"boxes", stats.Boxes,
		"missing", stats.Missing,
		"bad_dims", stats.BadDims,
		"orphaned", stats.Orphaned,
	)
}
