package dataset

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"wastewatch/logger"
)

// DefaultSeed matches the seed the dataset has historically been built
// with; changing it re-deals every split.
const DefaultSeed = 42

// Stats summarizes one conversion run.
type Stats struct {
	Copied   int // images copied into a split
	Labeled  int // images with at least one box
	Boxes    int // label lines written
	Missing  int // source images absent on disk, skipped
	BadDims  int // images whose dimensions could not be resolved, skipped
	Orphaned int // annotations referencing unknown image ids, dropped
}

// Converter writes the split image/label tree for one annotation set.
// Dims resolves image dimensions when the manifest omits them; it
// defaults to decoding the image file.
type Converter struct {
	ImageRoot string
	OutRoot   string
	Seed      int64
	Dims      func(path string) (width, height int, err error)
}

// NewConverter returns a converter with the default seed and the
// image-decoding dimension reader.
func NewConverter(imageRoot, outRoot string) *Converter {
	return &Converter{
		ImageRoot: imageRoot,
		OutRoot:   outRoot,
		Seed:      DefaultSeed,
		Dims:      ReadImageSize,
	}
}

// LabelLine renders one annotation as "category cx cy w h" with all
// spatial values normalized by the image dimensions.
func LabelLine(a Annotation, width, height int) string {
	x, y, bw, bh := a.Bbox[0], a.Bbox[1], a.Bbox[2], a.Bbox[3]
	w := float64(width)
	h := float64(height)
	return fmt.Sprintf("%d %.6f %.6f %.6f %.6f",
		a.CategoryID,
		(x+bw/2)/w,
		(y+bh/2)/h,
		bw/w,
		bh/h,
	)
}

// Run converts the annotation set into the output tree and writes the
// dataset manifest. Per-image problems are counted, not fatal.
func (c *Converter) Run(coco *COCO) (Stats, error) {
	var stats Stats
	log := logger.S()

	for _, s := range Splits {
		for _, sub := range []string{"images", "labels"} {
			if err := os.MkdirAll(filepath.Join(c.OutRoot, string(s), sub), 0o755); err != nil {
				return stats, fmt.Errorf("create output tree: %w", err)
			}
		}
	}

	byImage, orphaned := coco.AnnotationsByImage()
	stats.Orphaned = orphaned
	if orphaned > 0 {
		log.Warnw("dropped annotations for unknown images", "count", orphaned)
	}

	ids := make([]int, 0, len(coco.Images))
	for _, img := range coco.Images {
		ids = append(ids, img.ID)
	}
	assignment := AllocateSplits(ids, c.Seed)

	for _, img := range coco.Images {
		// file_name may carry a subpath (batch_N/000NNN.jpg); it is kept
		// as-is so basenames repeating across batches cannot collide.
		rel := filepath.FromSlash(img.FileName)
		src := filepath.Join(c.ImageRoot, rel)
		if _, err := os.Stat(src); err != nil {
			stats.Missing++
			log.Warnw("missing source image", "path", src)
			continue
		}

		// Dimensions are resolved before the copy so an undecodable image
		// never lands in a split without its label file.
		w, h := img.Width, img.Height
		if w == 0 || h == 0 {
			var err error
			w, h, err = c.Dims(src)
			if err != nil {
				stats.BadDims++
				log.Warnw("unresolved image dimensions", "path", src, "error", err)
				continue
			}
		}

		split := assignment[img.ID]
		dstImg := filepath.Join(c.OutRoot, string(split), "images", rel)
		if err := os.MkdirAll(filepath.Dir(dstImg), 0o755); err != nil {
			return stats, fmt.Errorf("create image dir: %w", err)
		}
		if err := copyFile(src, dstImg); err != nil {
			return stats, fmt.Errorf("copy %s: %w", src, err)
		}
		stats.Copied++

		lines := make([]string, 0, len(byImage[img.ID]))
		for _, a := range byImage[img.ID] {
			lines = append(lines, LabelLine(a, w, h))
			stats.Boxes++
		}
		// Empty label files are written on purpose: "no objects" must be
		// distinguishable from "not processed" downstream.
		dstLbl := filepath.Join(c.OutRoot, string(split), "labels", labelName(rel))
		if err := os.MkdirAll(filepath.Dir(dstLbl), 0o755); err != nil {
			return stats, fmt.Errorf("create label dir: %w", err)
		}
		if err := os.WriteFile(dstLbl, []byte(strings.Join(lines, "\n")), 0o644); err != nil {
			return stats, fmt.Errorf("write labels %s: %w", dstLbl, err)
		}
		if len(lines) > 0 {
			stats.Labeled++
		}
	}

	// The manifest path must be absolute: trainers resolve the split
	// directories against it from their own working directory.
	absRoot, err := filepath.Abs(c.OutRoot)
	if err != nil {
		return stats, fmt.Errorf("resolve output root: %w", err)
	}
	if err := WriteManifest(filepath.Join(c.OutRoot, "data.yaml"), Manifest{
		Path:  absRoot,
		Train: "train/images",
		Val:   "val/images",
		Test:  "test/images",
		Names: coco.CategoryNames(),
	}); err != nil {
		return stats, err
	}

	log.Infow("conversion complete",
		"copied", stats.Copied,
		"labeled", stats.Labeled,
		"boxes", stats.Boxes,
		"missing", stats.Missing,
		"bad_dims", stats.BadDims,
		"orphaned", stats.Orphaned,
	)
	return stats, nil
}

func labelName(imageName string) string {
	ext := filepath.Ext(imageName)
	return strings.TrimSuffix(imageName, ext) + ".txt"
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
