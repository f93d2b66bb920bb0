// Package dataset converts a COCO-style annotation set into the
// train/val/test label layout consumed by the training framework.
package dataset

import (
	"encoding/json"
	"fmt"
	"os"
)

// ImageRecord is one source image entry from the annotation manifest.
// Width/Height may be zero; the converter backfills them from the file.
type ImageRecord struct {
	ID       int    `json:"id"`
	FileName string `json:"file_name"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// Annotation is one labeled box, top-left origin, absolute pixels.
type Annotation struct {
	ImageID    int        `json:"image_id"`
	CategoryID int        `json:"category_id"`
	Bbox       [4]float64 `json:"bbox"`
}

type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// COCO is the decoded annotation manifest.
type COCO struct {
	Images      []ImageRecord `json:"images"`
	Annotations []Annotation  `json:"annotations"`
	Categories  []Category    `json:"categories"`
}

// Load reads and decodes a COCO annotation file.
func Load(path string) (*COCO, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read annotations: %w", err)
	}
	var c COCO
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse annotations %s: %w", path, err)
	}
	return &c, nil
}

// AnnotationsByImage groups annotations by their image id. Annotations
// whose image id has no ImageRecord are dropped and counted.
func (c *COCO) AnnotationsByImage() (byImage map[int][]Annotation, orphaned int) {
	known := make(map[int]struct{}, len(c.Images))
	for _, img := range c.Images {
		known[img.ID] = struct{}{}
	}
	byImage = make(map[int][]Annotation, len(c.Images))
	for _, a := range c.Annotations {
		if _, ok := known[a.ImageID]; !ok {
			orphaned++
			continue
		}
		byImage[a.ImageID] = append(byImage[a.ImageID], a)
	}
	return byImage, orphaned
}

// CategoryNames returns the id to name mapping for the manifest.
func (c *COCO) CategoryNames() map[int]string {
	names := make(map[int]string, len(c.Categories))
	for _, cat := range c.Categories {
		names[cat.ID] = cat.Name
	}
	return names
}
