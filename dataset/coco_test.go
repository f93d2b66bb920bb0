package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "annotations.json")
	payload := `{
		"images": [{"id": 7, "file_name": "batch_1/000007.jpg", "width": 640, "height": 480}],
		"annotations": [{"image_id": 7, "category_id": 1, "bbox": [5.5, 6, 100, 50]}],
		"categories": [{"id": 1, "name": "wet"}]
	}`
	assert.NoError(t, os.WriteFile(path, []byte(payload), 0o644))

	c, err := Load(path)
	assert.NoError(t, err)
	assert.Len(t, c.Images, 1)
	assert.Equal(t, "batch_1/000007.jpg", c.Images[0].FileName)
	assert.Equal(t, [4]float64{5.5, 6, 100, 50}, c.Annotations[0].Bbox)
	assert.Equal(t, map[int]string{1: "wet"}, c.CategoryNames())

	_, err = Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}
