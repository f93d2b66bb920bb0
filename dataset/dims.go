package dataset

import (
	"fmt"

	"gocv.io/x/gocv"
)

// ReadImageSize decodes the image header to recover its dimensions when
// the annotation manifest omits them.
func ReadImageSize(path string) (width, height int, err error) {
	img := gocv.IMRead(path, gocv.IMReadColor)
	if img.Empty() {
		return 0, 0, fmt.Errorf("decode image %s", path)
	}
	defer img.Close()
	return img.Cols(), img.Rows(), nil
}
