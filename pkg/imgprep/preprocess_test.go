package imgprep_test

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"gocv.io/x/gocv"

	"github.com/fiscotrack/cupom-backend/pkg/imgprep"
)

func colorMat(t *testing.T, width, height int) gocv.Mat {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := uint8(255)
			if (x/10+y/10)%2 == 0 {
				c = 40
			}
			img.Set(x, y, color.RGBA{R: c, G: c, B: c, A: 255})
		}
	}
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		t.Fatal(err)
	}
	return mat
}

func TestPreprocess(t *testing.T) {
	src := colorMat(t, 120, 80)
	defer src.Close()

	out := imgprep.Preprocess(src)
	defer out.Close()

	assert.False(t, out.Empty())
	assert.Equal(t, gocv.MatTypeCV8UC1, out.Type())
	assert.Equal(t, 120, out.Cols())
	assert.Equal(t, 80, out.Rows())
}

func TestPreprocessDownscalesLargeImages(t *testing.T) {
	src := gocv.NewMatWithSize(100, 4000, gocv.MatTypeCV8UC3)
	defer src.Close()

	out := imgprep.Preprocess(src)
	defer out.Close()

	assert.False(t, out.Empty())
	assert.LessOrEqual(t, out.Cols(), imgprep.MaxDimension)
	assert.LessOrEqual(t, out.Rows(), imgprep.MaxDimension)
}

func TestPreprocessGrayInput(t *testing.T) {
	src := gocv.NewMatWithSize(50, 50, gocv.MatTypeCV8UC1)
	defer src.Close()

	out := imgprep.Preprocess(src)
	defer out.Close()

	assert.False(t, out.Empty())
	assert.Equal(t, gocv.MatTypeCV8UC1, out.Type())
}
