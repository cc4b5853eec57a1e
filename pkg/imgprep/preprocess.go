package imgprep

import (
	"image"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

var log = logrus.StandardLogger().WithField("package", "imgprep")

// MaxDimension is the ceiling for either image dimension before OCR.
// Larger photos are scaled down preserving aspect ratio; images are
// never scaled up.
const MaxDimension = 3000

// Preprocess prepares a receipt photo for the OCR engine: downscale,
// grayscale, denoise, adaptive contrast (CLAHE) and adaptive
// binarization. It is total: for pixel formats it does not know how to
// binarize it falls back to a plain contrast stretch instead of
// failing the pipeline. The caller owns the returned Mat.
func Preprocess(src gocv.Mat) gocv.Mat {
	resized := downscale(src)

	gray, ok := toGray(resized)
	resized.Close()
	if !ok {
		return gray
	}

	denoised := gocv.NewMat()
	gocv.FastNlMeansDenoisingWithParams(gray, &denoised, 10, 7, 21)
	gray.Close()

	clahe := gocv.NewCLAHEWithParams(2.0, image.Pt(8, 8))
	enhanced := gocv.NewMat()
	clahe.Apply(denoised, &enhanced)
	clahe.Close()
	denoised.Close()

	// Local-neighborhood threshold tolerates the uneven lighting of a
	// photographed receipt better than a single global cutoff.
	binary := gocv.NewMat()
	gocv.AdaptiveThreshold(enhanced, &binary, 255,
		gocv.AdaptiveThresholdGaussian, gocv.ThresholdBinary, 11, 2)
	enhanced.Close()

	return binary
}

func downscale(src gocv.Mat) gocv.Mat {
	width := src.Cols()
	height := src.Rows()
	if width <= MaxDimension && height <= MaxDimension {
		return src.Clone()
	}

	var newWidth, newHeight int
	if width > height {
		newWidth = MaxDimension
		newHeight = height * MaxDimension / width
	} else {
		newHeight = MaxDimension
		newWidth = width * MaxDimension / height
	}

	dst := gocv.NewMat()
	gocv.Resize(src, &dst, image.Pt(newWidth, newHeight), 0, 0, gocv.InterpolationLanczos4)
	return dst
}

// toGray reduces src to a single 8-bit channel. The second return
// value is false when the pixel format is unsupported, in which case
// the returned Mat is a min-max contrast stretch of the input.
func toGray(src gocv.Mat) (gocv.Mat, bool) {
	dst := gocv.NewMat()
	switch src.Type() {
	case gocv.MatTypeCV8UC1:
		return src.Clone(), true
	case gocv.MatTypeCV8UC3:
		gocv.CvtColor(src, &dst, gocv.ColorBGRToGray)
		return dst, true
	case gocv.MatTypeCV8UC4:
		gocv.CvtColor(src, &dst, gocv.ColorBGRAToGray)
		return dst, true
	}

	log.Warnf("unsupported mat type %v, falling back to contrast stretch", src.Type())
	gocv.Normalize(src, &dst, 0, 255, gocv.NormMinMax)
	return dst, false
}
