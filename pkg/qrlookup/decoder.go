// Package qrlookup detects the QR code printed on a fiscal receipt and
// resolves its payload into the tax-authority lookup URL, the issuing
// region and the document access key.
package qrlookup

import (
	"image"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

var log = logrus.StandardLogger().WithField("package", "qrlookup")

// Decoder wraps the OpenCV QR detector. Not safe for concurrent use;
// create one per goroutine.
type Decoder struct {
	detector gocv.QRCodeDetector
}

func NewDecoder() *Decoder {
	return &Decoder{detector: gocv.NewQRCodeDetector()}
}

func (d *Decoder) Close() {
	d.detector.Close()
}

// DecodeBytes decodes an encoded image (JPEG/PNG) and scans it for a
// QR code. An empty string means no QR code was found under any
// transform; that is not an error, it tells the caller to fall back to
// the OCR path.
func (d *Decoder) DecodeBytes(b []byte) string {
	img, err := gocv.IMDecode(b, gocv.IMReadColor)
	if err != nil || img.Empty() {
		return ""
	}
	defer img.Close()
	return d.Decode(img)
}

// Decode scans an in-memory image for a QR code, first directly and
// then against a fixed ordered list of image transforms, stopping at
// the first one that yields a payload.
func (d *Decoder) Decode(img gocv.Mat) string {
	points := gocv.NewMat()
	defer points.Close()
	straight := gocv.NewMat()
	defer straight.Close()

	if payload := d.detector.DetectAndDecode(img, &points, &straight); payload != "" {
		return payload
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if img.Channels() == 3 {
		gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)
	} else {
		img.CopyTo(&gray)
	}

	for _, t := range decodeTransforms {
		candidate := t.apply(img, gray)
		payload := d.detector.DetectAndDecode(candidate, &points, &straight)
		candidate.Close()
		if payload != "" {
			log.Debugf("QR decoded after %s", t.name)
			return payload
		}
	}
	return ""
}

type decodeTransform struct {
	name  string
	apply func(color, gray gocv.Mat) gocv.Mat
}

// Retry ladder for hard-to-read codes (glare, crumpled paper, low
// resolution). Order matters: cheapest and most commonly successful
// first.
var decodeTransforms = []decodeTransform{
	{"adaptive threshold", func(color, gray gocv.Mat) gocv.Mat {
		th := gocv.NewMat()
		defer th.Close()
		gocv.AdaptiveThreshold(gray, &th, 255,
			gocv.AdaptiveThresholdGaussian, gocv.ThresholdBinary, 11, 2)
		return toBGR(th)
	}},
	{"otsu threshold", func(color, gray gocv.Mat) gocv.Mat {
		th := gocv.NewMat()
		defer th.Close()
		gocv.Threshold(gray, &th, 0, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)
		return toBGR(th)
	}},
	{"clahe", func(color, gray gocv.Mat) gocv.Mat {
		clahe := gocv.NewCLAHEWithParams(2.0, image.Pt(8, 8))
		defer clahe.Close()
		enhanced := gocv.NewMat()
		defer enhanced.Close()
		clahe.Apply(gray, &enhanced)
		return toBGR(enhanced)
	}},
	{"2x upscale", func(color, gray gocv.Mat) gocv.Mat {
		resized := gocv.NewMat()
		gocv.Resize(color, &resized, image.Pt(0, 0), 2, 2, gocv.InterpolationCubic)
		return resized
	}},
	{"blur + otsu", func(color, gray gocv.Mat) gocv.Mat {
		blurred := gocv.NewMat()
		defer blurred.Close()
		gocv.GaussianBlur(gray, &blurred, image.Pt(5, 5), 0, 0, gocv.BorderDefault)
		th := gocv.NewMat()
		defer th.Close()
		gocv.Threshold(blurred, &th, 0, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)
		return toBGR(th)
	}},
}

func toBGR(gray gocv.Mat) gocv.Mat {
	bgr := gocv.NewMat()
	gocv.CvtColor(gray, &bgr, gocv.ColorGrayToBGR)
	return bgr
}
