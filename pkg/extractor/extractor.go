package extractor

import (
	"bytes"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"github.com/fiscotrack/cupom-backend/pkg/categories"
	"github.com/fiscotrack/cupom-backend/pkg/cupom"
	"github.com/fiscotrack/cupom-backend/pkg/imgprep"
	"github.com/fiscotrack/cupom-backend/pkg/models"
	"github.com/fiscotrack/cupom-backend/pkg/ocrclient"
	"github.com/fiscotrack/cupom-backend/pkg/qrlookup"
	"github.com/fiscotrack/cupom-backend/pkg/sefaz"
)

var log = logrus.StandardLogger().WithField("package", "extractor")

// Engine performs text recognition on a receipt photo. Satisfied by
// ocrclient.Client.
type Engine interface {
	Recognize(f io.Reader) (*ocrclient.Result, error)
}

// Extractor turns a receipt photo into a structured receipt. It first
// tries the QR code path (decode, then scrape the tax-authority
// lookup page) and falls back to OCR when any step of it fails.
type Extractor struct {
	engine  Engine
	decoder *qrlookup.Decoder
	sefaz   *sefaz.Client
}

func New(engine Engine, opts ...sefaz.Option) *Extractor {
	return &Extractor{
		engine:  engine,
		decoder: qrlookup.NewDecoder(),
		sefaz:   sefaz.New(opts...),
	}
}

func (e *Extractor) Close() {
	e.decoder.Close()
}

// ProcessImage extracts a receipt from an encoded image (JPEG or
// PNG). It always returns a receipt: when both paths fail the receipt
// has Succeeded set to false and an error message.
func (e *Extractor) ProcessImage(img []byte) *models.Receipt {
	if receipt := e.tryQRCode(img); receipt != nil {
		return receipt
	}
	return e.extractText(img)
}

// tryQRCode returns nil when the image has no usable QR code or the
// authority lookup fails, so the caller falls back to OCR.
func (e *Extractor) tryQRCode(img []byte) *models.Receipt {
	decoded := e.decoder.DecodeBytes(img)
	if decoded == "" {
		return nil
	}
	payload, ok := qrlookup.Resolve(decoded)
	if !ok {
		log.Debugf("QR payload is not a lookup URL: %q", decoded)
		return nil
	}
	log.Infof("found QR code, region=%s", payload.Region)

	receipt := e.sefaz.Fetch(payload)
	if !receipt.Succeeded {
		log.Warnf("authority lookup failed, falling back to OCR: %s", receipt.ErrorMessage)
		return nil
	}
	return receipt
}

func (e *Extractor) extractText(img []byte) *models.Receipt {
	text, confidence := e.recognize(img)
	if text == "" {
		return &models.Receipt{
			SourceKind:   models.SourceOCR,
			ErrorMessage: "no text recognized",
		}
	}

	receipt := cupom.ParseText(text)
	receipt.RawText = text
	receipt.Confidence = confidence
	receipt.Succeeded = receipt.MerchantName != "" || !receipt.TotalAmount.IsZero() || len(receipt.Items) > 0
	if !receipt.Succeeded {
		receipt.ErrorMessage = "no receipt fields found in recognized text"
	}

	for i := range receipt.Items {
		if category, ok := categories.Suggest(receipt.Items[i].Description); ok {
			receipt.Items[i].SuggestedCategory = category
		}
	}
	return receipt
}

// recognize preprocesses the photo and runs it through the OCR
// engine. Returns an empty string when recognition fails.
func (e *Extractor) recognize(img []byte) (string, float64) {
	payload, err := e.preprocess(img)
	if err != nil {
		log.Warnf("preprocessing failed, using original image: %s", err)
		payload = img
	}

	result, err := e.engine.Recognize(bytes.NewReader(payload))
	if err != nil {
		log.Warnf("text recognition failed: %s", err)
		return "", 0.0
	}
	return result.Text(), result.MeanConfidence()
}

func (e *Extractor) preprocess(img []byte) ([]byte, error) {
	mat, err := gocv.IMDecode(img, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("unable to decode image: %w", err)
	}
	defer mat.Close()
	if mat.Empty() {
		return nil, fmt.Errorf("empty image")
	}

	prepped := imgprep.Preprocess(mat)
	defer prepped.Close()

	buf, err := gocv.IMEncode(gocv.PNGFileExt, prepped)
	if err != nil {
		return nil, fmt.Errorf("unable to encode image: %w", err)
	}
	defer buf.Close()
	out := make([]byte, len(buf.GetBytes()))
	copy(out, buf.GetBytes())
	return out, nil
}
