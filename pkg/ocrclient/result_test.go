package ocrclient_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fiscotrack/cupom-backend/pkg/ocrclient"
)

func fragment(text string, top, left int, confidence float64) ocrclient.Fragment {
	return ocrclient.Fragment{
		Text:       text,
		Confidence: confidence,
		BoundingBox: ocrclient.BoundingBox{
			Top:    top,
			Bottom: top + 10,
			Left:   left,
			Right:  left + 50,
		},
	}
}

func TestResultText(t *testing.T) {
	r := ocrclient.Result{
		Fragments: []ocrclient.Fragment{
			fragment("TOTAL 45,90", 200, 0, 0.9),
			fragment("MERCADO DO ZE", 0, 0, 0.8),
			fragment("ARROZ", 100, 0, 0.7),
		},
	}
	// Fragments are sorted top to bottom regardless of arrival order
	assert.Equal(t, "MERCADO DO ZE\nARROZ\nTOTAL 45,90", r.Text())
}

func TestResultTextSameLine(t *testing.T) {
	r := ocrclient.Result{
		Fragments: []ocrclient.Fragment{
			fragment("45,90", 10, 300, 0.9),
			fragment("TOTAL", 10, 0, 0.9),
		},
	}
	assert.Equal(t, "TOTAL\n45,90", r.Text())
}

func TestMeanConfidence(t *testing.T) {
	r := ocrclient.Result{
		Fragments: []ocrclient.Fragment{
			fragment("a", 0, 0, 0.8),
			fragment("b", 10, 0, 0.6),
		},
	}
	assert.InDelta(t, 0.7, r.MeanConfidence(), 0.0001)
}

func TestMeanConfidenceEmpty(t *testing.T) {
	r := ocrclient.Result{}
	assert.Equal(t, 0.0, r.MeanConfidence())
}
