package qrlookup_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"gocv.io/x/gocv"

	"github.com/fiscotrack/cupom-backend/pkg/qrlookup"
)

func TestDecodeBytesNotAnImage(t *testing.T) {
	d := qrlookup.NewDecoder()
	defer d.Close()
	assert.Equal(t, "", d.DecodeBytes([]byte("not an image")))
}

func TestDecodeBlankImage(t *testing.T) {
	d := qrlookup.NewDecoder()
	defer d.Close()

	img := gocv.NewMatWithSize(200, 200, gocv.MatTypeCV8UC3)
	defer img.Close()

	assert.Equal(t, "", d.Decode(img))
}

func TestDecodeSamplePhoto(t *testing.T) {
	samplePath := os.Getenv("QR_SAMPLE_PATH")
	if samplePath == "" {
		t.Skip("QR_SAMPLE_PATH not set, skipping test")
	}

	d := qrlookup.NewDecoder()
	defer d.Close()

	b, err := os.ReadFile(samplePath)
	if err != nil {
		t.Fatal(err)
	}
	decoded := d.DecodeBytes(b)
	assert.NotEmpty(t, decoded)

	payload, ok := qrlookup.Resolve(decoded)
	assert.True(t, ok)
	assert.NotEmpty(t, payload.AccessKey)
}
