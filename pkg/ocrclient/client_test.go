package ocrclient_test

import (
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fiscotrack/cupom-backend/pkg/ocrclient"
	"github.com/fiscotrack/cupom-backend/pkg/ocrclient/caroundtripper"
)

func getFile(t *testing.T, path string) *os.File {
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("unable to open file: %v", err)
	}
	return f
}

func getClient(t *testing.T) *ocrclient.Client {
	ocrApiAddr := os.Getenv("OCR_API_ADDR")
	if ocrApiAddr == "" {
		t.Skip("OCR_API_ADDR not set, skipping test")
	}
	c, err := ocrclient.New(ocrApiAddr)
	if err != nil {
		t.Fatalf("unable to create client: %v", err)
	}

	caRoundtripper, err := caroundtripper.New(os.Getenv("OCR_API_CA_PATH"))
	if err != nil {
		t.Fatalf("unable to create CA client: %v", err)
	}

	c.SetHttpTransport(caRoundtripper)
	return c
}

func TestClient(t *testing.T) {
	c := getClient(t)
	healthy, err := c.Healthz()
	assert.True(t, healthy)
	assert.Nil(t, err)

	f := getFile(t, os.Getenv("RECEIPT_SAMPLE_PATH"))
	defer f.Close()
	result, err := c.Recognize(f)
	if err != nil {
		t.Fatalf("unable to perform OCR: %v", err)
	}

	fmt.Printf("OCR Result: %v", result)
}

func TestNewRejectsInvalidScheme(t *testing.T) {
	_, err := ocrclient.New("ftp://example.com")
	assert.Error(t, err)
}
