package b2_test

import (
	"bytes"
	"os"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fiscotrack/cupom-backend/pkg/models"
	"github.com/fiscotrack/cupom-backend/pkg/storage/b2"
)

func TestMain(m *testing.M) {
	logrus.StandardLogger().SetLevel(logrus.DebugLevel)
	os.Exit(m.Run())
}

var testEncryptionKey = "my key"

func getStorage(t *testing.T, passphrase string) *b2.B2 {
	if os.Getenv("E2E_TEST") != "true" {
		t.Skip("skipping test; E2E_TEST is not set")
	}
	b2Storage, err := b2.New(b2.Config{
		Account:    os.Getenv("B2_ACCOUNT"),
		Key:        os.Getenv("B2_KEY"),
		BucketName: os.Getenv("B2_BUCKET_NAME"),
		Passphrase: passphrase,
	})
	if err != nil {
		t.Fatal(err)
	}
	return b2Storage
}

func TestB2_Store(t *testing.T) {
	b2Storage := getStorage(t, "")
	err := b2Storage.Store(models.ReceiptImage{
		Reader:     bytes.NewReader([]byte("hello world")),
		UploadId:   "test",
		SequenceId: 1,
		UploadTime: time.Now(),
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestB2_StoreEncrypted(t *testing.T) {
	b2Storage := getStorage(t, testEncryptionKey)
	err := b2Storage.Store(models.ReceiptImage{
		Reader:     bytes.NewReader([]byte("hello world")),
		UploadId:   "test-encryption",
		SequenceId: 1,
		UploadTime: time.Now(),
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestB2_RetrieveEncrypted(t *testing.T) {
	b2Storage := getStorage(t, testEncryptionKey)
	s, err := b2Storage.Retrieve("test-encryption", 1)
	if err != nil {
		t.Fatal(err)
	}
	if s == nil {
		t.Fatal("s is nil")
	}

	buf := new(bytes.Buffer)
	_, err = buf.ReadFrom(s.Reader)
	if err != nil {
		t.Fatal(err)
	}

	if buf.String() != "hello world" {
		t.Fatalf("expected 'hello world', got '%s'", buf.String())
	}
}

func TestB2_Retrieve(t *testing.T) {
	b2Storage := getStorage(t, "")
	s, err := b2Storage.Retrieve("test", 1)
	if err != nil {
		t.Fatal(err)
	}
	if s == nil {
		t.Fatal("s is nil")
	}

	buf := new(bytes.Buffer)
	_, err = buf.ReadFrom(s.Reader)
	if err != nil {
		t.Fatal(err)
	}

	if buf.String() != "hello world" {
		t.Fatalf("expected 'hello world', got '%s'", buf.String())
	}
}
