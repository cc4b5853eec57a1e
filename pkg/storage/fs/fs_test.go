package fs_test

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fiscotrack/cupom-backend/pkg/models"
	"github.com/fiscotrack/cupom-backend/pkg/storage/fs"
)

func TestStoreRetrieve(t *testing.T) {
	s, err := fs.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	err = s.Store(models.ReceiptImage{
		Reader:     bytes.NewReader([]byte("photo bytes")),
		UploadId:   "upload-1",
		SequenceId: 1,
		UploadTime: time.Now(),
	})
	if err != nil {
		t.Fatal(err)
	}

	img, err := s.Retrieve("upload-1", 1)
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, "upload-1", img.UploadId)
	assert.Equal(t, 1, img.SequenceId)

	content, err := io.ReadAll(img.Reader)
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, []byte("photo bytes"), content)
}

func TestRetrieveMissing(t *testing.T) {
	s, err := fs.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	_, err = s.Retrieve("nope", 99)
	assert.Error(t, err)
}
