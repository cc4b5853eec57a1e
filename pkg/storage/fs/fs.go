package fs

import (
	"fmt"
	"io"
	"os"
	"path"

	"github.com/sirupsen/logrus"

	"github.com/fiscotrack/cupom-backend/pkg/models"
	"github.com/fiscotrack/cupom-backend/pkg/storage/model"
)

var log = logrus.StandardLogger().WithField("package", "storage/fs")

type Fs struct {
	dir string
}

func (fs *Fs) Retrieve(uploadId string, sequenceId int) (*models.ReceiptImage, error) {
	f, err := os.Open(path.Join(fs.dir, uploadId, fmt.Sprintf("%d.jpg", sequenceId)))
	if err != nil {
		return nil, err
	}
	return &models.ReceiptImage{
		UploadId:   uploadId,
		SequenceId: sequenceId,
		Reader:     f,
	}, nil
}

func (fs *Fs) Store(img models.ReceiptImage) error {
	// Check if directory exists
	_, err := os.Stat(path.Join(fs.dir, img.UploadId))
	if os.IsNotExist(err) {
		err = os.MkdirAll(path.Join(fs.dir, img.UploadId), 0755)
		if err != nil {
			return err
		}
	}

	f, err := os.Create(path.Join(fs.dir, img.UploadId, fmt.Sprintf("%d.jpg", img.SequenceId)))
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := io.Copy(f, img.Reader); err != nil {
		return err
	}
	if _, err := img.Reader.Seek(0, io.SeekStart); err != nil {
		return err
	}
	log.Debugf("Created file %s", f.Name())
	return nil
}

var _ model.Storer = (*Fs)(nil)
var _ model.Retriever = (*Fs)(nil)

func New(dir string) (*Fs, error) {
	_, err := os.Stat(dir)
	if os.IsNotExist(err) {
		err = os.MkdirAll(dir, 0755)
		if err != nil {
			log.Fatalf("unable to create storage directory: %v", err)
		}
	}

	fs := &Fs{
		dir: dir,
	}
	return fs, nil
}
