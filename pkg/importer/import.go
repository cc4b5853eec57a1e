package importer

import (
	"bytes"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/fiscotrack/cupom-backend/pkg/indexer"
	"github.com/fiscotrack/cupom-backend/pkg/models"
	"github.com/fiscotrack/cupom-backend/pkg/storage/model"
)

var log = logrus.StandardLogger()

type Config struct {
	OcrApiAddr         string
	OpenSearchAddr     string
	OpenSearchUsername string
	OpenSearchPassword string
	OpenSearchSkipTLS  bool
	LookupSkipTLS      bool
	Storage            model.Storer
}

// Importer stores incoming receipt photos and runs them through the
// extraction and indexing pipeline.
type Importer struct {
	idx     *indexer.Indexer
	storage model.Storer
}

func New(config Config) (*Importer, error) {
	var opts []indexer.Option
	if config.OpenSearchUsername != "" {
		opts = append(opts, indexer.WithOpenSearchUsername(config.OpenSearchUsername))
	}
	if config.OpenSearchPassword != "" {
		opts = append(opts, indexer.WithOpenSearchPassword(config.OpenSearchPassword))
	}
	if config.OpenSearchSkipTLS {
		opts = append(opts, indexer.WithOpenSearchSkipTLS())
	}
	if config.LookupSkipTLS {
		opts = append(opts, indexer.WithLookupSkipTLS())
	}
	idx, err := indexer.New(
		config.OpenSearchAddr, config.OcrApiAddr,
		opts...,
	)
	if err != nil {
		return nil, fmt.Errorf("unable to create indexer: %w", err)
	}

	imp := &Importer{idx: idx, storage: config.Storage}

	// Check that everything works:
	log.Debugf("Pinging services")
	if err := imp.Ping(); err != nil {
		return nil, fmt.Errorf("unable to ping services: %w", err)
	}
	return imp, err
}

// ImportAll drains an image source into a single upload batch: every
// photo is stored and indexed under the same upload id.
func (i *Importer) ImportAll(source ImageSource) error {
	imgChan := make(chan models.ReceiptImage)
	wg := sync.WaitGroup{}
	wg.Add(1)
	go i.processImages(imgChan, &wg)

	uploadId := uuid.NewString()
	seq := 0
	for source.Next() {
		seq++
		b, err := io.ReadAll(source.Current())
		if err != nil {
			return fmt.Errorf("unable to read image: %w", err)
		}
		imgChan <- models.ReceiptImage{
			Reader:     bytes.NewReader(b),
			UploadId:   uploadId,
			SequenceId: seq,
			UploadTime: time.Now(),
		}
	}
	close(imgChan)
	wg.Wait()
	return source.Err()
}

// ImportDir imports every image found in a directory.
func (i *Importer) ImportDir(dir string) error {
	source, err := NewDirSource(dir)
	if err != nil {
		return fmt.Errorf("unable to open directory: %w", err)
	}
	return i.ImportAll(source)
}

func (i *Importer) processImages(imgChan <-chan models.ReceiptImage, wg *sync.WaitGroup) {
	for img := range imgChan {
		wg.Add(1)
		go i.processImageInner(img, wg)
	}
	wg.Done()
}

func (i *Importer) processImageInner(img models.ReceiptImage, wg *sync.WaitGroup) {
	defer wg.Done()
	buffer := bytes.NewBuffer([]byte{})
	_, err := io.Copy(buffer, img.Reader)
	if err != nil {
		log.Errorf("unable to read image: %v", err)
		return
	}

	img.Reader = bytes.NewReader(buffer.Bytes())

	err = i.storage.Store(models.ReceiptImage{
		Reader:     bytes.NewReader(buffer.Bytes()),
		UploadId:   img.UploadId,
		SequenceId: img.SequenceId,
		UploadTime: img.UploadTime,
	})
	if err != nil {
		log.Errorf("unable to store image: %v", err)
		return
	}

	i.extractAndIndex(img)
}

func (i *Importer) extractAndIndex(img models.ReceiptImage) {
	log.Debugf("importing image %d of upload %q", img.SequenceId, img.UploadId)
	err := i.idx.Index(img)
	if err != nil {
		log.Errorf("unable to index: %v", err)
	}
}

// Ping makes sure the two APIs (OCR and OpenSearch) are reachable
func (i *Importer) Ping() error {
	log.Debugf("Pinging OpenSearch")
	res, err := i.idx.PingOpensearch()
	if err != nil {
		return fmt.Errorf("unable to ping OpenSearch: %v", err)
	}
	if res.IsError() {
		return fmt.Errorf("unable to ping OpenSearch: %v", res.Status())
	}

	// Ping OCR
	log.Debugf("Pinging OCR API")
	h, err := i.idx.PingOcrApi()
	if err != nil {
		return fmt.Errorf("unable to ping OCR API: %v", err)
	}
	if !h {
		return fmt.Errorf("OCR API is not healthy")
	}

	return nil
}
