package indexer

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
	"github.com/sirupsen/logrus"

	"github.com/fiscotrack/cupom-backend/pkg/extractor"
	"github.com/fiscotrack/cupom-backend/pkg/models"
	"github.com/fiscotrack/cupom-backend/pkg/ocrclient"
	"github.com/fiscotrack/cupom-backend/pkg/ocrclient/caroundtripper"
	"github.com/fiscotrack/cupom-backend/pkg/sefaz"
)

// Indexer runs receipt photos through the extraction pipeline and
// stores the structured receipts in OpenSearch.
type Indexer struct {
	opensearchAddr               string
	opensearchUsername           string
	opensearchPassword           string
	opensearchInsecureSkipVerify bool
	receiptsIndex                string
	ocrApiAddr                   string
	ocrApiCaPath                 string
	lookupInsecureSkipVerify     bool

	opensearchClient *opensearch.Client
	ocrClient        *ocrclient.Client
	extractor        *extractor.Extractor

	initCalled bool
}

const DefaultReceiptsIndex = "receipts"

type Option func(*Indexer)

var log = logrus.StandardLogger().WithField("package", "indexer")

func New(opensearchAddr string, ocrApiAddr string, opts ...Option) (*Indexer, error) {
	idx := &Indexer{
		opensearchAddr: opensearchAddr,
		ocrApiAddr:     ocrApiAddr,
		receiptsIndex:  DefaultReceiptsIndex,
	}
	for _, opt := range opts {
		opt(idx)
	}
	if err := idx.init(); err != nil {
		return nil, err
	}
	return idx, nil
}

func (i *Indexer) PingOcrApi() (bool, error) {
	err := i.ensureOcrApiClient()
	if err != nil {
		return false, err
	}

	return i.ocrClient.Healthz()
}

func (i *Indexer) PingOpensearch() (*opensearchapi.Response, error) {
	err := i.ensureOpensearchClient()
	if err != nil {
		return nil, err
	}

	req := opensearchapi.PingRequest{}
	return req.Do(context.Background(), i.opensearchClient)
}

func (i *Indexer) ensureOpensearchClient() error {
	if i.opensearchClient != nil {
		return nil
	}

	var err error
	i.opensearchClient, err = opensearch.NewClient(opensearch.Config{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: i.opensearchInsecureSkipVerify},
		},
		Addresses: []string{i.opensearchAddr},
		Username:  i.opensearchUsername,
		Password:  i.opensearchPassword,
	})
	return err
}

func (i *Indexer) ensureOcrApiClient() error {
	if i.ocrClient != nil {
		return nil
	}

	var err error
	i.ocrClient, err = ocrclient.New(i.ocrApiAddr)
	if err != nil {
		return err
	}

	if i.ocrApiCaPath != "" {
		caRoundTripper, err := caroundtripper.New(i.ocrApiCaPath)
		if err != nil {
			return err
		}
		i.ocrClient.SetHttpTransport(caRoundTripper)
	}
	return nil
}

func (i *Indexer) ensureExtractor() error {
	if i.extractor != nil {
		return nil
	}
	if err := i.ensureOcrApiClient(); err != nil {
		return err
	}
	var opts []sefaz.Option
	if i.lookupInsecureSkipVerify {
		opts = append(opts, sefaz.WithInsecureSkipVerify())
	}
	i.extractor = extractor.New(i.ocrClient, opts...)
	return nil
}

func (i *Indexer) init() error {
	err := i.ensureOcrApiClient()
	if err != nil {
		return fmt.Errorf("ocr client: %w", err)
	}
	err = i.ensureOpensearchClient()
	if err != nil {
		return fmt.Errorf("opensearchClient: %w", err)
	}

	err = i.ensureExtractor()
	if err != nil {
		return fmt.Errorf("extractor: %w", err)
	}

	// Create OpenSearch index
	err = i.createOpensearchIndex()
	if err != nil {
		return fmt.Errorf("unable to create opensearch index: %v", err)
	}

	// Check if API ping works
	h, err := i.ocrClient.Healthz()
	if err != nil {
		return fmt.Errorf("unable to ping OCR API: %v", err)
	}

	if !h {
		return fmt.Errorf("OCR API is not healthy")
	}

	i.initCalled = true
	return nil
}

func (i *Indexer) ensureInitCalled() error {
	if !i.initCalled {
		return fmt.Errorf("init wasn't called")
	}
	return nil
}

func (i *Indexer) Index(img models.ReceiptImage) error {
	log.Debugf("indexing %s", img.Id())
	err := i.ensureInitCalled()
	if err != nil {
		return err
	}

	imgBytes, err := io.ReadAll(img.Reader)
	if err != nil {
		return fmt.Errorf("unable to read image: %v", err)
	}

	log.Debugf("extracting receipt from %s", img.Id())
	receipt := i.extractor.ProcessImage(imgBytes)
	receipt.UploadId = img.UploadId
	receipt.SequenceId = img.SequenceId
	receipt.IndexedAt = time.Now()
	if !receipt.Succeeded {
		log.Warnf("%s: extraction incomplete: %s", img.Id(), receipt.ErrorMessage)
	}

	jsonBuffer := bytes.NewBuffer(nil)
	enc := json.NewEncoder(jsonBuffer)
	err = enc.Encode(receipt)
	if err != nil {
		return fmt.Errorf("unable to encode JSON: %v", err)
	}

	req := opensearchapi.IndexRequest{
		Index:      i.receiptsIndex,
		DocumentID: img.Id(),
		Body:       jsonBuffer,
		OpType:     "index",
	}
	res, err := req.Do(context.Background(), i.opensearchClient)
	if err != nil {
		return err
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		errorMessage := decodeError(res.Body)
		return fmt.Errorf("opensearch returned an invalid status %s: %s", res.Status(), errorMessage)
	}
	log.Debugf("indexed %s", img.Id())
	return nil
}

func decodeError(body io.ReadCloser) string {
	var errorMessage struct {
		Error string `json:"error"`
	}
	dec := json.NewDecoder(body)
	dec.Decode(&errorMessage)
	return errorMessage.Error
}

func (i *Indexer) createOpensearchIndex() error {
	req := opensearchapi.IndicesCreateRequest{Index: i.receiptsIndex}
	res, err := req.Do(context.Background(), i.opensearchClient)
	if err != nil {
		return err
	}
	if res.StatusCode == http.StatusBadRequest {
		// Index already exists
		return nil
	}
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", res.Status())
	}

	return nil
}

func (i *Indexer) Close() {
	if i.extractor != nil {
		i.extractor.Close()
	}
}
