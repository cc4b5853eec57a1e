package importer_test

import (
	"bytes"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/h2non/gock"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/fiscotrack/cupom-backend/pkg/importer"
	"github.com/fiscotrack/cupom-backend/pkg/ocrclient"
	"github.com/fiscotrack/cupom-backend/pkg/storage/fs"
)

func TestMain(m *testing.M) {
	logrus.StandardLogger().SetLevel(logrus.DebugLevel)
	m.Run()
}

type testSource struct {
	files []io.Reader
	idx   int
}

func (t *testSource) Next() bool {
	if t.idx+1 <= len(t.files) {
		t.idx++
		return true
	}
	return false
}

func (t *testSource) Current() io.Reader {
	if t.idx == 0 {
		return bytes.NewBuffer(nil)
	}
	return t.files[t.idx-1]
}

func (t *testSource) Err() error {
	return nil
}

var _ importer.ImageSource = (*testSource)(nil)

func TestDirSource(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"2.jpg", "1.jpg", "notes.txt", "3.png"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(name), 0644); err != nil {
			t.Fatal(err)
		}
	}

	source, err := importer.NewDirSource(dir)
	if err != nil {
		t.Fatal(err)
	}

	var contents []string
	for source.Next() {
		b, err := io.ReadAll(source.Current())
		if err != nil {
			t.Fatal(err)
		}
		contents = append(contents, string(b))
	}
	assert.Nil(t, source.Err())
	assert.Equal(t, []string{"1.jpg", "2.jpg", "3.png"}, contents)
}

func getImporter(t *testing.T) *importer.Importer {
	opensearchAddr := os.Getenv("OPENSEARCH_ADDR")
	if opensearchAddr == "" {
		t.Skip("OPENSEARCH_ADDR not set, skipping test")
	}
	s, err := fs.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	i, err := importer.New(importer.Config{
		OcrApiAddr:         "https://ocr-api.lan:8443",
		OpenSearchAddr:     opensearchAddr,
		OpenSearchUsername: os.Getenv("OPENSEARCH_USERNAME"),
		OpenSearchPassword: os.Getenv("OPENSEARCH_PASSWORD"),
		OpenSearchSkipTLS:  os.Getenv("OPENSEARCH_SKIP_TLS") == "true",
		Storage:            s,
	})
	if err != nil {
		t.Fatal(err)
	}
	return i
}

func TestImportAll(t *testing.T) {
	s := testSource{
		files: []io.Reader{
			bytes.NewReader([]byte("fake image one")),
			bytes.NewReader([]byte("fake image two")),
		},
	}

	ocrApi := gock.New("https://ocr-api.lan:8443")
	ocrApi.
		Persist().
		Get("/healthz").
		Reply(200).
		BodyString(`{}`)

	gock.New("https://ocr-api.lan:8443").
		Persist().
		Post("/api/v1/ocr").
		Reply(http.StatusOK).
		JSON(
			ocrclient.Result{
				Fragments: []ocrclient.Fragment{
					{
						Text:       "TOTAL 45,90",
						Confidence: 0.95,
						BoundingBox: ocrclient.BoundingBox{
							Top:    0,
							Bottom: 100,
							Left:   0,
							Right:  20,
						},
					},
				},
			},
		)
	defer gock.Off()

	i := getImporter(t)
	err := i.Ping()
	if err != nil {
		t.Fatal(err)
	}

	err = i.ImportAll(&s)
	if err != nil {
		t.Fatal(err)
	}
}
