package main

// This tool is used to re-run the extraction on the files in the B2
// bucket, either to apply new parsing rules or to retry the uploads
// that failed to be indexed the first time.

import (
	"github.com/alexflint/go-arg"
	"github.com/sirupsen/logrus"

	"github.com/fiscotrack/cupom-backend/pkg/cli"
	"github.com/fiscotrack/cupom-backend/pkg/indexer"
	"github.com/fiscotrack/cupom-backend/pkg/logutils"
	"github.com/fiscotrack/cupom-backend/pkg/storage/b2"
)

var args struct {
	UploadId string `arg:"positional,required"`

	B2Account          string `arg:"env:B2_ACCOUNT"`
	B2BucketName       string `arg:"env:B2_BUCKET_NAME"`
	B2Key              string `arg:"env:B2_KEY"`
	B2Passphrase       string `arg:"env:B2_PASSPHRASE"`
	LogLevel           string `arg:"--log-level,env:LOG_LEVEL" default:"info"`
	LookupSkipTLS      bool   `arg:"--lookup-skip-tls,env:LOOKUP_SKIP_TLS"`
	OcrApiAddr         string `arg:"--ocr-api-addr,required,env:OCR_API_ADDR"`
	OpenSearchAddr     string `arg:"--opensearch-addr,required,env:OPENSEARCH_ADDR"`
	OpenSearchPassword string `arg:"--opensearch-password,env:OPENSEARCH_PASSWORD"`
	OpenSearchSkipTLS  bool   `arg:"--opensearch-skip-tls,env:OPENSEARCH_SKIP_TLS"`
	OpenSearchUsername string `arg:"--opensearch-username,env:OPENSEARCH_USERNAME"`
}

var log = logrus.StandardLogger()

func main() {
	arg.MustParse(&args)
	if err := cli.FillKeychainValues(&args); err != nil {
		log.Fatalf("fill keychain values: %v", err)
	}
	logutils.SetLoggerLevel(args.LogLevel)
	b, err := b2.New(
		b2.Config{
			Account:    args.B2Account,
			Key:        args.B2Key,
			BucketName: args.B2BucketName,
			Passphrase: args.B2Passphrase,
		},
	)
	if err != nil {
		log.Fatalf("create b2 storage: %v", err)
	}

	var opts []indexer.Option
	if args.OpenSearchUsername != "" {
		opts = append(opts, indexer.WithOpenSearchUsername(args.OpenSearchUsername))
	}
	if args.OpenSearchPassword != "" {
		opts = append(opts, indexer.WithOpenSearchPassword(args.OpenSearchPassword))
	}
	if args.OpenSearchSkipTLS {
		opts = append(opts, indexer.WithOpenSearchSkipTLS())
	}
	if args.LookupSkipTLS {
		opts = append(opts, indexer.WithLookupSkipTLS())
	}
	idx, err := indexer.New(
		args.OpenSearchAddr,
		args.OcrApiAddr,
		opts...,
	)
	if err != nil {
		log.Fatalf("create indexer: %v", err)
	}
	defer idx.Close()

	uploadFiles, err := b.ListFiles(args.UploadId)
	if err != nil {
		log.Fatalf("list files: %v", err)
	}
	for _, f := range uploadFiles {
		log.Infof("Indexing %s", f.Id())
		img, err := b.Retrieve(f.UploadId, f.SequenceId)
		if err != nil {
			log.Errorf("retrieve file %s: %v", f.Id(), err)
			continue
		}
		err = idx.Index(*img)
		if err != nil {
			log.Errorf("index file %s: %v", f.Id(), err)
			continue
		}
	}
}
