package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/alexflint/go-arg"
	"github.com/sirupsen/logrus"

	"github.com/fiscotrack/cupom-backend/pkg/extractor"
	"github.com/fiscotrack/cupom-backend/pkg/models"
	"github.com/fiscotrack/cupom-backend/pkg/ocrclient"
	"github.com/fiscotrack/cupom-backend/pkg/ocrclient/caroundtripper"
	"github.com/fiscotrack/cupom-backend/pkg/sefaz"
)

var args struct {
	InputPath string `arg:"positional,required"`

	Debug         *bool  `arg:"-D,--debug"`
	LookupSkipTLS bool   `arg:"--lookup-skip-tls,env:LOOKUP_SKIP_TLS"`
	OcrApi        string `arg:"-a,--ocr-api,env:OCR_API_ADDR,required" help:"Address of the OCR API"`
	OcrApiCaPath  string `arg:"-c,--ocr-api-ca-path,env:OCR_API_CA_PATH"`
	OutputMode    string `arg:"-o,--output-mode" default:"text"`
}

var log = logrus.New()

func main() {
	arg.MustParse(&args)
	if args.Debug != nil && *args.Debug {
		logrus.StandardLogger().SetLevel(logrus.DebugLevel)
		log.SetLevel(logrus.DebugLevel)
	}

	c, err := ocrclient.New(args.OcrApi)
	if err != nil {
		log.Fatalf("unable to create client: %v", err)
	}

	if args.OcrApiCaPath != "" {
		rt, err := caroundtripper.New(args.OcrApiCaPath)
		if err != nil {
			log.Fatalf("unable to create CA Roundtripper: %v", err)
		}
		c.SetHttpTransport(rt)
	}

	var opts []sefaz.Option
	if args.LookupSkipTLS {
		opts = append(opts, sefaz.WithInsecureSkipVerify())
	}
	e := extractor.New(c, opts...)
	defer e.Close()

	imgBytes, err := os.ReadFile(args.InputPath)
	if err != nil {
		log.Fatalf("unable to read file: %v", err)
	}

	receipt := e.ProcessImage(imgBytes)

	switch args.OutputMode {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		err = enc.Encode(receipt)
		if err != nil {
			log.Fatalf("unable to encode JSON: %v", err)
		}
	default:
		printReceipt(receipt)
	}
}

func printReceipt(r *models.Receipt) {
	fmt.Printf("Merchant:  %s\n", r.MerchantName)
	fmt.Printf("CNPJ:      %s\n", r.TaxID)
	if r.IssuedAt != nil {
		fmt.Printf("Issued at: %s\n", r.IssuedAt.Format("2006-01-02 15:04"))
	}
	fmt.Printf("Total:     %s\n", r.TotalAmount)
	if r.PaymentMethod != "" {
		fmt.Printf("Paid with: %s\n", r.PaymentMethod)
	}
	fmt.Printf("Source:    %s\n", r.SourceKind)
	for _, item := range r.Items {
		fmt.Printf("  %-40s %10s", item.Description, item.TotalPrice)
		if item.SuggestedCategory != "" {
			fmt.Printf("  [%s]", item.SuggestedCategory)
		}
		fmt.Println()
	}
	if !r.Succeeded {
		fmt.Printf("Extraction incomplete: %s\n", r.ErrorMessage)
	}
}
