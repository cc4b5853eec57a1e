package sefaz

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/fiscotrack/cupom-backend/pkg/categories"
	"github.com/fiscotrack/cupom-backend/pkg/models"
	"github.com/fiscotrack/cupom-backend/pkg/qrlookup"
)

var log = logrus.StandardLogger().WithField("package", "sefaz")

const defaultTimeout = 15 * time.Second

// Client fetches a fiscal document from a state tax-authority lookup
// portal and scrapes the receipt fields out of the HTML page.
type Client struct {
	http *http.Client
}

type Option func(c *Client)

// WithTimeout overrides the request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// WithInsecureSkipVerify disables TLS certificate verification. Some
// state portals serve expired or self-signed certificates.
func WithInsecureSkipVerify() Option {
	return func(c *Client) {
		c.http.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}
}

func New(opts ...Option) *Client {
	c := &Client{
		http: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// The portals reject requests without browser-looking headers.
var requestHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
	"Accept-Language": "pt-BR,pt;q=0.9,en;q=0.8",
}

// Fetch downloads the lookup page for a resolved QR payload and
// scrapes it into a receipt. It never returns an error: a transport
// or parse failure yields a receipt with Succeeded set to false so
// the caller can fall back to OCR.
func (c *Client) Fetch(payload *qrlookup.Payload) *models.Receipt {
	receipt := &models.Receipt{
		SourceKind: models.SourceQRAuthority,
		LookupURL:  payload.URL,
		Region:     payload.Region,
		AccessKey:  payload.AccessKey,
	}

	req, err := http.NewRequest(http.MethodGet, payload.URL, nil)
	if err != nil {
		receipt.ErrorMessage = fmt.Sprintf("invalid lookup url: %s", err)
		return receipt
	}
	for k, v := range requestHeaders {
		req.Header.Set(k, v)
	}

	res, err := c.http.Do(req)
	if err != nil {
		log.Warnf("lookup request failed: %s", err)
		receipt.ErrorMessage = fmt.Sprintf("lookup request failed: %s", err)
		return receipt
	}
	defer func() {
		_ = res.Body.Close()
	}()

	if res.StatusCode != http.StatusOK {
		receipt.ErrorMessage = fmt.Sprintf("unexpected status code: %d", res.StatusCode)
		return receipt
	}

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		receipt.ErrorMessage = fmt.Sprintf("unable to parse page: %s", err)
		return receipt
	}

	c.scrape(doc, receipt)
	receipt.Succeeded = receipt.MerchantName != "" || !receipt.TotalAmount.IsZero() || len(receipt.Items) > 0
	if !receipt.Succeeded && receipt.ErrorMessage == "" {
		receipt.ErrorMessage = "no receipt fields found on lookup page"
	}
	return receipt
}

func (c *Client) scrape(doc *goquery.Document, receipt *models.Receipt) {
	pageText := doc.Text()

	receipt.MerchantName = extractMerchant(doc, pageText)
	receipt.TaxID = extractTaxID(pageText)
	receipt.IssuedAt = extractIssuedAt(pageText)
	receipt.TotalAmount = extractTotal(pageText)
	receipt.ProductsAmount = extractLabeledAmount(pageText, productsAmountRegexp)
	receipt.AmountPaid = extractLabeledAmount(pageText, amountPaidRegexp)
	receipt.ChangeAmount = extractLabeledAmount(pageText, changeAmountRegexp)
	receipt.PaymentMethod = extractPaymentMethod(pageText)

	receipt.Items = extractItems(doc, pageText)
	for i := range receipt.Items {
		if category, ok := categories.Suggest(receipt.Items[i].Description); ok {
			receipt.Items[i].SuggestedCategory = category
		}
	}

	log.Debugf("scraped receipt: merchant=%q items=%d total=%s",
		receipt.MerchantName, len(receipt.Items), receipt.TotalAmount)
}

// parseBRL converts a Brazilian-formatted amount (1.234,56) into a
// decimal, returning zero when the string does not parse.
func parseBRL(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
