package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SourceKind tells which extraction path produced a Receipt.
type SourceKind string

const (
	SourceOCR         SourceKind = "ocr"
	SourceQRAuthority SourceKind = "qr_authority"
)

// Receipt is one extracted fiscal document (NFC-e / SAT cupom),
// produced either by OCR over a photographed receipt or by scraping
// the issuing tax authority page resolved from the receipt's QR code.
type Receipt struct {
	MerchantName  string     `json:"merchantName,omitempty"`
	TaxID         string     `json:"taxId,omitempty"`
	IssuedAt      *time.Time `json:"issuedAt,omitempty"`
	PaymentMethod string     `json:"paymentMethod,omitempty"`

	TotalAmount    decimal.Decimal `json:"totalAmount"`
	ProductsAmount decimal.Decimal `json:"productsAmount"`
	AmountPaid     decimal.Decimal `json:"amountPaid"`
	ChangeAmount   decimal.Decimal `json:"changeAmount"`

	Items []LineItem `json:"items,omitempty"`

	SourceKind SourceKind `json:"sourceKind"`

	// QR path only
	AccessKey string `json:"accessKey,omitempty"`
	Region    string `json:"region,omitempty"`
	LookupURL string `json:"lookupUrl,omitempty"`

	// OCR path only. Confidence is the mean per-fragment recognition
	// confidence and is not comparable across source kinds.
	RawText    string  `json:"rawText,omitempty"`
	Confidence float64 `json:"confidence"`

	Succeeded    bool   `json:"succeeded"`
	ErrorMessage string `json:"errorMessage,omitempty"`

	IndexedAt time.Time `json:"indexedAt,omitempty"`

	// Upload specific fields
	UploadId   string `json:"uploadId,omitempty"`
	SequenceId int    `json:"sequenceId,omitempty"`
}

// LineItem is one purchased product or service within a receipt.
type LineItem struct {
	Code              string          `json:"code,omitempty"`
	Description       string          `json:"description"`
	Quantity          decimal.Decimal `json:"quantity"`
	Unit              string          `json:"unit,omitempty"`
	UnitPrice         decimal.Decimal `json:"unitPrice"`
	TotalPrice        decimal.Decimal `json:"totalPrice"`
	SuggestedCategory string          `json:"suggestedCategory,omitempty"`
}
