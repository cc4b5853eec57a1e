// Package cupom turns raw OCR text recovered from a photographed
// fiscal receipt into a structured record. Every field extraction is
// best-effort and total: when a heuristic cannot resolve a field it
// leaves the zero value, it never fails the whole parse.
package cupom

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	datesfinder "github.com/denysvitali/go-datesfinder"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/fiscotrack/cupom-backend/pkg/models"
)

var log = logrus.StandardLogger().WithField("package", "cupom")

// ParseText extracts all receipt fields from OCR text. The caller is
// responsible for RawText/Confidence/Succeeded bookkeeping since only
// it knows whether any text was recognized at all.
func ParseText(text string) *models.Receipt {
	r := &models.Receipt{
		SourceKind:  models.SourceOCR,
		TotalAmount: decimal.Zero,
	}
	r.MerchantName = ExtractMerchant(text)
	r.TaxID = ExtractTaxID(text)
	r.IssuedAt = ExtractIssueDate(text)
	r.TotalAmount = ExtractTotal(text)
	r.Items = ExtractItems(text)
	r.PaymentMethod = ExtractPaymentMethod(text)
	log.Debugf("parsed receipt: merchant=%q items=%d total=%s", r.MerchantName, len(r.Items), r.TotalAmount)
	return r
}

var (
	// "LF, 2" style short code that OCR splits off the store header
	shortCodeRegexp    = regexp.MustCompile(`^[A-Z]{1,3}[\s,]+\d{1,2}$`)
	shortCodeAnyRegexp = regexp.MustCompile(`^[A-Z]{1,3}[\s,]+\d+$`)
	taxIDLikeRegexp    = regexp.MustCompile(`\d{2}[./-]\d{3}[./-]\d{3}`)
	dateLikeRegexp     = regexp.MustCompile(`\d{2}[/.-]\d{2}[/.-]\d{4}`)
	digitsOnlyRegexp   = regexp.MustCompile(`^[\d\s.,:-]+$`)
	nonAlnumRegexp     = regexp.MustCompile(`[^a-zA-Z0-9\s]`)
	spacesRegexp       = regexp.MustCompile(`\s+`)
)

type merchantStrategy func(lines []string) string

// Ordered: the split-code special case first, then the generic first
// significant line scan. First non-empty result wins.
var merchantStrategies = []merchantStrategy{
	merchantFromSplitCode,
	merchantFromFirstLines,
}

// ExtractMerchant returns the store name from the top of the receipt,
// or "" when no line qualifies.
func ExtractMerchant(text string) string {
	lines := strings.Split(text, "\n")
	for _, strategy := range merchantStrategies {
		if name := strategy(lines); name != "" {
			return name
		}
	}
	return ""
}

// merchantFromSplitCode handles the common OCR artifact where the
// store header is recognized as a short alphabetic code plus number
// ("LF, 2") on its own line, with the real name on the next line.
func merchantFromSplitCode(lines []string) string {
	var first, second string
	if len(lines) > 0 {
		first = strings.TrimSpace(lines[0])
	}
	if len(lines) > 1 {
		second = strings.TrimSpace(lines[1])
	}

	if first == "" || !shortCodeRegexp.MatchString(first) {
		return ""
	}

	name := first + " " + second
	name = strings.ReplaceAll(name, ", ", " ")
	name = applyMerchantCorrections(name)
	name = nonAlnumRegexp.ReplaceAllString(name, " ")
	name = strings.TrimSpace(spacesRegexp.ReplaceAllString(name, " "))
	if len(name) > 8 {
		return name
	}
	return ""
}

func merchantFromFirstLines(lines []string) string {
	limit := len(lines)
	if limit > 8 {
		limit = 8
	}
	for _, line := range lines[:limit] {
		line = strings.TrimSpace(line)
		if len(line) < 8 {
			continue
		}
		// Tax IDs, dates, bare numbers and split codes are never the
		// store name
		if taxIDLikeRegexp.MatchString(line) {
			continue
		}
		if dateLikeRegexp.MatchString(line) {
			continue
		}
		if digitsOnlyRegexp.MatchString(line) {
			continue
		}
		if shortCodeAnyRegexp.MatchString(line) {
			continue
		}
		if countAlpha(line) <= 5 {
			continue
		}

		line = applyMerchantCorrections(line)
		line = nonAlnumRegexp.ReplaceAllString(line, " ")
		line = strings.TrimSpace(spacesRegexp.ReplaceAllString(line, " "))
		if len(line) > 8 {
			return line
		}
	}
	return ""
}

func countAlpha(s string) int {
	n := 0
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			n++
		}
	}
	return n
}

var cnpjPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)CNPJ\s*:\s*(\d{2}[.\s]\d{3}[.\s]\d{3}\s*[/\s]\s*\d{4}[-\s]\d{2})`),
	regexp.MustCompile(`(\d{2}[.]\d{3}[.]\d{3}\s*[/]\s*\d{4}[-]\d{2})`),
}

var nonDigitRegexp = regexp.MustCompile(`[^\d]`)

// ExtractTaxID finds the merchant's CNPJ. The grouped digits can be
// OCR-split across lines, so newlines are collapsed before matching.
// The canonical XX.XXX.XXX/XXXX-XX layout is only produced when
// exactly 14 digits are recovered; anything else yields "".
func ExtractTaxID(text string) string {
	singleLine := strings.ReplaceAll(text, "\n", " ")

	for _, pattern := range cnpjPatterns {
		match := pattern.FindStringSubmatch(singleLine)
		if match == nil {
			continue
		}
		digits := nonDigitRegexp.ReplaceAllString(match[1], "")
		if len(digits) == 14 {
			return digits[:2] + "." + digits[2:5] + "." + digits[5:8] + "/" + digits[8:12] + "-" + digits[12:]
		}
	}
	return ""
}

var issueDatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d{2})[/.-](\d{2})[/.-](\d{4})`), // DD/MM/YYYY
	regexp.MustCompile(`(\d{2})[/.-](\d{2})[/.-](\d{2})`), // DD/MM/YY
}

// ExtractIssueDate finds the emission date, trying DD/MM/YYYY before
// DD/MM/YY (two-digit years are promoted to 20YY). First match wins.
func ExtractIssueDate(text string) *time.Time {
	for _, pattern := range issueDatePatterns {
		match := pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		day, _ := strconv.Atoi(match[1])
		month, _ := strconv.Atoi(match[2])
		year, _ := strconv.Atoi(match[3])
		if len(match[3]) == 2 {
			year += 2000
		}
		// time.Date silently normalizes out-of-range components, so
		// the ranges are checked up front
		if month < 1 || month > 12 || day < 1 || day > 31 {
			continue
		}
		t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		if t.Day() != day || int(t.Month()) != month {
			continue
		}
		return &t
	}

	// Last resort: let the generic dates finder have a go at the text
	dates, _ := datesfinder.FindDates(text)
	if len(dates) > 0 {
		return &dates[0]
	}
	return nil
}

// The currency marker is optional: faded prints often lose the "R$".
var labeledTotalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`valor\s+total\s*[:\s.]?\s*(?:r\$?\s*)?(\d+)\s*[,.]\s*(\d{2})`),
	regexp.MustCompile(`total\s*[:\s.]?\s*(?:r\$?\s*)?(\d+)\s*[,.]\s*(\d{2})`),
	regexp.MustCompile(`total\s+a\s+pagar\s*[:\s.]?\s*(?:r\$?\s*)?(\d+)\s*[,.]\s*(\d{2})`),
	regexp.MustCompile(`valor\s+pago[\s_]*(?:r\$?\s*)?(\d+)\s*[,.]\s*(\d{2})`),
}

var isolatedValueRegexp = regexp.MustCompile(`^\s*(\d+)\s*[,.]\s*(\d{2})\s*$`)

var minPlausibleTotal = decimal.New(5, 0)

// ExtractTotal finds the amount paid. Totals are printed near the end
// of a receipt, so only the last 50 lines are considered. Labeled
// amounts win; failing that, a line containing "total" is followed by
// up to 3 lines looking for an isolated value above a small threshold
// that rejects stray numbers.
func ExtractTotal(text string) decimal.Decimal {
	lower := strings.ToLower(text)
	lines := strings.Split(lower, "\n")

	start := 0
	if len(lines) > 50 {
		start = len(lines) - 50
	}
	tail := strings.Join(lines[start:], "\n")

	for _, pattern := range labeledTotalPatterns {
		for _, match := range pattern.FindAllStringSubmatch(tail, -1) {
			value := makeAmount(match[1], match[2])
			if value.IsPositive() {
				return value
			}
		}
	}

	for i, line := range lines {
		if !strings.Contains(line, "total") || i < start {
			continue
		}
		for j := i + 1; j < len(lines) && j < i+4; j++ {
			match := isolatedValueRegexp.FindStringSubmatch(lines[j])
			if match == nil {
				continue
			}
			value := makeAmount(match[1], match[2])
			if value.GreaterThan(minPlausibleTotal) {
				return value
			}
		}
	}

	return decimal.Zero
}

type paymentMethod struct {
	name     string
	keywords []string
}

var paymentMethods = []paymentMethod{
	{"Cartão de Crédito", []string{"credito", "crédito", "credit"}},
	{"Cartão de Débito", []string{"debito", "débito", "debit"}},
	{"PIX", []string{"pix"}},
	{"Dinheiro", []string{"dinheiro", "especie", "espécie", "cash"}},
	{"Vale", []string{"vale", "voucher", "alimentação", "refeição"}},
}

// ExtractPaymentMethod matches a fixed keyword table; the keyword
// appearing earliest in the text wins.
func ExtractPaymentMethod(text string) string {
	lower := strings.ToLower(text)

	best := ""
	bestIdx := -1
	for _, method := range paymentMethods {
		for _, keyword := range method.keywords {
			idx := strings.Index(lower, keyword)
			if idx < 0 {
				continue
			}
			if bestIdx < 0 || idx < bestIdx {
				best = method.name
				bestIdx = idx
			}
		}
	}
	return best
}

func makeAmount(intPart, decPart string) decimal.Decimal {
	value, err := decimal.NewFromString(intPart + "." + decPart)
	if err != nil {
		return decimal.Zero
	}
	return value
}
