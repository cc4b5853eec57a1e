package sefaz

import (
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"

	"github.com/fiscotrack/cupom-backend/pkg/models"
)

// Selectors used by the various state portals for the merchant block.
// Tried in order, first non-empty match wins.
var merchantSelectors = []string{
	"div.txtTopo",
	"div.emit",
	".txtTopo",
	"#u20",
	".NFCCabecalho_SubTitulo",
	`div[class*="emit"]`,
	`span[class*="razao"]`,
}

// Legal entity suffixes used to spot a company name in free text when
// no known selector matches.
var legalEntityTerms = []string{
	"LTDA", "EIRELI", "S/A", " ME", " EPP",
	"COMERCIO", "SUPERMERCADO", "MERCADO", "LOJA",
}

func extractMerchant(doc *goquery.Document, pageText string) string {
	for _, selector := range merchantSelectors {
		sel := doc.Find(selector).First()
		name := strings.TrimSpace(sel.Text())
		// The emit block contains the whole address, keep the first line
		if idx := strings.IndexAny(name, "\n\r"); idx > 0 {
			name = strings.TrimSpace(name[:idx])
		}
		if name != "" {
			return name
		}
	}

	for _, line := range strings.Split(pageText, "\n") {
		line = strings.TrimSpace(line)
		if len(line) < 5 || len(line) > 100 {
			continue
		}
		upper := strings.ToUpper(line)
		for _, term := range legalEntityTerms {
			if strings.Contains(upper, term) {
				return line
			}
		}
	}
	return ""
}

var taxIDRegexp = regexp.MustCompile(`\d{2}\.\d{3}\.\d{3}/\d{4}-\d{2}`)

func extractTaxID(pageText string) string {
	return taxIDRegexp.FindString(pageText)
}

var (
	issuedAtRegexp    = regexp.MustCompile(`(\d{2})/(\d{2})/(\d{4})[\sT]+(\d{2}):(\d{2})(?::(\d{2}))?`)
	issuedAtISORegexp = regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})[\sT]+(\d{2}):(\d{2})(?::(\d{2}))?`)
	dateOnlyRegexp    = regexp.MustCompile(`(\d{2})/(\d{2})/(\d{4})`)
)

func extractIssuedAt(pageText string) *time.Time {
	if m := issuedAtRegexp.FindStringSubmatch(pageText); m != nil {
		return buildTime(m[3], m[2], m[1], m[4], m[5], m[6])
	}
	if m := issuedAtISORegexp.FindStringSubmatch(pageText); m != nil {
		return buildTime(m[1], m[2], m[3], m[4], m[5], m[6])
	}
	if m := dateOnlyRegexp.FindStringSubmatch(pageText); m != nil {
		return buildTime(m[3], m[2], m[1], "00", "00", "")
	}
	return nil
}

func buildTime(year, month, day, hour, minute, second string) *time.Time {
	if second == "" {
		second = "00"
	}
	t, err := time.Parse("2006-01-02 15:04:05",
		year+"-"+month+"-"+day+" "+hour+":"+minute+":"+second)
	if err != nil {
		return nil
	}
	return &t
}

const amountPattern = `(\d{1,3}(?:\.\d{3})*,\d{2})`

var (
	// High-priority total labels, preferred over a bare "total" which
	// also appears in per-item subtotals.
	strongTotalRegexp = regexp.MustCompile(`(?i)(?:valor|total)\s*a\s*pagar\D{0,20}?` + amountPattern)
	notaTotalRegexp   = regexp.MustCompile(`(?i)total\s*da\s*nota\D{0,20}?` + amountPattern)
	anyTotalRegexp    = regexp.MustCompile(`(?i)\btotal[:\s]*r?\$?\s*` + amountPattern)

	productsAmountRegexp = regexp.MustCompile(`(?i)(?:valor\s*total\s*)?(?:dos\s*)?produtos\D{0,20}?` + amountPattern)
	amountPaidRegexp     = regexp.MustCompile(`(?i)valor\s*pago\D{0,20}?` + amountPattern)
	changeAmountRegexp   = regexp.MustCompile(`(?i)troco\D{0,20}?` + amountPattern)
)

// extractTotal prefers the strongest label and, within a label, the
// last occurrence on the page: the grand total sits below the item
// subtotals.
func extractTotal(pageText string) decimal.Decimal {
	for _, re := range []*regexp.Regexp{strongTotalRegexp, notaTotalRegexp, anyTotalRegexp} {
		matches := re.FindAllStringSubmatch(pageText, -1)
		if len(matches) > 0 {
			return parseBRL(matches[len(matches)-1][1])
		}
	}
	return decimal.Zero
}

func extractLabeledAmount(pageText string, re *regexp.Regexp) decimal.Decimal {
	matches := re.FindAllStringSubmatch(pageText, -1)
	if len(matches) == 0 {
		return decimal.Zero
	}
	return parseBRL(matches[len(matches)-1][1])
}

var paymentKeywords = []struct {
	keyword string
	method  string
}{
	{"cartão de crédito", "Cartão de Crédito"},
	{"cartao de credito", "Cartão de Crédito"},
	{"crédito", "Cartão de Crédito"},
	{"credito", "Cartão de Crédito"},
	{"cartão de débito", "Cartão de Débito"},
	{"cartao de debito", "Cartão de Débito"},
	{"débito", "Cartão de Débito"},
	{"debito", "Cartão de Débito"},
	{"pix", "PIX"},
	{"dinheiro", "Dinheiro"},
	{"vale", "Vale"},
}

// extractPaymentMethod picks the keyword that appears earliest on the
// page. A receipt may mention several methods, the first one listed
// is the one actually used.
func extractPaymentMethod(pageText string) string {
	lower := strings.ToLower(pageText)
	best := -1
	method := ""
	for _, pk := range paymentKeywords {
		idx := strings.Index(lower, pk.keyword)
		if idx < 0 {
			continue
		}
		if best < 0 || idx < best {
			best = idx
			method = pk.method
		}
	}
	return method
}

var (
	rowPriceRegexp = regexp.MustCompile(`(?:R\$\s*)?(\d{1,3}(?:\.\d{3})*,\d{2})`)
	quantityRegexp = regexp.MustCompile(`(?i)(?:Qtde?|Qtd)[.:\s]*([\d.,]+)`)
	unitQtyRegexp  = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(UN|KG|L|M|PCT|CX|PC)\b`)
	// Inline "qty x unit-price" fragment printed after the
	// description, e.g. "10 UN x 3,50".
	inlineQtyPriceRegexp = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(UN|KG|L|M|PCT|CX|PC)?\s*x\s*[\d.,]+.*$`)
	itemCodeRegexp = regexp.MustCompile(`\(C[oó]d[^)]*\)`)
)

// Rows containing any of these terms are summary or header rows, not
// purchased items.
var rowIgnoreTerms = []string{
	"TOTAL", "SUBTOTAL", "VALOR", "PAGAMENTO", "TROCO",
	"EMITENTE", "CNPJ", "I.E.", "A PAGAR", "TRIBUTOS",
	"DESCONTO", "FORMA", "QTDE", "DESCRIÇÃO",
}

func rowIsIgnorable(text string) bool {
	upper := strings.ToUpper(text)
	for _, term := range rowIgnoreTerms {
		if strings.Contains(upper, term) {
			return true
		}
	}
	return false
}

func extractItems(doc *goquery.Document, pageText string) []models.LineItem {
	items := itemsFromTables(doc)
	if len(items) > 0 {
		return items
	}
	return itemsFromLines(pageText)
}

func itemsFromTables(doc *goquery.Document) []models.LineItem {
	var items []models.LineItem
	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}

		var texts []string
		cells.Each(func(_ int, cell *goquery.Selection) {
			texts = append(texts, strings.TrimSpace(cell.Text()))
		})

		rowText := strings.Join(texts, " ")
		if rowIsIgnorable(rowText) {
			return
		}

		item := models.LineItem{}
		for _, text := range texts {
			if text == "" || rowPriceRegexp.MatchString(text) && !strings.ContainsAny(text, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ") {
				continue
			}
			desc := itemCodeRegexp.ReplaceAllString(text, "")
			desc = strings.TrimSpace(desc)
			if len(desc) > 3 {
				item.Description = desc
				break
			}
		}
		if item.Description == "" {
			return
		}

		// The price columns sit to the right, scan cells backwards so
		// the line total wins over the unit price.
		for i := len(texts) - 1; i >= 0; i-- {
			if m := rowPriceRegexp.FindStringSubmatch(texts[i]); m != nil {
				item.TotalPrice = parseBRL(m[1])
				break
			}
		}
		if item.TotalPrice.IsZero() {
			return
		}

		item.Quantity = decimal.New(1, 0)
		if m := quantityRegexp.FindStringSubmatch(rowText); m != nil {
			if q := parseBRL(m[1]); !q.IsZero() {
				item.Quantity = q
			}
		} else if m := unitQtyRegexp.FindStringSubmatch(rowText); m != nil {
			if q := parseBRL(m[1]); !q.IsZero() {
				item.Quantity = q
				item.Unit = strings.ToUpper(m[2])
			}
		}
		if !item.Quantity.IsZero() {
			item.UnitPrice = item.TotalPrice.DivRound(item.Quantity, 2)
		}

		items = append(items, item)
	})
	return items
}

var trailingAmountRegexp = regexp.MustCompile(`^(.*?)\s+(?:R\$\s*)?(\d{1,3}(?:\.\d{3})*,\d{2})\s*$`)

// itemsFromLines is the fallback for portals that render the item
// list without a table: any line ending in a money amount becomes an
// item candidate.
func itemsFromLines(pageText string) []models.LineItem {
	var items []models.LineItem
	for _, line := range strings.Split(pageText, "\n") {
		line = strings.TrimSpace(line)
		if len(line) < 8 || rowIsIgnorable(line) {
			continue
		}
		m := trailingAmountRegexp.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		desc := strings.TrimSpace(m[1])
		qty := decimal.New(1, 0)
		unit := ""
		if qm := inlineQtyPriceRegexp.FindStringSubmatch(desc); qm != nil {
			if q := parseBRL(qm[1]); !q.IsZero() {
				qty = q
				unit = strings.ToUpper(qm[2])
			}
			desc = inlineQtyPriceRegexp.ReplaceAllString(desc, "")
		} else if qm := unitQtyRegexp.FindStringSubmatch(desc); qm != nil {
			if q := parseBRL(qm[1]); !q.IsZero() {
				qty = q
				unit = strings.ToUpper(qm[2])
			}
			desc = unitQtyRegexp.ReplaceAllString(desc, "")
		}
		desc = strings.Join(strings.Fields(desc), " ")
		if len(desc) <= 3 {
			continue
		}
		total := parseBRL(m[2])
		if total.IsZero() {
			continue
		}
		items = append(items, models.LineItem{
			Description: desc,
			Quantity:    qty,
			Unit:        unit,
			UnitPrice:   total.DivRound(qty, 2),
			TotalPrice:  total,
		})
	}
	return items
}
