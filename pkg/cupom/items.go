package cupom

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fiscotrack/cupom-backend/pkg/models"
)

var (
	itemCodeRegexp        = regexp.MustCompile(`^(\d{13})(?:\s+(.+))?$`)
	anotherCodeRegexp     = regexp.MustCompile(`^\d{10,14}`)
	itemValueRegexp       = regexp.MustCompile(`(\d+)\s*[,. ]\s*(\d{2})`)
	numericFragmentRegexp = regexp.MustCompile(`^[\dOo]{1,3}[^\w]*$`)
	digitRunRegexp        = regexp.MustCompile(`\d+`)
	descriptionRegexp     = regexp.MustCompile(`^[A-Z][A-Za-z\s/.-]{3,}`)
	descriptionCleanRe    = regexp.MustCompile(`[^a-zA-Z0-9\s/.-]`)
)

// Lines carrying these words are never items; in the look-ahead they
// mark the end of the item section.
var itemSkipWords = []string{"cnpj", "cpf:", "chave", "danfe", "consulte", "obrigado", "qtd", "total"}
var sectionWords = []string{"qtd", "total", "forma", "pagamento"}

var (
	minFragmentPrice = decimal.New(1, 0)
	maxFragmentPrice = decimal.New(999999, -2) // 9999.99
)

// ExtractItems finds purchased products in OCR text. OCR commonly
// splits a product's EAN-13 code, description and price onto separate,
// unpredictably ordered lines, so each code line opens a look-ahead of
// up to 12 lines collecting description fragments and a price. An item
// is only emitted when both a non-trivial description and a positive
// price were resolved; partial items are dropped.
func ExtractItems(text string) []models.LineItem {
	var items []models.LineItem
	lines := strings.Split(text, "\n")

	for i, line := range lines {
		line = strings.TrimSpace(line)

		if len(line) < 10 {
			continue
		}
		if containsAny(strings.ToLower(line), itemSkipWords) {
			continue
		}

		match := itemCodeRegexp.FindStringSubmatch(line)
		if match == nil {
			continue
		}

		code := match[1]
		var descriptionParts []string
		if desc := strings.TrimSpace(match[2]); desc != "" {
			descriptionParts = append(descriptionParts, desc)
		}

		total := decimal.Zero
		var fragments []string

		for j := i + 1; j < len(lines) && j < i+13; j++ {
			next := strings.TrimSpace(lines[j])
			if next == "" {
				continue
			}

			// Another code or a section boundary ends this item
			if anotherCodeRegexp.MatchString(next) {
				break
			}
			if containsAny(strings.ToLower(next), sectionWords) {
				break
			}

			// Directly formatted value: "35,00", "JUN 35,00", "35 ,00"
			if valueMatch := itemValueRegexp.FindStringSubmatchIndex(next); valueMatch != nil {
				before := strings.TrimSpace(next[:valueMatch[0]])
				if len(before) > 2 && isAlpha(before[0]) {
					descriptionParts = append(descriptionParts, before)
				}
				total = makeAmount(next[valueMatch[2]:valueMatch[3]], next[valueMatch[4]:valueMatch[5]])
				break
			}

			// Short numeric fragments, possibly with the letter O
			// recognized in place of the digit 0
			if numericFragmentRegexp.MatchString(next) {
				normalized := strings.NewReplacer("O", "0", "o", "0").Replace(next)
				fragments = append(fragments, digitRunRegexp.FindAllString(normalized, -1)...)
				continue
			}

			if descriptionRegexp.MatchString(next) {
				descriptionParts = append(descriptionParts, next)
			}
		}

		if total.IsZero() && len(fragments) >= 2 {
			total = priceFromFragments(fragments)
		}

		if len(descriptionParts) == 0 || !total.IsPositive() {
			continue
		}

		description := strings.Join(descriptionParts, " ")
		description = descriptionCleanRe.ReplaceAllString(description, "")
		description = strings.TrimSpace(spacesRegexp.ReplaceAllString(description, " "))
		if len(description) <= 3 {
			continue
		}

		items = append(items, models.LineItem{
			Code:        code,
			Description: description,
			Quantity:    decimal.New(1, 0),
			UnitPrice:   total,
			TotalPrice:  total,
		})
	}

	return items
}

// priceFromFragments reassembles a decimal price from short numeric
// fragments by pairing adjacent ones. A pair whose second fragment has
// exactly two digits (the decimal part) is preferred; among those, a
// two-digit first fragment is taken immediately, otherwise the first
// plausible candidate is kept as fallback.
func priceFromFragments(fragments []string) decimal.Decimal {
	fallback := decimal.Zero
	for idx := 0; idx < len(fragments)-1; idx++ {
		first := fragments[idx]
		second := fragments[idx+1]
		if len(second) != 2 {
			continue
		}
		candidate := makeAmount(first, second)
		if candidate.LessThan(minFragmentPrice) || candidate.GreaterThan(maxFragmentPrice) {
			continue
		}
		if len(first) == 2 {
			return candidate
		}
		if fallback.IsZero() {
			fallback = candidate
		}
	}
	return fallback
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func isAlpha(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
