package cupom_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fiscotrack/cupom-backend/pkg/cupom"
)

func TestExtractItems(t *testing.T) {
	text := `7891234567895 ARROZ BRANCO 5KG
22,90
7899876543210
REFRIGERANTE COLA 2L
9,75`

	items := cupom.ExtractItems(text)
	if assert.Len(t, items, 2) {
		assert.Equal(t, "7891234567895", items[0].Code)
		assert.Equal(t, "ARROZ BRANCO 5KG", items[0].Description)
		assert.Equal(t, "22.9", items[0].TotalPrice.String())
		assert.Equal(t, "1", items[0].Quantity.String())

		assert.Equal(t, "REFRIGERANTE COLA 2L", items[1].Description)
		assert.Equal(t, "9.75", items[1].TotalPrice.String())
	}
}

func TestExtractItemsFragmentedPrice(t *testing.T) {
	// OCR splits the price into short numeric fragments, sometimes
	// reading the digit 0 as the letter O
	text := `7891234567895 SABONETE GLICERINA
12
9O`

	items := cupom.ExtractItems(text)
	if assert.Len(t, items, 1) {
		assert.Equal(t, "12.9", items[0].TotalPrice.String())
	}
}

func TestExtractItemsDropsIncomplete(t *testing.T) {
	// A code with no price, and a price with no description: neither
	// is an item
	text := `7891234567895 BISCOITO RECHEADO
sem valor aqui
7899876543210
9,75`

	items := cupom.ExtractItems(text)
	assert.Empty(t, items)
}

func TestExtractItemsStopsAtTotalsSection(t *testing.T) {
	text := `7891234567895 ARROZ BRANCO 5KG
TOTAL 45,90`

	items := cupom.ExtractItems(text)
	assert.Empty(t, items)
}

func TestExtractItemsSkipsAccessKey(t *testing.T) {
	// The 44-digit access key is printed in groups that must not be
	// mistaken for item codes
	text := `chave de acesso
3524 0805 8473 9400 0109 6500 1000 0123 4510 0012 3456`

	items := cupom.ExtractItems(text)
	assert.Empty(t, items)
}
