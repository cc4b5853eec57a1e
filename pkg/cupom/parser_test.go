package cupom_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fiscotrack/cupom-backend/pkg/cupom"
)

const sampleReceipt = `SUPERMERCADO BOM PRECO LTDA
CNPJ: 12.345.678/0001-95
Rua das Flores 123 - Centro
03/05/2024 18:32:10
CUPOM FISCAL ELETRONICO - SAT
7891234567895 ARROZ BRANCO 5KG
22,90
7899876543210 REFRIGERANTE COLA 2L
9,75
TOTAL 45,90
DINHEIRO 50,00
TROCO 4,10`

func TestParseText(t *testing.T) {
	r := cupom.ParseText(sampleReceipt)
	assert.Equal(t, "SUPERMERCADO BOM PRECO LTDA", r.MerchantName)
	assert.Equal(t, "12.345.678/0001-95", r.TaxID)
	assert.Equal(t, "45.9", r.TotalAmount.String())
	assert.Equal(t, "Dinheiro", r.PaymentMethod)
	if assert.NotNil(t, r.IssuedAt) {
		assert.Equal(t, "2024-05-03", r.IssuedAt.Format("2006-01-02"))
	}
	assert.Len(t, r.Items, 2)
}

func TestParseTextIdempotent(t *testing.T) {
	first := cupom.ParseText(sampleReceipt)
	second := cupom.ParseText(sampleReceipt)
	assert.Equal(t, first, second)
}

func TestExtractMerchantSplitCode(t *testing.T) {
	text := "LF, 2\nLOJAS AMERICANAS SA\nCNPJ: 12.345.678/0001-95"
	assert.Equal(t, "LF 2 LOJAS AMERICANAS SA", cupom.ExtractMerchant(text))
}

func TestExtractMerchantCorrections(t *testing.T) {
	// "@"->"E" and 0-between-letters->O fixups on the header line
	text := "MODAS @ ACESSOR IOS LTUA\nCNPJ: 11.222.333/0001-44"
	name := cupom.ExtractMerchant(text)
	assert.Contains(t, name, "MODAS E")
}

func TestExtractMerchantSkipsNumericLines(t *testing.T) {
	text := "12.345.678/0001-95\n03/05/2024\nFARMACIA SAUDE TOTAL EIRELI"
	assert.Equal(t, "FARMACIA SAUDE TOTAL EIRELI", cupom.ExtractMerchant(text))
}

func TestExtractTaxID(t *testing.T) {
	assert.Equal(t, "12.345.678/0001-95",
		cupom.ExtractTaxID("CNPJ: 12.345.678/0001-95"))

	// OCR split across lines
	assert.Equal(t, "12.345.678/0001-95",
		cupom.ExtractTaxID("CNPJ: 12.345.678/\n0001-95"))
}

func TestExtractTaxIDWrongDigitCount(t *testing.T) {
	// 13 and 15 digit runs never produce a tax ID
	assert.Equal(t, "", cupom.ExtractTaxID("CNPJ: 12.345.678 0001-9"))
	assert.Equal(t, "", cupom.ExtractTaxID("some plain text"))
}

func TestExtractIssueDate(t *testing.T) {
	d := cupom.ExtractIssueDate("Emissao: 03/05/2024 18:32")
	if assert.NotNil(t, d) {
		assert.Equal(t, "2024-05-03", d.Format("2006-01-02"))
	}
}

func TestExtractIssueDateShortYear(t *testing.T) {
	d := cupom.ExtractIssueDate("Data 03/05/24")
	if assert.NotNil(t, d) {
		assert.Equal(t, "2024-05-03", d.Format("2006-01-02"))
	}
}

func TestExtractIssueDateRejectsImpossible(t *testing.T) {
	// 31st of February must not normalize into March
	d := cupom.ExtractIssueDate("31/02/2024")
	if d != nil {
		assert.NotEqual(t, "2024-03-02", d.Format("2006-01-02"))
	}
	assert.Nil(t, cupom.ExtractIssueDate("no dates here"))
}

func TestExtractTotal(t *testing.T) {
	assert.Equal(t, "45.9", cupom.ExtractTotal("TOTAL 45,90").String())
	assert.Equal(t, "123.45", cupom.ExtractTotal("VALOR TOTAL R$ 123,45").String())
	assert.Equal(t, "45.9", cupom.ExtractTotal("TOTAL 45 , 90").String())
	assert.Equal(t, "89.99", cupom.ExtractTotal("TOTAL A PAGAR 89,99").String())
}

func TestExtractTotalIsolatedValueFallback(t *testing.T) {
	// No labeled amount: an isolated value shortly after a "total"
	// line is used, small stray numbers are rejected
	text := "TOTAL\nitens\n2,00\n45,90"
	assert.Equal(t, "45.9", cupom.ExtractTotal(text).String())
}

func TestExtractTotalNone(t *testing.T) {
	assert.True(t, cupom.ExtractTotal("no amounts at all").IsZero())
}

func TestExtractPaymentMethod(t *testing.T) {
	assert.Equal(t, "Dinheiro", cupom.ExtractPaymentMethod("Forma: DINHEIRO"))
	assert.Equal(t, "PIX", cupom.ExtractPaymentMethod("pago via PIX"))
	assert.Equal(t, "", cupom.ExtractPaymentMethod("nothing relevant"))
}

func TestExtractPaymentMethodFirstOccurrenceWins(t *testing.T) {
	// Both methods are mentioned, the one printed first is the one
	// actually used
	text := "DEBITO\n...\nCREDITO"
	assert.Equal(t, "Cartão de Débito", cupom.ExtractPaymentMethod(text))
}
