package sefaz_test

import (
	"testing"

	"github.com/h2non/gock"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/fiscotrack/cupom-backend/pkg/models"
	"github.com/fiscotrack/cupom-backend/pkg/qrlookup"
	"github.com/fiscotrack/cupom-backend/pkg/sefaz"
)

func TestMain(m *testing.M) {
	logrus.StandardLogger().SetLevel(logrus.DebugLevel)
	m.Run()
}

const lookupPage = `<html><body>
<div class="txtTopo">SUPERMERCADO BOM PRECO LTDA</div>
<div class="emit">CNPJ: 12.345.678/0001-95</div>
<table>
<tr><td>QTDE</td><td>DESCRIÇÃO</td><td>VALOR</td></tr>
<tr><td>ARROZ BRANCO 5KG (Cód: 123)</td><td>Qtd: 1</td><td>22,90</td></tr>
<tr><td>FEIJAO CARIOCA 1KG (Cód: 456)</td><td>Qtd: 2</td><td>8,50</td><td>17,00</td></tr>
</table>
<div>Valor total R$ 39,90</div>
<div>Valor a pagar R$ 45,90</div>
<div>Valor pago R$ 50,00</div>
<div>Troco R$ 4,10</div>
<div>Forma de pagamento: Dinheiro</div>
<div>Emissão: 03/05/2024 18:32:10</div>
</body></html>`

func lookupPayload(t *testing.T, rawURL string) *qrlookup.Payload {
	payload, ok := qrlookup.Resolve(rawURL)
	if !ok {
		t.Fatalf("unable to resolve %s", rawURL)
	}
	return payload
}

func TestFetch(t *testing.T) {
	defer gock.Off()
	gock.New("https://www.nfce.fazenda.sp.gov.br").
		Get("/qrcode").
		Reply(200).
		BodyString(lookupPage)

	c := sefaz.New()
	receipt := c.Fetch(lookupPayload(t,
		"https://www.nfce.fazenda.sp.gov.br/qrcode?p=35240805847394000109650010000123451000123456"))

	assert.True(t, receipt.Succeeded)
	assert.Equal(t, models.SourceQRAuthority, receipt.SourceKind)
	assert.Equal(t, "SP", receipt.Region)
	assert.Equal(t, "SUPERMERCADO BOM PRECO LTDA", receipt.MerchantName)
	assert.Equal(t, "12.345.678/0001-95", receipt.TaxID)
	assert.Equal(t, "Dinheiro", receipt.PaymentMethod)

	// Two labeled totals on the page, the strongest label wins over
	// the generic one.
	assert.Equal(t, "45.9", receipt.TotalAmount.String())
	assert.Equal(t, "50", receipt.AmountPaid.String())
	assert.Equal(t, "4.1", receipt.ChangeAmount.String())

	if assert.NotNil(t, receipt.IssuedAt) {
		assert.Equal(t, "2024-05-03 18:32:10", receipt.IssuedAt.Format("2006-01-02 15:04:05"))
	}

	if assert.Len(t, receipt.Items, 2) {
		assert.Equal(t, "ARROZ BRANCO 5KG", receipt.Items[0].Description)
		assert.Equal(t, "22.9", receipt.Items[0].TotalPrice.String())
		assert.Equal(t, "FEIJAO CARIOCA 1KG", receipt.Items[1].Description)
		assert.Equal(t, "2", receipt.Items[1].Quantity.String())
		assert.Equal(t, "17", receipt.Items[1].TotalPrice.String())
		assert.Equal(t, "8.5", receipt.Items[1].UnitPrice.String())
	}
}

func TestFetchLastTotalWins(t *testing.T) {
	defer gock.Off()
	gock.New("https://www.sefaz.rs.gov.br").
		Get("/").
		Reply(200).
		BodyString(`<html><body>
			<div>Total R$ 10,00</div>
			<div>Total R$ 123,45</div>
		</body></html>`)

	c := sefaz.New()
	receipt := c.Fetch(lookupPayload(t, "https://www.sefaz.rs.gov.br/?chNFe=43240805847394000109650010000123451000123456"))
	assert.True(t, receipt.Succeeded)
	assert.Equal(t, "RS", receipt.Region)
	assert.Equal(t, "123.45", receipt.TotalAmount.String())
}

func TestFetchTotalIgnoresItemCountLine(t *testing.T) {
	defer gock.Off()
	gock.New("https://www.sefaz.rs.gov.br").
		Get("/consulta").
		Reply(200).
		BodyString(`<html><body>
			<div>Total: R$ 45,90</div>
			<div>Total de itens 2,00</div>
		</body></html>`)

	c := sefaz.New()
	receipt := c.Fetch(lookupPayload(t, "https://www.sefaz.rs.gov.br/consulta"))
	assert.Equal(t, "45.9", receipt.TotalAmount.String())
}

func TestFetchItemsWithoutTable(t *testing.T) {
	defer gock.Off()
	gock.New("https://www.sefaz.pe.gov.br").
		Get("/nfce").
		Reply(200).
		BodyString(`<html><body>
			<div>CERVEJA 350ML 10 UN x 3,50 35,00</div>
			<div>PAO FRANCES 0,450 KG 8,90</div>
			<div>Total R$ 43,90</div>
		</body></html>`)

	c := sefaz.New()
	receipt := c.Fetch(lookupPayload(t, "https://www.sefaz.pe.gov.br/nfce"))
	assert.True(t, receipt.Succeeded)
	assert.Equal(t, "43.9", receipt.TotalAmount.String())

	if assert.Len(t, receipt.Items, 2) {
		// The inline "qty x unit-price" fragment is stripped from the
		// description
		assert.Equal(t, "CERVEJA 350ML", receipt.Items[0].Description)
		assert.Equal(t, "10", receipt.Items[0].Quantity.String())
		assert.Equal(t, "UN", receipt.Items[0].Unit)
		assert.Equal(t, "3.5", receipt.Items[0].UnitPrice.String())
		assert.Equal(t, "35", receipt.Items[0].TotalPrice.String())

		assert.Equal(t, "PAO FRANCES", receipt.Items[1].Description)
		assert.Equal(t, "0.45", receipt.Items[1].Quantity.String())
		assert.Equal(t, "KG", receipt.Items[1].Unit)
		assert.Equal(t, "8.9", receipt.Items[1].TotalPrice.String())
	}
}

func TestFetchTransportFailure(t *testing.T) {
	defer gock.Off()
	gock.New("https://unreachable.fazenda.sp.gov.br").
		Get("/qr").
		ReplyError(assert.AnError)

	c := sefaz.New()
	receipt := c.Fetch(lookupPayload(t, "https://unreachable.fazenda.sp.gov.br/qr"))
	assert.False(t, receipt.Succeeded)
	assert.NotEmpty(t, receipt.ErrorMessage)
	assert.Equal(t, "SP", receipt.Region)
}

func TestFetchHTTPError(t *testing.T) {
	defer gock.Off()
	gock.New("https://www.fazenda.mg.gov.br").
		Get("/nfce").
		Reply(500)

	c := sefaz.New()
	receipt := c.Fetch(lookupPayload(t, "https://www.fazenda.mg.gov.br/nfce"))
	assert.False(t, receipt.Succeeded)
	assert.NotEmpty(t, receipt.ErrorMessage)
}
