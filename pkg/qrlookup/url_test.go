package qrlookup

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const spAccessKey = "35240805847394000109650010000123451000123456"

func TestResolve(t *testing.T) {
	payload, ok := Resolve("https://www.nfce.fazenda.sp.gov.br/qrcode?p=" + spAccessKey + "|2|1|1|ABCDEF")
	assert.True(t, ok)
	assert.Equal(t, "SP", payload.Region)
	assert.Equal(t, spAccessKey, payload.AccessKey)
}

func TestResolveUnknownHost(t *testing.T) {
	payload, ok := Resolve("http://example.com/consulta?chNFe=" + spAccessKey)
	assert.True(t, ok)
	assert.Equal(t, "BR", payload.Region)
	assert.Equal(t, spAccessKey, payload.AccessKey)
}

func TestResolveRejectsNonURL(t *testing.T) {
	_, ok := Resolve("WIFI:T:WPA;S:loja;P:segredo;;")
	assert.False(t, ok)

	_, ok = Resolve("just some text")
	assert.False(t, ok)
}

func TestRegionFromURL(t *testing.T) {
	assert.Equal(t, "RS", RegionFromURL("https://www.sefaz.rs.gov.br/NFCE/NFCE-COM.aspx"))
	assert.Equal(t, "MG", RegionFromURL("https://portalsped.fazenda.mg.gov.br/portalnfce/"))
	assert.Equal(t, "BR", RegionFromURL("https://nota.example.org/consulta"))
}

func TestAccessKeyFromURL(t *testing.T) {
	assert.Equal(t, spAccessKey, AccessKeyFromURL("https://x.gov.br/nfce?chNFe="+spAccessKey))
	assert.Equal(t, spAccessKey, AccessKeyFromURL("https://x.gov.br/nfce/"+spAccessKey))
	assert.Equal(t, "", AccessKeyFromURL("https://x.gov.br/nfce?p="+strings.Repeat("1", 43)))
}
