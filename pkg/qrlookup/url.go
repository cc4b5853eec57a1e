package qrlookup

import (
	"net/url"
	"regexp"
	"strings"
)

// Payload is a decoded and resolved QR code: the SEFAZ lookup URL plus
// the best-effort metadata derived from it.
type Payload struct {
	URL       string `json:"url"`
	Region    string `json:"region"`
	AccessKey string `json:"accessKey"`
}

// Resolve validates that a decoded QR payload is an HTTP(S) URL and
// derives region and access key from it. ok is false for junk
// payloads (wifi credentials, vcards, plain text).
func Resolve(payload string) (*Payload, bool) {
	u, err := url.Parse(payload)
	if err != nil {
		return nil, false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, false
	}
	return &Payload{
		URL:       payload,
		Region:    RegionFromURL(payload),
		AccessKey: AccessKeyFromURL(payload),
	}, true
}

type regionPattern struct {
	substr string
	region string
}

// Host fragments of the state tax-authority lookup portals. Matching
// is best-effort: an unknown host gets the generic "BR" tag, it never
// fails the lookup.
var regionPatterns = []regionPattern{
	{"sp.gov.br", "SP"}, {"fazenda.sp", "SP"}, {"nfce.fazenda.sp", "SP"},
	{"rj.gov.br", "RJ"}, {"fazenda.rj", "RJ"},
	{"mg.gov.br", "MG"}, {"fazenda.mg", "MG"},
	{"rs.gov.br", "RS"}, {"sefaz.rs", "RS"},
	{"pr.gov.br", "PR"}, {"fazenda.pr", "PR"},
	{"sc.gov.br", "SC"}, {"sef.sc", "SC"},
	{"ba.gov.br", "BA"}, {"sefaz.ba", "BA"},
	{"pe.gov.br", "PE"}, {"sefaz.pe", "PE"},
	{"ce.gov.br", "CE"}, {"sefaz.ce", "CE"},
	{"go.gov.br", "GO"}, {"sefaz.go", "GO"},
	{"df.gov.br", "DF"}, {"fazenda.df", "DF"},
	{"es.gov.br", "ES"}, {"sefaz.es", "ES"},
	{"mt.gov.br", "MT"}, {"sefaz.mt", "MT"},
	{"ms.gov.br", "MS"}, {"sefaz.ms", "MS"},
	{"pa.gov.br", "PA"}, {"sefa.pa", "PA"},
	{"am.gov.br", "AM"}, {"sefaz.am", "AM"},
	{"ma.gov.br", "MA"}, {"sefaz.ma", "MA"},
	{"pb.gov.br", "PB"}, {"sefaz.pb", "PB"},
	{"rn.gov.br", "RN"}, {"set.rn", "RN"},
	{"al.gov.br", "AL"}, {"sefaz.al", "AL"},
	{"se.gov.br", "SE"}, {"sefaz.se", "SE"},
	{"pi.gov.br", "PI"}, {"sefaz.pi", "PI"},
	{"to.gov.br", "TO"}, {"sefaz.to", "TO"},
	{"ro.gov.br", "RO"}, {"sefin.ro", "RO"},
	{"ac.gov.br", "AC"}, {"sefaz.ac", "AC"},
	{"ap.gov.br", "AP"}, {"sefaz.ap", "AP"},
	{"rr.gov.br", "RR"}, {"sefaz.rr", "RR"},
}

// RegionFromURL identifies which state authority issued the document.
func RegionFromURL(lookupURL string) string {
	lower := strings.ToLower(lookupURL)
	for _, p := range regionPatterns {
		if strings.Contains(lower, p.substr) {
			return p.region
		}
	}
	return "BR"
}

// The access key is the 44-digit unique document identifier embedded
// in the lookup URL, either as a named query parameter or anywhere in
// the path.
var accessKeyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`chNFe=(\d{44})`),
	regexp.MustCompile(`p=(\d{44})`),
	regexp.MustCompile(`(\d{44})`),
}

func AccessKeyFromURL(lookupURL string) string {
	for _, pattern := range accessKeyPatterns {
		if match := pattern.FindStringSubmatch(lookupURL); match != nil {
			return match[1]
		}
	}
	return ""
}
