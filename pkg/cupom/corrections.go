package cupom

import "regexp"

// Known OCR misreads seen on printed store headers. The table is only
// consulted by the merchant-name heuristic: applying it to arbitrary
// text would corrupt legitimate data (item codes, amounts).
var merchantCorrections = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`@`), "E"},
	{regexp.MustCompile(`\bI0S\b`), "IOS"},
	{regexp.MustCompile(`\b([A-Z]+)0([A-Z]+)\b`), "${1}O${2}"},
	{regexp.MustCompile(`ACESSOR\s+IOS`), "ACESSORIOS"},
	{regexp.MustCompile(`BIJUTEIIAS`), "BIJUTERIAS"},
	{regexp.MustCompile(`LTUA`), "LTDA"},
}

func applyMerchantCorrections(s string) string {
	for _, c := range merchantCorrections {
		s = c.re.ReplaceAllString(s, c.repl)
	}
	return s
}
