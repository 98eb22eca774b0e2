package export

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/nanofresh/invoicer/internal/invoice"
)

const (
	slugLength     = 10
	emptyInvoiceNo = "0000"
	filenamePrefix = "INVOICE_"
	filenameSuffix = ".pdf"
)

// Filename returns the download name of an exported invoice.
func Filename(inv invoice.Invoice) string {
	number := sanitize(strings.TrimSpace(inv.InvoiceNo))
	if number == "" {
		number = emptyInvoiceNo
	}
	return filenamePrefix + number + "_" + Slug(inv.Customer.BusinessName) + filenameSuffix
}

// Slug folds diacritics, replaces every character outside [A-Za-z0-9] with
// an underscore and keeps the first ten characters.
func Slug(name string) string {
	slug := sanitize(name)
	if len(slug) > slugLength {
		slug = slug[:slugLength]
	}
	return slug
}

// sanitize folds accented letters to their base letter first, so "Café"
// becomes "Cafe" rather than "Caf_"; anything still outside [A-Za-z0-9]
// becomes an underscore.
func sanitize(s string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err != nil {
		folded = s
	}
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
			continue
		}
		b.WriteByte('_')
	}
	return b.String()
}
