package preview

import (
	"strings"
	"time"

	"github.com/nanofresh/invoicer/internal/invoice"
)

// DisplayDateLayout is the date pattern printed on the invoice.
const DisplayDateLayout = "02-01-06"

// DisplayDate converts an ISO calendar date (YYYY-MM-DD) into DD-MM-YY.
// Empty input yields an empty string; unparseable input is returned as is.
func DisplayDate(iso string) string {
	iso = strings.TrimSpace(iso)
	if iso == "" {
		return ""
	}
	t, err := time.Parse(invoice.DateLayout, iso)
	if err != nil {
		return iso
	}
	return t.Format(DisplayDateLayout)
}

// sellerTRN strips the "TRN:" prefix the address line conventionally carries.
func sellerTRN(line string) string {
	line = strings.TrimSpace(line)
	if len(line) >= 4 && strings.EqualFold(line[:4], "TRN:") {
		return strings.TrimSpace(line[4:])
	}
	return line
}
