// Package preview projects an invoice into the document shown next to the
// editing form and used as the export render target.
package preview

import (
	"github.com/nanofresh/invoicer/internal/invoice"
)

// Document is the renderable form of an invoice. Every value is already
// formatted for display.
type Document struct {
	Title     string        `json:"title"`
	Seller    SellerBlock   `json:"seller"`
	Date      string        `json:"date"`
	InvoiceNo string        `json:"invoiceNo"`
	Customer  CustomerBlock `json:"customer"`
	Rows      []Row         `json:"rows"`
	Totals    TotalsBlock   `json:"totals"`
	Footer    []string      `json:"footer"`
	Signature string        `json:"signature"`
}

// SellerBlock is the header block describing the issuing company.
type SellerBlock struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	TRN     string `json:"trn"`
	Mobile  string `json:"mobile"`
	LogoURL string `json:"logoUrl,omitempty"`
}

// CustomerBlock is the billed-to block.
type CustomerBlock struct {
	Heading      string `json:"heading"`
	BusinessName string `json:"businessName"`
	Address      string `json:"address"`
	TaxRegNo     string `json:"taxRegNo"`
}

// Row is one printed line of the item table. No is the 1-based position.
type Row struct {
	No          int    `json:"no"`
	Description string `json:"description"`
	Quantity    string `json:"quantity"`
	Rate        string `json:"rate"`
	Amount      string `json:"amount"`
}

// TotalsBlock holds the labelled totals printed under the item table.
type TotalsBlock struct {
	SubtotalLabel string `json:"subtotalLabel"`
	Subtotal      string `json:"subtotal"`
	VATLabel      string `json:"vatLabel"`
	VAT           string `json:"vat"`
	TotalLabel    string `json:"totalLabel"`
	Total         string `json:"total"`
}

// Project maps an invoice and its totals onto a Document. It has no side
// effects and must be re-run after every mutation.
func Project(inv invoice.Invoice, totals invoice.Totals) Document {
	rows := make([]Row, 0, len(inv.Items))
	for i, item := range inv.Items {
		rows = append(rows, Row{
			No:          i + 1,
			Description: item.Description,
			Quantity:    invoice.FormatMoney(item.Quantity),
			Rate:        invoice.FormatMoney(item.Rate),
			Amount:      invoice.FormatMoney(item.Amount),
		})
	}
	return Document{
		Title: "TAX INVOICE",
		Seller: SellerBlock{
			Name:    inv.Company.Name,
			Address: inv.Company.AddressLine1,
			TRN:     sellerTRN(inv.Company.AddressLine2),
			Mobile:  inv.Company.Mobile,
			LogoURL: inv.Company.LogoURL,
		},
		Date:      DisplayDate(inv.Date),
		InvoiceNo: inv.InvoiceNo,
		Customer: CustomerBlock{
			Heading:      "CUSTOMER",
			BusinessName: inv.Customer.BusinessName,
			Address:      inv.Customer.Address,
			TaxRegNo:     inv.Customer.TaxRegNo,
		},
		Rows: rows,
		Totals: TotalsBlock{
			SubtotalLabel: "TOTAL EXCLUDING VAT",
			Subtotal:      invoice.FormatMoney(totals.Subtotal),
			VATLabel:      "TOTAL VAT AMOUNT @" + invoice.FormatPercent(inv.VATRate) + "%",
			VAT:           invoice.FormatMoney(totals.VATAmount),
			TotalLabel:    "TOTAL WITH VAT AFTER NET DISCOUNT",
			Total:         invoice.FormatMoney(totals.Total),
		},
		Footer:    []string{"FRESH", "FRUITS & VEGETABLES"},
		Signature: "RECEIVER- SIGN",
	}
}

// Sync projects the invoice using freshly computed totals.
func Sync(inv invoice.Invoice) Document {
	return Project(inv, inv.Totals())
}
