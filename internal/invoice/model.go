package invoice

import "time"

// DateLayout is the ISO calendar date format used for Invoice.Date.
const DateLayout = "2006-01-02"

// CompanyDetails describes the seller printed in the invoice header.
type CompanyDetails struct {
	Name         string `json:"name" validate:"max=200"`
	AddressLine1 string `json:"addressLine1" validate:"max=300"`
	AddressLine2 string `json:"addressLine2" validate:"max=300"`
	Mobile       string `json:"mobile" validate:"max=50"`
	LogoURL      string `json:"logoUrl,omitempty" validate:"omitempty,url"`
}

// CustomerDetails describes the billed customer.
type CustomerDetails struct {
	Name         string `json:"name" validate:"max=200"`
	BusinessName string `json:"businessName" validate:"max=200"`
	Address      string `json:"address" validate:"max=300"`
	TaxRegNo     string `json:"taxRegNo" validate:"max=50"`
}

// Invoice is the aggregate edited by a workspace and persisted as a draft or
// history entry.
type Invoice struct {
	ID           string          `json:"id"`
	InvoiceNo    string          `json:"invoiceNo"`
	Date         string          `json:"date"`
	Company      CompanyDetails  `json:"company"`
	Customer     CustomerDetails `json:"customer"`
	Items        LineItems       `json:"items"`
	VATRate      float64         `json:"vatRate"`
	IsDraft      bool            `json:"isDraft"`
	DownloadedAt *time.Time      `json:"downloadedAt,omitempty"`
}

// Totals derives the monetary totals from the current items.
func (inv Invoice) Totals() Totals {
	return Aggregate(inv.Items, inv.VATRate)
}

// Clone returns a deep copy that shares no mutable state with inv.
func (inv Invoice) Clone() Invoice {
	out := inv
	if inv.Items != nil {
		out.Items = inv.Items.clone(len(inv.Items))
	}
	if inv.DownloadedAt != nil {
		ts := *inv.DownloadedAt
		out.DownloadedAt = &ts
	}
	return out
}

// Committed returns a copy marked as exported at the given time.
func (inv Invoice) Committed(at time.Time) Invoice {
	out := inv.Clone()
	out.IsDraft = false
	ts := at.UTC()
	out.DownloadedAt = &ts
	return out
}

// AsDraft returns a copy with IsDraft forced on.
func (inv Invoice) AsDraft() Invoice {
	out := inv.Clone()
	out.IsDraft = true
	return out
}
