package workspace

import (
	"encoding/json"

	"github.com/nanofresh/invoicer/internal/invoice"
)

// HeaderRequest is the body of PUT /invoice/header.
type HeaderRequest struct {
	InvoiceNo string  `json:"invoiceNo" validate:"max=50"`
	Date      string  `json:"date" validate:"max=32"`
	VATRate   float64 `json:"vatRate"`
}

// ItemUpdateRequest is the body of PATCH /invoice/items/{id}. Value may be
// a JSON string or number.
type ItemUpdateRequest struct {
	Field string          `json:"field" validate:"required,oneof=description quantity rate"`
	Value json.RawMessage `json:"value"`
}

// ValueString returns the submitted value as the raw text the editor
// parses. Numbers keep their literal form and null becomes empty.
func (r ItemUpdateRequest) ValueString() string {
	if len(r.Value) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(r.Value, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(r.Value, &n); err == nil {
		return n.String()
	}
	return ""
}

// ItemResponse is returned after adding an item.
type ItemResponse struct {
	Item invoice.LineItem `json:"item"`
	View
}

// HistoryResponse lists the export history.
type HistoryResponse struct {
	Items []invoice.Invoice `json:"items"`
	Max   int               `json:"max"`
}
