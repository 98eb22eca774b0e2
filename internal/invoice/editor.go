package invoice

import (
	"errors"
	"math"
	"sync"
	"time"
)

// State is the lifecycle state of the working invoice.
type State string

const (
	StateDraft     State = "draft"
	StateExporting State = "exporting"
)

var (
	// ErrExportInProgress is returned when an export is started twice.
	ErrExportInProgress = errors.New("invoice: export already in progress")
	// ErrNotExporting is returned when completing an export that never began.
	ErrNotExporting = errors.New("invoice: no export in progress")
)

// EditorOptions configures an Editor.
type EditorOptions struct {
	IDs      IDSource
	Template Template
	Clock    func() time.Time
}

// Editor owns the working invoice of one workspace and enforces the
// draft -> exporting -> committed -> new draft lifecycle.
type Editor struct {
	mu       sync.Mutex
	ids      IDSource
	template Template
	now      func() time.Time

	current  Invoice
	state    State
	snapshot Invoice
}

// NewEditor returns an editor holding a fresh draft.
func NewEditor(opts EditorOptions) *Editor {
	e := &Editor{
		ids:      opts.IDs,
		template: opts.Template,
		now:      opts.Clock,
		state:    StateDraft,
	}
	if e.now == nil {
		e.now = time.Now
	}
	e.current = e.template.Instantiate(e.ids, e.now())
	return e
}

// Reset replaces the working invoice with a fresh draft.
func (e *Editor) Reset() Invoice {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.current = e.template.Instantiate(e.ids, e.now())
	return e.current.Clone()
}

// Restore adopts a previously saved draft as the working invoice.
func (e *Editor) Restore(inv Invoice) Invoice {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.current = e.adopt(inv)
	if e.current.ID == "" {
		e.current.ID = e.ids.InvoiceID()
	}
	return e.current.Clone()
}

// LoadFromHistory starts a new draft cloned from a committed record. The
// record itself is left untouched; the draft gets a new id.
func (e *Editor) LoadFromHistory(rec Invoice) Invoice {
	e.mu.Lock()
	defer e.mu.Unlock()
	next := e.adopt(rec)
	next.ID = e.ids.InvoiceID()
	next.DownloadedAt = nil
	e.current = next
	return e.current.Clone()
}

// SetHeader replaces the invoice number and date.
func (e *Editor) SetHeader(invoiceNo, date string) Invoice {
	return e.edit(func(inv *Invoice) {
		inv.InvoiceNo = invoiceNo
		inv.Date = date
	})
}

// SetVATRate replaces the flat VAT rate. Negative or non-finite rates become 0.
func (e *Editor) SetVATRate(rate float64) Invoice {
	rate = clampVATRate(rate)
	return e.edit(func(inv *Invoice) {
		inv.VATRate = rate
	})
}

// UpdateHeader replaces the invoice number, date and VAT rate in one edit.
func (e *Editor) UpdateHeader(invoiceNo, date string, vatRate float64) Invoice {
	vatRate = clampVATRate(vatRate)
	return e.edit(func(inv *Invoice) {
		inv.InvoiceNo = invoiceNo
		inv.Date = date
		inv.VATRate = vatRate
	})
}

func clampVATRate(rate float64) float64 {
	if rate < 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		return 0
	}
	return rate
}

// SetCompany replaces the seller details.
func (e *Editor) SetCompany(c CompanyDetails) Invoice {
	return e.edit(func(inv *Invoice) {
		inv.Company = c
	})
}

// SetCustomer replaces the customer details.
func (e *Editor) SetCustomer(c CustomerDetails) Invoice {
	return e.edit(func(inv *Invoice) {
		inv.Customer = c
	})
}

// AddItem appends a blank line item and returns it.
func (e *Editor) AddItem() (LineItem, Invoice) {
	id := e.ids.ItemID()
	inv := e.edit(func(inv *Invoice) {
		inv.Items = inv.Items.Add(id)
	})
	item, _ := inv.Items.Find(id)
	return item, inv
}

// UpdateItem edits one field of a line item. Unknown ids leave the invoice
// unchanged and report false.
func (e *Editor) UpdateItem(id string, field ItemField, value string) (Invoice, bool) {
	var ok bool
	inv := e.edit(func(inv *Invoice) {
		inv.Items, ok = inv.Items.Update(id, field, value)
	})
	return inv, ok
}

// RemoveItem deletes a line item. Unknown ids leave the invoice unchanged.
func (e *Editor) RemoveItem(id string) (Invoice, bool) {
	var ok bool
	inv := e.edit(func(inv *Invoice) {
		inv.Items, ok = inv.Items.Remove(id)
	})
	return inv, ok
}

// BeginExport moves the editor into the exporting state and returns the
// snapshot that will be exported. Edits remain possible and do not affect
// the snapshot.
func (e *Editor) BeginExport() (Invoice, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateExporting {
		return Invoice{}, ErrExportInProgress
	}
	e.state = StateExporting
	e.snapshot = e.current.Clone()
	return e.snapshot.Clone(), nil
}

// CompleteExport commits the exported snapshot and starts a new draft. It
// returns the committed record and the new working invoice.
func (e *Editor) CompleteExport() (Invoice, Invoice, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateExporting {
		return Invoice{}, Invoice{}, ErrNotExporting
	}
	committed := e.snapshot.Committed(e.now())
	e.snapshot = Invoice{}
	e.state = StateDraft
	e.current = e.template.Instantiate(e.ids, e.now())
	return committed, e.current.Clone(), nil
}

// FailExport returns to the draft state without touching the working invoice.
func (e *Editor) FailExport() Invoice {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = StateDraft
	e.snapshot = Invoice{}
	return e.current.Clone()
}

// Snapshot returns a copy of the working invoice and the current state.
func (e *Editor) Snapshot() (Invoice, State) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current.Clone(), e.state
}

func (e *Editor) edit(fn func(inv *Invoice)) Invoice {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(&e.current)
	e.current.IsDraft = true
	return e.current.Clone()
}

// adopt clones inv as a draft with normalized items; items missing an id
// get one. Callers hold e.mu.
func (e *Editor) adopt(inv Invoice) Invoice {
	out := inv.AsDraft()
	out.Items = out.Items.Normalize()
	for i := range out.Items {
		if out.Items[i].ID == "" {
			out.Items[i].ID = e.ids.ItemID()
		}
	}
	return out
}
