package invoice

import (
	"math"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type seqIDs struct {
	mu       sync.Mutex
	invoices int
	items    int
}

func (s *seqIDs) InvoiceID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invoices++
	return "INV_" + strconv.Itoa(s.invoices)
}

func (s *seqIDs) ItemID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items++
	return "item-" + strconv.Itoa(s.items)
}

var fixedNow = time.Date(2025, 12, 6, 9, 30, 0, 0, time.UTC)

func newTestEditor() *Editor {
	tpl := DefaultTemplate()
	tpl.Items = []TemplateItem{{Description: "CARROT", Quantity: 3, Rate: 13}}
	return NewEditor(EditorOptions{
		IDs:      &seqIDs{},
		Template: tpl,
		Clock:    func() time.Time { return fixedNow },
	})
}

func TestNewEditorStartsWithDraft(t *testing.T) {
	e := newTestEditor()
	inv, state := e.Snapshot()

	assert.Equal(t, StateDraft, state)
	assert.Equal(t, "INV_1", inv.ID)
	assert.True(t, inv.IsDraft)
	assert.Equal(t, "2025-12-06", inv.Date)
	assert.Equal(t, 0.05, inv.VATRate)
	require.Len(t, inv.Items, 1)
	assert.Equal(t, 39.0, inv.Items[0].Amount)
}

func TestEditorScenario(t *testing.T) {
	e := newTestEditor()

	item, inv := e.AddItem()
	_, ok := e.UpdateItem(item.ID, FieldDescription, "KIYAAR")
	require.True(t, ok)
	inv, ok = e.UpdateItem(item.ID, FieldRate, "32")
	require.True(t, ok)

	totals := inv.Totals()
	assert.Equal(t, "71.00", FormatMoney(totals.Subtotal))
	assert.Equal(t, "3.55", FormatMoney(totals.VATAmount))
	assert.Equal(t, "74.55", FormatMoney(totals.Total))

	inv, ok = e.UpdateItem(item.ID, FieldRate, "18")
	require.True(t, ok)
	got, _ := inv.Items.Find(item.ID)
	assert.Equal(t, 18.0, got.Amount)
	assert.Equal(t, "57.00", FormatMoney(inv.Totals().Subtotal))
}

func TestEditorUnknownItemLeavesInvoiceUnchanged(t *testing.T) {
	e := newTestEditor()
	before, _ := e.Snapshot()

	after, ok := e.UpdateItem("nope", FieldRate, "10")
	assert.False(t, ok)
	assert.Equal(t, before, after)

	after, ok = e.RemoveItem("nope")
	assert.False(t, ok)
	assert.Equal(t, before, after)
}

func TestEditorEditsKeepDraft(t *testing.T) {
	e := newTestEditor()
	inv := e.SetHeader("6001", "2026-01-02")
	assert.Equal(t, "6001", inv.InvoiceNo)
	assert.Equal(t, "2026-01-02", inv.Date)
	assert.True(t, inv.IsDraft)

	inv = e.SetVATRate(-1)
	assert.Zero(t, inv.VATRate)

	inv = e.SetCustomer(CustomerDetails{BusinessName: "ACME"})
	assert.Equal(t, "ACME", inv.Customer.BusinessName)
	assert.Empty(t, inv.Customer.Address)

	inv = e.SetCompany(CompanyDetails{Name: "SELLER"})
	assert.Equal(t, "SELLER", inv.Company.Name)
}

func TestEditorUpdateHeaderIsOneEdit(t *testing.T) {
	e := newTestEditor()
	inv := e.UpdateHeader("7001", "2026-02-01", math.NaN())
	assert.Equal(t, "7001", inv.InvoiceNo)
	assert.Equal(t, "2026-02-01", inv.Date)
	assert.Zero(t, inv.VATRate)

	e.UpdateHeader("A", "2026-01-01", 0.05)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			if i%2 == 0 {
				e.UpdateHeader("B", "2026-01-02", 0.2)
			} else {
				e.UpdateHeader("A", "2026-01-01", 0.05)
			}
		}
	}()
	for i := 0; i < 500; i++ {
		snap, _ := e.Snapshot()
		switch snap.InvoiceNo {
		case "A":
			assert.Equal(t, 0.05, snap.VATRate)
		case "B":
			assert.Equal(t, 0.2, snap.VATRate)
		}
	}
	wg.Wait()
}

func TestEditorExportLifecycle(t *testing.T) {
	e := newTestEditor()
	before, _ := e.Snapshot()

	snap, err := e.BeginExport()
	require.NoError(t, err)
	assert.Equal(t, before, snap)

	_, state := e.Snapshot()
	assert.Equal(t, StateExporting, state)

	_, err = e.BeginExport()
	assert.ErrorIs(t, err, ErrExportInProgress)

	// edits during export do not reach the snapshot
	e.SetHeader("9999", before.Date)

	committed, next, err := e.CompleteExport()
	require.NoError(t, err)
	assert.False(t, committed.IsDraft)
	require.NotNil(t, committed.DownloadedAt)
	assert.Equal(t, fixedNow, *committed.DownloadedAt)
	assert.Equal(t, before.ID, committed.ID)
	assert.Equal(t, before.InvoiceNo, committed.InvoiceNo)

	assert.True(t, next.IsDraft)
	assert.NotEqual(t, committed.ID, next.ID)
	cur, state := e.Snapshot()
	assert.Equal(t, StateDraft, state)
	assert.Equal(t, next, cur)

	_, _, err = e.CompleteExport()
	assert.ErrorIs(t, err, ErrNotExporting)
}

func TestEditorFailExportRevertsToDraft(t *testing.T) {
	e := newTestEditor()
	before, _ := e.Snapshot()

	_, err := e.BeginExport()
	require.NoError(t, err)
	after := e.FailExport()

	assert.Equal(t, before, after)
	_, state := e.Snapshot()
	assert.Equal(t, StateDraft, state)

	_, err = e.BeginExport()
	assert.NoError(t, err)
}

func TestEditorLoadFromHistoryClonesUnderNewID(t *testing.T) {
	e := newTestEditor()
	ts := fixedNow.Add(-time.Hour)
	rec := Invoice{
		ID:           "INV_old",
		InvoiceNo:    "5000",
		Date:         "2025-11-05",
		Customer:     CustomerDetails{BusinessName: "SIP AND DINE"},
		Items:        LineItems{{ID: "x", Description: "MANGO", Quantity: 2, Rate: 24, Amount: 1}},
		VATRate:      0.05,
		IsDraft:      false,
		DownloadedAt: &ts,
	}

	inv := e.LoadFromHistory(rec)
	assert.NotEqual(t, rec.ID, inv.ID)
	assert.True(t, inv.IsDraft)
	assert.Nil(t, inv.DownloadedAt)
	assert.Equal(t, "5000", inv.InvoiceNo)
	assert.Equal(t, 48.0, inv.Items[0].Amount)

	// the record stays immutable
	inv = e.SetHeader("7000", "")
	assert.Equal(t, "5000", rec.InvoiceNo)
	assert.Equal(t, 1.0, rec.Items[0].Amount)
	assert.False(t, rec.IsDraft)
}

func TestEditorRestoreAssignsMissingIDs(t *testing.T) {
	e := newTestEditor()
	inv := e.Restore(Invoice{Items: LineItems{{Description: "X", Quantity: 2, Rate: 2}}})

	assert.NotEmpty(t, inv.ID)
	assert.True(t, inv.IsDraft)
	assert.NotEmpty(t, inv.Items[0].ID)
	assert.Equal(t, 4.0, inv.Items[0].Amount)
}

func TestGeneratorIssuesUniqueIDs(t *testing.T) {
	g, err := NewGenerator(1)
	require.NoError(t, err)

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := g.ItemID()
		require.False(t, seen[id])
		seen[id] = true
	}
	assert.Contains(t, g.InvoiceID(), "INV_")

	_, err = NewGenerator(5000)
	assert.Error(t, err)
}
