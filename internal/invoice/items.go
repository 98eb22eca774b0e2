package invoice

// ItemField names an editable column of a line item.
type ItemField string

const (
	FieldDescription ItemField = "description"
	FieldQuantity    ItemField = "quantity"
	FieldRate        ItemField = "rate"
)

// Valid reports whether the field can be edited.
func (f ItemField) Valid() bool {
	switch f {
	case FieldDescription, FieldQuantity, FieldRate:
		return true
	}
	return false
}

// LineItem is one row of an invoice. Amount is always Quantity*Rate.
type LineItem struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Rate        float64 `json:"rate"`
	Amount      float64 `json:"amount"`
}

// NewLineItem builds an item with its amount already derived.
func NewLineItem(id, description string, quantity, rate float64) LineItem {
	return LineItem{
		ID:          id,
		Description: description,
		Quantity:    quantity,
		Rate:        rate,
		Amount:      LineAmount(quantity, rate),
	}
}

// LineItems is the ordered item list of an invoice. Operations never mutate
// the receiver; they return the updated list.
type LineItems []LineItem

// Add appends a blank item (quantity 1, rate 0) with the given id.
func (l LineItems) Add(id string) LineItems {
	out := l.clone(len(l) + 1)
	return append(out, NewLineItem(id, "", 1, 0))
}

// Update sets one field of the addressed item. Quantity and rate are parsed
// fail-soft and the amount is recomputed in the same step. The boolean is
// false, and the list unchanged, when the id or field is unknown.
func (l LineItems) Update(id string, field ItemField, value string) (LineItems, bool) {
	idx := l.index(id)
	if idx < 0 || !field.Valid() {
		return l, false
	}
	out := l.clone(len(l))
	item := out[idx]
	switch field {
	case FieldDescription:
		item.Description = value
	case FieldQuantity:
		item.Quantity = ParseNumber(value)
	case FieldRate:
		item.Rate = ParseNumber(value)
	}
	item.Amount = LineAmount(item.Quantity, item.Rate)
	out[idx] = item
	return out, true
}

// Remove deletes the addressed item, keeping the order of the others.
func (l LineItems) Remove(id string) (LineItems, bool) {
	idx := l.index(id)
	if idx < 0 {
		return l, false
	}
	out := make(LineItems, 0, len(l)-1)
	out = append(out, l[:idx]...)
	return append(out, l[idx+1:]...), true
}

// Find returns the item with the given id.
func (l LineItems) Find(id string) (LineItem, bool) {
	if idx := l.index(id); idx >= 0 {
		return l[idx], true
	}
	return LineItem{}, false
}

// Normalize recomputes every amount and clamps negative inputs. Used when
// items come from storage or an external caller.
func (l LineItems) Normalize() LineItems {
	out := l.clone(len(l))
	for i := range out {
		if out[i].Quantity < 0 {
			out[i].Quantity = 0
		}
		if out[i].Rate < 0 {
			out[i].Rate = 0
		}
		out[i].Amount = LineAmount(out[i].Quantity, out[i].Rate)
	}
	return out
}

func (l LineItems) index(id string) int {
	if id == "" {
		return -1
	}
	for i := range l {
		if l[i].ID == id {
			return i
		}
	}
	return -1
}

func (l LineItems) clone(capacity int) LineItems {
	out := make(LineItems, len(l), capacity)
	copy(out, l)
	return out
}
