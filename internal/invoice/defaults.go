package invoice

import "time"

// Template holds the values a fresh invoice starts with.
type Template struct {
	InvoiceNo string
	VATRate   float64
	Company   CompanyDetails
	Customer  CustomerDetails
	Items     []TemplateItem
}

// TemplateItem is a starter row; it receives a fresh id on instantiation.
type TemplateItem struct {
	Description string
	Quantity    float64
	Rate        float64
}

// DefaultTemplate returns the stock seller, customer and starter rows.
func DefaultTemplate() Template {
	return Template{
		InvoiceNo: "5039",
		VATRate:   0.05,
		Company: CompanyDetails{
			Name:         "FLAVOURS FOODSTUFF TRADING LLC",
			AddressLine1: "International city dubai, UAE, Po box 78416",
			AddressLine2: "TRN: 100588993400003",
			Mobile:       "+971 56 622 1665",
		},
		Customer: CustomerDetails{
			Name:         "CUSTOMER",
			BusinessName: "SIP AND DINE RESTAURANT AND CAFETERIA",
			Address:      "AL QUSAIS, DUBAI, UAE",
			TaxRegNo:     "1049944013100003",
		},
		Items: []TemplateItem{
			{Description: "CARROT", Quantity: 3, Rate: 13},
			{Description: "KIYAAR", Quantity: 1, Rate: 18},
			{Description: "TOMATO", Quantity: 1, Rate: 10},
			{Description: "KASS", Quantity: 1, Rate: 20},
			{Description: "MANGO", Quantity: 2, Rate: 24},
			{Description: "LEMON", Quantity: 1, Rate: 41},
			{Description: "WATERMELON", Quantity: 2, Rate: 13},
		},
	}
}

// Instantiate builds a draft invoice from the template dated on the given day.
func (t Template) Instantiate(ids IDSource, today time.Time) Invoice {
	items := make(LineItems, 0, len(t.Items))
	for _, it := range t.Items {
		items = append(items, NewLineItem(ids.ItemID(), it.Description, it.Quantity, it.Rate))
	}
	return Invoice{
		ID:        ids.InvoiceID(),
		InvoiceNo: t.InvoiceNo,
		Date:      today.UTC().Format(DateLayout),
		Company:   t.Company,
		Customer:  t.Customer,
		Items:     items,
		VATRate:   t.VATRate,
		IsDraft:   true,
	}
}
