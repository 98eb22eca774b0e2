package invoice

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
)

// IDSource mints identifiers for invoices and line items.
type IDSource interface {
	InvoiceID() string
	ItemID() string
}

// Generator issues uuid based invoice ids and snowflake item ids. Snowflake
// ids are time ordered, so item ids grow monotonically within a process.
type Generator struct {
	node *snowflake.Node
}

// NewGenerator creates a Generator for the given snowflake node (0-1023).
func NewGenerator(node int64) (*Generator, error) {
	n, err := snowflake.NewNode(node)
	if err != nil {
		return nil, fmt.Errorf("invoice: snowflake node %d: %w", node, err)
	}
	return &Generator{node: n}, nil
}

// InvoiceID returns a fresh invoice identifier.
func (g *Generator) InvoiceID() string {
	return "INV_" + uuid.NewString()
}

// ItemID returns a fresh line item identifier.
func (g *Generator) ItemID() string {
	return g.node.Generate().String()
}
