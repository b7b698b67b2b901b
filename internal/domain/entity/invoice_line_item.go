package entity

import "github.com/shopspring/decimal"

// InvoiceLineItem representa una línea de una factura.
// ProductName, Category y UnitAmount son snapshots tomados al agregar la
// línea al carrito: si el producto se elimina del catálogo (ProductID queda
// en nil por SET NULL), la línea histórica sigue siendo legible completa.
type InvoiceLineItem struct {
	ID          int64
	InvoiceID   int64
	ProductID   *int64 // nil si el producto fue eliminado del catálogo
	ProductName string
	Category    string
	Quantity    int64           // estrictamente positiva
	UnitAmount  decimal.Decimal // precio unitario al momento de la venta
}

// Subtotal devuelve cantidad × precio unitario con aritmética decimal exacta.
func (li *InvoiceLineItem) Subtotal() decimal.Decimal {
	return li.UnitAmount.Mul(decimal.NewFromInt(li.Quantity))
}
