package dto

import "github.com/shopspring/decimal"

// CreateInvoiceRequest body para POST /api/invoices.
// El cliente (front) es dueño del carrito de la sesión y lo envía completo.
type CreateInvoiceRequest struct {
	CustomerID int64                `json:"customer_id"`
	Items      []InvoiceItemRequest `json:"items"`
}

// InvoiceItemRequest línea propuesta de factura.
// UnitAmount es el snapshot del precio tomado al agregar la línea al carrito;
// si va en nil se usa el precio vigente del catálogo. Es puntero porque un
// snapshot de 0.00 (producto de cortesía) es un valor legítimo, distinto de
// "sin snapshot".
type InvoiceItemRequest struct {
	ProductID  int64            `json:"product_id"`
	Quantity   int64            `json:"quantity"`
	UnitAmount *decimal.Decimal `json:"unit_amount,omitempty"`
}

// InvoiceResponse factura con detalle.
// RenderStatus/RenderError permiten al caller distinguir un fallo de render
// (la factura quedó registrada) de un fallo de persistencia (no hay factura).
type InvoiceResponse struct {
	ID           int64                     `json:"id"`
	CustomerID   int64                     `json:"customer_id"`
	CustomerName string                    `json:"customer_name,omitempty"`
	Total        decimal.Decimal           `json:"total"`
	RenderStatus string                    `json:"render_status"`
	RenderError  string                    `json:"render_error,omitempty"`
	CreatedAt    string                    `json:"created_at"`
	Items        []InvoiceLineItemResponse `json:"items"`
}

// InvoiceLineItemResponse línea de factura en la respuesta.
type InvoiceLineItemResponse struct {
	ID          int64           `json:"id"`
	ProductID   *int64          `json:"product_id,omitempty"` // nil si el producto ya no existe
	ProductName string          `json:"product_name"`
	Category    string          `json:"category"`
	Quantity    int64           `json:"quantity"`
	UnitAmount  decimal.Decimal `json:"unit_amount"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}
