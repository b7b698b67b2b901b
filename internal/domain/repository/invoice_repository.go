package repository

import "github.com/ignaciocastillo/erp-api/internal/domain/entity"

// InvoiceRepository define el puerto de persistencia para Invoice y líneas.
type InvoiceRepository interface {
	// Create persiste la cabecera y asigna el ID generado por la base.
	Create(invoice *entity.Invoice) error
	// CreateLineItem persiste una línea y asigna su ID.
	CreateLineItem(item *entity.InvoiceLineItem) error
	GetByID(id int64) (*entity.Invoice, error)
	GetLineItemsByInvoiceID(invoiceID int64) ([]*entity.InvoiceLineItem, error)
	ListByCustomer(customerID int64, limit, offset int) ([]*entity.Invoice, error)
	// UpdateRenderResult actualiza estado de render, detalle de error y el
	// documento almacenado. No toca customer_id ni total: la factura es
	// inmutable después del commit.
	UpdateRenderResult(invoice *entity.Invoice) error
	// CountByCustomer cuenta facturas del cliente (para la política RESTRICT
	// al eliminar clientes).
	CountByCustomer(customerID int64) (int64, error)
}
