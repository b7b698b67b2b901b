package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ignaciocastillo/erp-api/internal/domain/entity"
	"github.com/ignaciocastillo/erp-api/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

// InvoiceRepo implementación de InvoiceRepository (usable con pool o tx).
type InvoiceRepo struct {
	q Querier
}

// NewInvoiceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInvoiceRepository(q Querier) *InvoiceRepo {
	return &InvoiceRepo{q: q}
}

// Create persiste la cabecera de la factura y asigna el ID generado.
func (r *InvoiceRepo) Create(invoice *entity.Invoice) error {
	query := `
		INSERT INTO invoices (customer_id, total, render_status, render_error, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	err := r.q.QueryRow(context.Background(), query,
		invoice.CustomerID, invoice.Total, invoice.RenderStatus, invoice.RenderError,
		invoice.CreatedAt, invoice.UpdatedAt,
	).Scan(&invoice.ID)
	if err != nil {
		return fmt.Errorf("insert invoice: %w", err)
	}
	return nil
}

// CreateLineItem persiste una línea de factura y asigna su ID.
func (r *InvoiceRepo) CreateLineItem(item *entity.InvoiceLineItem) error {
	query := `
		INSERT INTO invoice_line_items (invoice_id, product_id, product_name, category, quantity, unit_amount)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	err := r.q.QueryRow(context.Background(), query,
		item.InvoiceID, item.ProductID, item.ProductName, item.Category, item.Quantity, item.UnitAmount,
	).Scan(&item.ID)
	if err != nil {
		return fmt.Errorf("insert invoice line item: %w", err)
	}
	return nil
}

// GetByID obtiene una factura completa por ID (incluye el documento).
func (r *InvoiceRepo) GetByID(id int64) (*entity.Invoice, error) {
	query := `
		SELECT id, customer_id, total, render_status, render_error, document, created_at, updated_at
		FROM invoices WHERE id = $1`
	var inv entity.Invoice
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&inv.ID, &inv.CustomerID, &inv.Total, &inv.RenderStatus, &inv.RenderError,
		&inv.Document, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	return &inv, nil
}

// GetLineItemsByInvoiceID obtiene las líneas de una factura en orden de inserción.
func (r *InvoiceRepo) GetLineItemsByInvoiceID(invoiceID int64) ([]*entity.InvoiceLineItem, error) {
	query := `
		SELECT id, invoice_id, product_id, product_name, category, quantity, unit_amount
		FROM invoice_line_items WHERE invoice_id = $1 ORDER BY id`
	rows, err := r.q.Query(context.Background(), query, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("list invoice line items: %w", err)
	}
	defer rows.Close()
	var items []*entity.InvoiceLineItem
	for rows.Next() {
		var it entity.InvoiceLineItem
		if err := rows.Scan(&it.ID, &it.InvoiceID, &it.ProductID, &it.ProductName, &it.Category, &it.Quantity, &it.UnitAmount); err != nil {
			return nil, fmt.Errorf("scan invoice line item: %w", err)
		}
		items = append(items, &it)
	}
	return items, rows.Err()
}

// ListByCustomer lista facturas de un cliente (sin documento, más reciente primero).
func (r *InvoiceRepo) ListByCustomer(customerID int64, limit, offset int) ([]*entity.Invoice, error) {
	query := `
		SELECT id, customer_id, total, render_status, render_error, created_at, updated_at
		FROM invoices WHERE customer_id = $1 ORDER BY id DESC LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(context.Background(), query, customerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()
	var list []*entity.Invoice
	for rows.Next() {
		var inv entity.Invoice
		if err := rows.Scan(&inv.ID, &inv.CustomerID, &inv.Total, &inv.RenderStatus, &inv.RenderError, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		list = append(list, &inv)
	}
	return list, rows.Err()
}

// UpdateRenderResult actualiza estado de render, detalle y documento.
// No toca customer_id ni total: la factura es inmutable tras el commit.
func (r *InvoiceRepo) UpdateRenderResult(invoice *entity.Invoice) error {
	query := `
		UPDATE invoices
		SET render_status = $2,
		    render_error  = $3,
		    document      = $4,
		    updated_at    = $5
		WHERE id = $1`
	_, err := r.q.Exec(context.Background(), query,
		invoice.ID, invoice.RenderStatus, invoice.RenderError, invoice.Document, invoice.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update invoice render result: %w", err)
	}
	return nil
}

// CountByCustomer cuenta facturas del cliente.
func (r *InvoiceRepo) CountByCustomer(customerID int64) (int64, error) {
	var count int64
	err := r.q.QueryRow(context.Background(),
		`SELECT COUNT(*) FROM invoices WHERE customer_id = $1`, customerID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count invoices: %w", err)
	}
	return count, nil
}
