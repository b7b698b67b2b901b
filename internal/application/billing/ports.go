package billing

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ignaciocastillo/erp-api/internal/domain/repository"
)

// BillingTxRunner ejecuta una función dentro de una transacción que incluye
// los repos de catálogo y facturación. Si fn retorna error se hace rollback:
// no queda ni cabecera ni líneas (atomicidad del commit).
type BillingTxRunner interface {
	RunBilling(ctx context.Context, fn func(
		productRepo repository.ProductRepository,
		invoiceRepo repository.InvoiceRepository,
	) error) error
}

// RenderItem línea del payload enviado al servicio de render.
type RenderItem struct {
	Name     string          `json:"name"`
	Quantity int64           `json:"quantity"`
	UnitCost decimal.Decimal `json:"unit_cost"`
}

// RenderRequest payload del servicio externo de render de facturas.
type RenderRequest struct {
	From     string       `json:"from"`
	To       string       `json:"to"`
	Logo     string       `json:"logo,omitempty"`
	Number   int64        `json:"number"`
	Items    []RenderItem `json:"items"`
	Notes    string       `json:"notes,omitempty"`
	Currency string       `json:"currency"`
}

// InvoiceRenderer define el puerto de salida hacia el servicio de render.
// La implementación concreta usa HTTP; para tests se inyecta un fake.
type InvoiceRenderer interface {
	// Render envía la factura y devuelve los bytes del PDF.
	// Un fallo (estado no-200, transporte, timeout) retorna *RenderError.
	Render(ctx context.Context, req *RenderRequest) ([]byte, error)
}

// RenderError fallo del servicio de render. El commit local NO se revierte
// ante este error: el registro contable es autoritativo y el documento es
// best-effort. StatusCode es 0 cuando el fallo fue de transporte o timeout.
type RenderError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *RenderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("render de factura: %v", e.Err)
	}
	return fmt.Sprintf("render de factura: estado %d: %s", e.StatusCode, e.Body)
}

func (e *RenderError) Unwrap() error { return e.Err }

// SellerConfig identidad del emisor y parámetros del documento rendereado.
// Viene de configuración: nunca se incrusta en código.
type SellerConfig struct {
	From     string // razón social del emisor
	Logo     string // URL del logo (opcional)
	Notes    string // nota al pie del documento
	Currency string // código de moneda, ej. CRC
}
