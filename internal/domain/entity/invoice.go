package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de la representación gráfica (PDF) de la factura.
// La factura queda registrada aunque el render falle: el registro contable
// es autoritativo y el documento es best-effort.
const (
	RenderStatusPending = "PENDIENTE"    // Factura guardada, render en curso
	RenderStatusDone    = "GENERADO"     // PDF generado y almacenado
	RenderStatusError   = "ERROR_RENDER" // El servicio de render falló; ver RenderError
)

// Invoice representa la cabecera de una factura. Inmutable tras su creación
// salvo los campos de render, que se actualizan después del commit local.
type Invoice struct {
	ID           int64
	CustomerID   int64
	Total        decimal.Decimal // suma de las líneas al momento del commit
	RenderStatus string
	RenderError  string // detalle del fallo de render (vacío si OK)
	Document     []byte // PDF almacenado (nil si aún no se genera)
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
