package billing

import (
	"github.com/shopspring/decimal"

	"github.com/ignaciocastillo/erp-api/internal/domain"
	"github.com/ignaciocastillo/erp-api/internal/domain/entity"
)

// DraftLine es una línea propuesta del carrito. Todos los campos son
// snapshots tomados al agregar la línea: cambios posteriores en el catálogo
// no la alteran. Se guarda el ID estable del producto, no el nombre, para
// que el commit no dependa de una re-búsqueda por nombre.
type DraftLine struct {
	ProductID  int64
	Name       string
	Category   string
	UnitAmount decimal.Decimal
	Quantity   int64
}

// Subtotal devuelve cantidad × precio unitario (aritmética decimal exacta).
func (l DraftLine) Subtotal() decimal.Decimal {
	return l.UnitAmount.Mul(decimal.NewFromInt(l.Quantity))
}

// Draft es el carrito en memoria de una factura en curso: secuencia ordenada
// de líneas propuestas para un cliente. Es transitorio (nunca se persiste),
// pertenece en exclusiva a la sesión que lo construye y se pasa explícito al
// caso de uso de commit; no hay estado ambiente.
//
// No se deduplican líneas: agregar dos veces el mismo producto produce dos
// líneas independientes.
type Draft struct {
	lines []DraftLine
}

// NewDraft crea un carrito vacío.
func NewDraft() *Draft {
	return &Draft{}
}

// AddLine agrega una línea con el precio vigente del producto como snapshot.
func (d *Draft) AddLine(product *entity.Product, quantity int64) error {
	if product == nil {
		return domain.ErrInvalidInput
	}
	return d.addLine(product, quantity, product.Price)
}

// AddLineWithAmount agrega una línea con un snapshot de precio explícito
// (el precio que el producto tenía cuando el cliente lo agregó al carrito,
// que puede diferir del precio vigente).
func (d *Draft) AddLineWithAmount(product *entity.Product, quantity int64, unitAmount decimal.Decimal) error {
	if product == nil {
		return domain.ErrInvalidInput
	}
	return d.addLine(product, quantity, unitAmount)
}

func (d *Draft) addLine(product *entity.Product, quantity int64, unitAmount decimal.Decimal) error {
	if quantity < 1 {
		return domain.ErrInvalidInput
	}
	if unitAmount.IsNegative() {
		return domain.ErrInvalidInput
	}
	d.lines = append(d.lines, DraftLine{
		ProductID:  product.ID,
		Name:       product.Name,
		Category:   product.Category,
		UnitAmount: unitAmount,
		Quantity:   quantity,
	})
	return nil
}

// Lines devuelve las líneas en orden de inserción.
func (d *Draft) Lines() []DraftLine {
	return d.lines
}

// Empty indica si el carrito no tiene líneas.
func (d *Draft) Empty() bool {
	return len(d.lines) == 0
}

// Total devuelve Σ (cantidad × precio unitario) con decimales exactos.
func (d *Draft) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range d.lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// Clear vacía el carrito. Se llama tras cada intento de commit, haya
// funcionado o no el render.
func (d *Draft) Clear() {
	d.lines = nil
}
