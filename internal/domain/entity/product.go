package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un artículo del catálogo.
// Price es el precio de venta vigente; las facturas guardan una copia
// (snapshot) del precio al momento de agregar la línea, por lo que cambios
// posteriores no afectan facturas históricas.
type Product struct {
	ID        int64
	Name      string
	Category  string
	Price     decimal.Decimal // precio de venta, nunca negativo
	CreatedAt time.Time
	UpdatedAt time.Time
}
