package entity

import "time"

// Customer representa un cliente de la empresa (facturación).
// Segment agrupa clientes por segmento de negocio (texto libre; se usa
// para sugerencias al registrar clientes nuevos).
type Customer struct {
	ID        int64
	Name      string
	Email     string
	Segment   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
