package repository

import "github.com/ignaciocastillo/erp-api/internal/domain/entity"

// CustomerRepository define el puerto de persistencia para Customer.
type CustomerRepository interface {
	Create(customer *entity.Customer) error
	GetByID(id int64) (*entity.Customer, error)
	List(limit, offset int) ([]*entity.Customer, error)
	// ListSegments devuelve los segmentos de negocio distintos registrados
	// (para sugerencias en el alta de clientes).
	ListSegments() ([]string, error)
	Update(customer *entity.Customer) error
	Delete(id int64) error
}
