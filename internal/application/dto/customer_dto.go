package dto

// CreateCustomerRequest body para POST /api/customers.
type CreateCustomerRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Segment string `json:"segment"`
}

// UpdateCustomerRequest body para PUT /api/customers/:id.
// Campos nil se dejan sin modificar.
type UpdateCustomerRequest struct {
	Name    *string `json:"name,omitempty"`
	Email   *string `json:"email,omitempty"`
	Segment *string `json:"segment,omitempty"`
}

// CustomerResponse cliente en respuestas.
type CustomerResponse struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Segment string `json:"segment"`
}
