package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ignaciocastillo/erp-api/internal/application/dto"
	"github.com/ignaciocastillo/erp-api/internal/domain"
	"github.com/ignaciocastillo/erp-api/internal/domain/entity"
	"github.com/ignaciocastillo/erp-api/internal/domain/repository"
)

// CommitInvoiceUseCase convierte un Draft en una factura persistida con sus
// líneas, en una sola transacción, y dispara el render del documento.
//
// Etapas de una llamada: validación → transacción local → render externo.
// Un fallo antes del commit deja cero escrituras; un fallo de render deja la
// factura registrada y reporta *RenderError. El caller decide el mensaje
// según la etapa que falló.
type CommitInvoiceUseCase struct {
	txRunner     BillingTxRunner
	customerRepo repository.CustomerRepository
	invoiceRepo  repository.InvoiceRepository
	renderer     InvoiceRenderer
	seller       SellerConfig
}

// NewCommitInvoiceUseCase construye el caso de uso.
func NewCommitInvoiceUseCase(
	txRunner BillingTxRunner,
	customerRepo repository.CustomerRepository,
	invoiceRepo repository.InvoiceRepository,
	renderer InvoiceRenderer,
	seller SellerConfig,
) *CommitInvoiceUseCase {
	return &CommitInvoiceUseCase{
		txRunner:     txRunner,
		customerRepo: customerRepo,
		invoiceRepo:  invoiceRepo,
		renderer:     renderer,
		seller:       seller,
	}
}

// BuildDraft arma el carrito a partir del request HTTP. Cada ítem se resuelve
// por ID de producto; si el request trae unit_amount se respeta ese snapshot,
// si no, se toma el precio vigente del catálogo.
func (uc *CommitInvoiceUseCase) BuildDraft(productRepo repository.ProductRepository, items []dto.InvoiceItemRequest) (*Draft, error) {
	draft := NewDraft()
	for _, it := range items {
		product, err := productRepo.GetByID(it.ProductID)
		if err != nil {
			return nil, fmt.Errorf("obtener producto %d: %w", it.ProductID, err)
		}
		if product == nil {
			return nil, domain.ErrNotFound
		}
		if it.UnitAmount == nil {
			err = draft.AddLine(product, it.Quantity)
		} else {
			err = draft.AddLineWithAmount(product, it.Quantity, *it.UnitAmount)
		}
		if err != nil {
			return nil, err
		}
	}
	return draft, nil
}

// CommitInvoice valida el Draft contra el cliente, persiste cabecera y líneas
// en una transacción y luego intenta el render.
//
// Retorna:
//   - (resp, nil)            commit y render OK.
//   - (resp, *RenderError)   commit OK, render falló; resp es válido y la
//     factura quedó registrada con estado ERROR_RENDER.
//   - (nil, err)             nada quedó persistido (validación, cliente o
//     producto inexistente, o fallo de la transacción).
//
// No hay idempotencia: dos llamadas con el mismo Draft producen dos facturas.
// El render se invoca a lo sumo una vez por llamada, sin reintentos.
func (uc *CommitInvoiceUseCase) CommitInvoice(ctx context.Context, customerID int64, draft *Draft) (*dto.InvoiceResponse, error) {
	if draft == nil || draft.Empty() {
		return nil, domain.ErrInvalidInput
	}

	customer, err := uc.customerRepo.GetByID(customerID)
	if err != nil {
		return nil, fmt.Errorf("obtener cliente: %w", err)
	}
	if customer == nil {
		return nil, domain.ErrNotFound
	}

	total := draft.Total()
	now := time.Now()
	inv := &entity.Invoice{
		CustomerID:   customerID,
		Total:        total,
		RenderStatus: entity.RenderStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	var items []*entity.InvoiceLineItem

	err = uc.txRunner.RunBilling(ctx, func(
		productRepo repository.ProductRepository,
		invoiceRepo repository.InvoiceRepository,
	) error {
		// Verificar dentro de la transacción que cada producto del carrito
		// sigue existiendo: un borrado de catálogo concurrente no puede dejar
		// líneas colgantes, debe abortar el commit completo.
		for _, line := range draft.Lines() {
			product, err := productRepo.GetByID(line.ProductID)
			if err != nil {
				return fmt.Errorf("verificar producto %d: %w", line.ProductID, err)
			}
			if product == nil {
				return domain.ErrNotFound
			}
		}

		if err := invoiceRepo.Create(inv); err != nil {
			return err
		}
		for _, line := range draft.Lines() {
			productID := line.ProductID
			item := &entity.InvoiceLineItem{
				InvoiceID:   inv.ID,
				ProductID:   &productID,
				ProductName: line.Name,
				Category:    line.Category,
				Quantity:    line.Quantity,
				UnitAmount:  line.UnitAmount,
			}
			if err := invoiceRepo.CreateLineItem(item); err != nil {
				return err
			}
			items = append(items, item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := uc.toResponse(inv, customer.Name, items)

	// Render post-commit, best-effort: pase lo que pase aquí la factura ya
	// quedó registrada.
	document, renderErr := uc.renderer.Render(ctx, uc.buildRenderRequest(inv, customer, draft.Lines()))
	if renderErr != nil {
		inv.RenderStatus = entity.RenderStatusError
		var re *RenderError
		if errors.As(renderErr, &re) {
			inv.RenderError = re.Error()
		} else {
			inv.RenderError = renderErr.Error()
		}
		inv.UpdatedAt = time.Now()
		// Si además falla el update de estado, el error de render sigue
		// siendo el que se reporta; el estado queda PENDIENTE.
		if updErr := uc.invoiceRepo.UpdateRenderResult(inv); updErr != nil {
			log.Warn().Err(updErr).Int64("invoice_id", inv.ID).
				Msg("no se pudo registrar el estado de render de la factura")
		}
		resp.RenderStatus = inv.RenderStatus
		resp.RenderError = inv.RenderError
		return resp, renderErr
	}

	inv.Document = document
	inv.RenderStatus = entity.RenderStatusDone
	inv.UpdatedAt = time.Now()
	if err := uc.invoiceRepo.UpdateRenderResult(inv); err != nil {
		// El documento se generó pero no se pudo almacenar; la factura es
		// válida igual. Se reporta como fallo de render para que el caller
		// sepa que no hay documento descargable.
		resp.RenderStatus = entity.RenderStatusError
		resp.RenderError = err.Error()
		return resp, &RenderError{Err: fmt.Errorf("almacenar documento: %w", err)}
	}
	resp.RenderStatus = inv.RenderStatus
	return resp, nil
}

func (uc *CommitInvoiceUseCase) buildRenderRequest(inv *entity.Invoice, customer *entity.Customer, lines []DraftLine) *RenderRequest {
	items := make([]RenderItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, RenderItem{
			Name:     l.Name,
			Quantity: l.Quantity,
			UnitCost: l.UnitAmount,
		})
	}
	to := customer.Name
	if customer.Email != "" {
		to += "\n" + customer.Email
	}
	return &RenderRequest{
		From:     uc.seller.From,
		To:       to,
		Logo:     uc.seller.Logo,
		Number:   inv.ID,
		Items:    items,
		Notes:    uc.seller.Notes,
		Currency: uc.seller.Currency,
	}
}

func (uc *CommitInvoiceUseCase) toResponse(inv *entity.Invoice, customerName string, items []*entity.InvoiceLineItem) *dto.InvoiceResponse {
	resp := &dto.InvoiceResponse{
		ID:           inv.ID,
		CustomerID:   inv.CustomerID,
		CustomerName: customerName,
		Total:        inv.Total,
		RenderStatus: inv.RenderStatus,
		RenderError:  inv.RenderError,
		CreatedAt:    inv.CreatedAt.Format("2006-01-02"),
		Items:        make([]dto.InvoiceLineItemResponse, 0, len(items)),
	}
	for _, it := range items {
		resp.Items = append(resp.Items, dto.InvoiceLineItemResponse{
			ID:          it.ID,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Category:    it.Category,
			Quantity:    it.Quantity,
			UnitAmount:  it.UnitAmount,
			Subtotal:    it.Subtotal(),
		})
	}
	return resp
}

// GetInvoice obtiene una factura por ID con su detalle completo.
func (uc *CommitInvoiceUseCase) GetInvoice(ctx context.Context, id int64) (*dto.InvoiceResponse, error) {
	inv, err := uc.invoiceRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	items, err := uc.invoiceRepo.GetLineItemsByInvoiceID(id)
	if err != nil {
		return nil, err
	}
	customerName := ""
	if customer, _ := uc.customerRepo.GetByID(inv.CustomerID); customer != nil {
		customerName = customer.Name
	}
	return uc.toResponse(inv, customerName, items), nil
}

// GetDocument devuelve los bytes del PDF almacenado de la factura.
// Retorna ErrNotFound si la factura no existe o si aún no tiene documento.
func (uc *CommitInvoiceUseCase) GetDocument(ctx context.Context, id int64) ([]byte, string, error) {
	inv, err := uc.invoiceRepo.GetByID(id)
	if err != nil {
		return nil, "", err
	}
	if inv == nil || len(inv.Document) == 0 {
		return nil, "", domain.ErrNotFound
	}
	filename := fmt.Sprintf("factura_%d.pdf", inv.ID)
	return inv.Document, filename, nil
}

// ListByCustomer lista las facturas de un cliente (sin detalle).
func (uc *CommitInvoiceUseCase) ListByCustomer(ctx context.Context, customerID int64, limit, offset int) ([]*dto.InvoiceResponse, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	list, err := uc.invoiceRepo.ListByCustomer(customerID, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.InvoiceResponse, 0, len(list))
	for _, inv := range list {
		out = append(out, &dto.InvoiceResponse{
			ID:           inv.ID,
			CustomerID:   inv.CustomerID,
			Total:        inv.Total,
			RenderStatus: inv.RenderStatus,
			CreatedAt:    inv.CreatedAt.Format("2006-01-02"),
			Items:        []dto.InvoiceLineItemResponse{},
		})
	}
	return out, nil
}
