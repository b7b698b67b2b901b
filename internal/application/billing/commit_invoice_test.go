package billing_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignaciocastillo/erp-api/internal/application/billing"
	"github.com/ignaciocastillo/erp-api/internal/application/dto"
	"github.com/ignaciocastillo/erp-api/internal/domain"
	"github.com/ignaciocastillo/erp-api/internal/domain/entity"
	"github.com/ignaciocastillo/erp-api/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes en memoria de los puertos del caso de uso. El fake de transacción
// toma un snapshot antes de ejecutar fn y lo restaura si fn falla, imitando
// el rollback real: un commit fallido no deja ni cabecera ni líneas.
// ──────────────────────────────────────────────────────────────────────────────

type fakeProductRepo struct {
	products map[int64]*entity.Product
}

func (f *fakeProductRepo) Create(p *entity.Product) error { f.products[p.ID] = p; return nil }
func (f *fakeProductRepo) GetByID(id int64) (*entity.Product, error) {
	return f.products[id], nil
}
func (f *fakeProductRepo) List(limit, offset int) ([]*entity.Product, error) { return nil, nil }
func (f *fakeProductRepo) Delete(id int64) error                             { delete(f.products, id); return nil }

type fakeCustomerRepo struct {
	nextID    int64
	customers map[int64]*entity.Customer
}

func (f *fakeCustomerRepo) Create(c *entity.Customer) error {
	f.nextID++
	c.ID = f.nextID
	f.customers[c.ID] = c
	return nil
}

func (f *fakeCustomerRepo) GetByID(id int64) (*entity.Customer, error) {
	return f.customers[id], nil
}

func (f *fakeCustomerRepo) List(limit, offset int) ([]*entity.Customer, error) {
	var out []*entity.Customer
	for _, c := range f.customers {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeCustomerRepo) ListSegments() ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, c := range f.customers {
		if !seen[c.Segment] {
			seen[c.Segment] = true
			out = append(out, c.Segment)
		}
	}
	return out, nil
}

func (f *fakeCustomerRepo) Update(c *entity.Customer) error {
	f.customers[c.ID] = c
	return nil
}

func (f *fakeCustomerRepo) Delete(id int64) error {
	delete(f.customers, id)
	return nil
}

type fakeInvoiceRepo struct {
	nextInvoiceID int64
	nextItemID    int64
	invoices      map[int64]*entity.Invoice
	items         []*entity.InvoiceLineItem
	updateErr     error
}

func newFakeInvoiceRepo() *fakeInvoiceRepo {
	return &fakeInvoiceRepo{invoices: map[int64]*entity.Invoice{}}
}

func (f *fakeInvoiceRepo) Create(inv *entity.Invoice) error {
	f.nextInvoiceID++
	inv.ID = f.nextInvoiceID
	cp := *inv
	f.invoices[inv.ID] = &cp
	return nil
}

func (f *fakeInvoiceRepo) CreateLineItem(item *entity.InvoiceLineItem) error {
	f.nextItemID++
	item.ID = f.nextItemID
	cp := *item
	f.items = append(f.items, &cp)
	return nil
}

func (f *fakeInvoiceRepo) GetByID(id int64) (*entity.Invoice, error) {
	return f.invoices[id], nil
}

func (f *fakeInvoiceRepo) GetLineItemsByInvoiceID(invoiceID int64) ([]*entity.InvoiceLineItem, error) {
	var out []*entity.InvoiceLineItem
	for _, it := range f.items {
		if it.InvoiceID == invoiceID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (f *fakeInvoiceRepo) ListByCustomer(customerID int64, limit, offset int) ([]*entity.Invoice, error) {
	var out []*entity.Invoice
	for _, inv := range f.invoices {
		if inv.CustomerID == customerID {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (f *fakeInvoiceRepo) UpdateRenderResult(inv *entity.Invoice) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	stored, ok := f.invoices[inv.ID]
	if !ok {
		return domain.ErrNotFound
	}
	stored.RenderStatus = inv.RenderStatus
	stored.RenderError = inv.RenderError
	stored.Document = inv.Document
	stored.UpdatedAt = inv.UpdatedAt
	return nil
}

func (f *fakeInvoiceRepo) CountByCustomer(customerID int64) (int64, error) {
	var n int64
	for _, inv := range f.invoices {
		if inv.CustomerID == customerID {
			n++
		}
	}
	return n, nil
}

type fakeTxRunner struct {
	productRepo *fakeProductRepo
	invoiceRepo *fakeInvoiceRepo
}

func (f *fakeTxRunner) RunBilling(ctx context.Context, fn func(repository.ProductRepository, repository.InvoiceRepository) error) error {
	// Snapshot para simular rollback.
	prevInvoiceID := f.invoiceRepo.nextInvoiceID
	prevItemID := f.invoiceRepo.nextItemID
	prevInvoices := map[int64]*entity.Invoice{}
	for k, v := range f.invoiceRepo.invoices {
		prevInvoices[k] = v
	}
	prevItems := append([]*entity.InvoiceLineItem(nil), f.invoiceRepo.items...)

	if err := fn(f.productRepo, f.invoiceRepo); err != nil {
		f.invoiceRepo.nextInvoiceID = prevInvoiceID
		f.invoiceRepo.nextItemID = prevItemID
		f.invoiceRepo.invoices = prevInvoices
		f.invoiceRepo.items = prevItems
		return err
	}
	return nil
}

type fakeRenderer struct {
	document []byte
	err      error
	calls    int
	lastReq  *billing.RenderRequest
}

func (f *fakeRenderer) Render(ctx context.Context, req *billing.RenderRequest) ([]byte, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.document, nil
}

// ── Arnés ─────────────────────────────────────────────────────────────────────

type testEnv struct {
	uc           *billing.CommitInvoiceUseCase
	productRepo  *fakeProductRepo
	customerRepo *fakeCustomerRepo
	invoiceRepo  *fakeInvoiceRepo
	renderer     *fakeRenderer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	productRepo := &fakeProductRepo{products: map[int64]*entity.Product{
		1: productoTest(1, "Laptop HP", "Cómputo", "87000.00"),
		2: productoTest(2, "Monitor 24\"", "Cómputo", "29000.00"),
		3: productoTest(3, "Teclado", "Accesorios", "3500.00"),
	}}
	customerRepo := &fakeCustomerRepo{nextID: 10, customers: map[int64]*entity.Customer{
		10: {ID: 10, Name: "Ferretería El Tornillo", Email: "compras@eltornillo.cr", Segment: "ferreterías"},
	}}
	invoiceRepo := newFakeInvoiceRepo()
	renderer := &fakeRenderer{document: []byte("%PDF-1.7 fake")}
	uc := billing.NewCommitInvoiceUseCase(
		&fakeTxRunner{productRepo: productRepo, invoiceRepo: invoiceRepo},
		customerRepo,
		invoiceRepo,
		renderer,
		billing.SellerConfig{From: "Mi Empresa S.A.", Notes: "Gracias por su compra", Currency: "CRC"},
	)
	return &testEnv{uc: uc, productRepo: productRepo, customerRepo: customerRepo, invoiceRepo: invoiceRepo, renderer: renderer}
}

func (e *testEnv) draftCompleto(t *testing.T) *billing.Draft {
	t.Helper()
	draft, err := e.uc.BuildDraft(e.productRepo, []dto.InvoiceItemRequest{
		{ProductID: 1, Quantity: 2},
		{ProductID: 2, Quantity: 1},
		{ProductID: 3, Quantity: 4},
	})
	require.NoError(t, err)
	return draft
}

// ──────────────────────────────────────────────────────────────────────────────
// BuildDraft
// ──────────────────────────────────────────────────────────────────────────────

func TestBuildDraft_ProductoInexistente(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.uc.BuildDraft(env.productRepo, []dto.InvoiceItemRequest{
		{ProductID: 999, Quantity: 1},
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// snapshotPrecio arma el puntero de unit_amount del request.
func snapshotPrecio(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestBuildDraft_RespetaSnapshotDePrecio(t *testing.T) {
	env := newTestEnv(t)
	// El cliente agregó la laptop cuando valía 80000; el catálogo ya dice 87000.
	draft, err := env.uc.BuildDraft(env.productRepo, []dto.InvoiceItemRequest{
		{ProductID: 1, Quantity: 1, UnitAmount: snapshotPrecio("80000.00")},
	})
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("80000.00").Equal(draft.Total()),
		"el unit_amount del request manda sobre el precio vigente")
}

// TestBuildDraft_SnapshotCeroNoSeRepreciaConElCatalogo: un snapshot explícito
// de 0.00 (producto de cortesía agregado cuando costaba cero) es un valor
// legítimo y no debe sustituirse por el precio vigente del catálogo.
func TestBuildDraft_SnapshotCeroNoSeRepreciaConElCatalogo(t *testing.T) {
	env := newTestEnv(t)
	// El producto costaba 0.00 cuando entró al carrito; hoy el catálogo lo
	// vende a 5000.00.
	env.productRepo.products[1].Price = decimal.RequireFromString("5000.00")

	draft, err := env.uc.BuildDraft(env.productRepo, []dto.InvoiceItemRequest{
		{ProductID: 1, Quantity: 1, UnitAmount: snapshotPrecio("0.00")},
	})

	require.NoError(t, err)
	assert.True(t, draft.Total().IsZero(),
		"el snapshot 0.00 debe respetarse, got %s", draft.Total())
}

func TestBuildDraft_SinSnapshotUsaPrecioVigente(t *testing.T) {
	env := newTestEnv(t)
	draft, err := env.uc.BuildDraft(env.productRepo, []dto.InvoiceItemRequest{
		{ProductID: 3, Quantity: 2},
	})
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("7000.00").Equal(draft.Total()))
}

// ──────────────────────────────────────────────────────────────────────────────
// CommitInvoice — validación previa: cero escrituras
// ──────────────────────────────────────────────────────────────────────────────

func TestCommitInvoice_CarritoVacioRechazado(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.uc.CommitInvoice(context.Background(), 10, billing.NewDraft())

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, resp)
	assert.Empty(t, env.invoiceRepo.invoices, "un carrito vacío no debe producir escrituras")
	assert.Zero(t, env.renderer.calls, "no debe invocarse el render")
}

func TestCommitInvoice_DraftNilRechazado(t *testing.T) {
	env := newTestEnv(t)
	resp, err := env.uc.CommitInvoice(context.Background(), 10, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, resp)
}

func TestCommitInvoice_ClienteInexistente(t *testing.T) {
	env := newTestEnv(t)
	draft := env.draftCompleto(t)

	resp, err := env.uc.CommitInvoice(context.Background(), 999, draft)

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Nil(t, resp)
	assert.Empty(t, env.invoiceRepo.invoices)
	assert.Empty(t, env.invoiceRepo.items)
	assert.Zero(t, env.renderer.calls)
}

// TestCommitInvoice_ProductoBorradoDuranteCommit: un borrado de catálogo entre
// armar el carrito y el commit aborta la transacción completa.
func TestCommitInvoice_ProductoBorradoDuranteCommit(t *testing.T) {
	env := newTestEnv(t)
	draft := env.draftCompleto(t)
	require.NoError(t, env.productRepo.Delete(2))

	resp, err := env.uc.CommitInvoice(context.Background(), 10, draft)

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Nil(t, resp)
	assert.Empty(t, env.invoiceRepo.invoices, "el rollback no debe dejar cabecera")
	assert.Empty(t, env.invoiceRepo.items, "el rollback no debe dejar líneas")
	assert.Zero(t, env.renderer.calls)
}

// ──────────────────────────────────────────────────────────────────────────────
// CommitInvoice — camino feliz
// ──────────────────────────────────────────────────────────────────────────────

func TestCommitInvoice_Exito(t *testing.T) {
	env := newTestEnv(t)
	draft := env.draftCompleto(t)

	resp, err := env.uc.CommitInvoice(context.Background(), 10, draft)

	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, int64(1), resp.ID)
	assert.Equal(t, int64(10), resp.CustomerID)
	assert.Equal(t, "Ferretería El Tornillo", resp.CustomerName)
	assert.True(t, decimal.RequireFromString("217000.00").Equal(resp.Total),
		"el total persistido debe ser la suma decimal exacta, got %s", resp.Total)
	assert.Equal(t, entity.RenderStatusDone, resp.RenderStatus)
	assert.Len(t, resp.Items, 3)

	// El documento quedó almacenado con la factura.
	stored := env.invoiceRepo.invoices[1]
	require.NotNil(t, stored)
	assert.Equal(t, entity.RenderStatusDone, stored.RenderStatus)
	assert.Equal(t, []byte("%PDF-1.7 fake"), stored.Document)
	assert.Equal(t, 1, env.renderer.calls, "el render se invoca exactamente una vez")
	assert.Len(t, env.invoiceRepo.items, 3)
}

func TestCommitInvoice_PayloadDeRender(t *testing.T) {
	env := newTestEnv(t)
	draft := env.draftCompleto(t)

	_, err := env.uc.CommitInvoice(context.Background(), 10, draft)
	require.NoError(t, err)

	req := env.renderer.lastReq
	require.NotNil(t, req)
	assert.Equal(t, "Mi Empresa S.A.", req.From)
	assert.Contains(t, req.To, "Ferretería El Tornillo")
	assert.Contains(t, req.To, "compras@eltornillo.cr")
	assert.Equal(t, int64(1), req.Number, "el número del documento es el ID de la factura")
	assert.Equal(t, "CRC", req.Currency)
	require.Len(t, req.Items, 3)
	assert.Equal(t, "Laptop HP", req.Items[0].Name)
	assert.Equal(t, int64(2), req.Items[0].Quantity)
	assert.True(t, decimal.RequireFromString("87000.00").Equal(req.Items[0].UnitCost))
}

// TestCommitInvoice_SinIdempotencia: dos commits con el mismo carrito
// producen dos facturas independientes.
func TestCommitInvoice_SinIdempotencia(t *testing.T) {
	env := newTestEnv(t)
	draft := env.draftCompleto(t)

	r1, err := env.uc.CommitInvoice(context.Background(), 10, draft)
	require.NoError(t, err)
	r2, err := env.uc.CommitInvoice(context.Background(), 10, draft)
	require.NoError(t, err)

	assert.NotEqual(t, r1.ID, r2.ID)
	assert.Len(t, env.invoiceRepo.invoices, 2)
	assert.Equal(t, 2, env.renderer.calls)
}

// ──────────────────────────────────────────────────────────────────────────────
// CommitInvoice — fallo de render: la factura queda firme
// ──────────────────────────────────────────────────────────────────────────────

func TestCommitInvoice_RenderFalla_FacturaPersistida(t *testing.T) {
	env := newTestEnv(t)
	env.renderer.err = &billing.RenderError{StatusCode: 500, Body: "upstream down"}
	draft := env.draftCompleto(t)

	resp, err := env.uc.CommitInvoice(context.Background(), 10, draft)

	var renderErr *billing.RenderError
	require.ErrorAs(t, err, &renderErr, "el fallo de render debe reportarse tipado")
	assert.Equal(t, 500, renderErr.StatusCode)

	// La respuesta NO es nil: la factura quedó registrada.
	require.NotNil(t, resp)
	assert.Equal(t, entity.RenderStatusError, resp.RenderStatus)
	assert.NotEmpty(t, resp.RenderError)
	assert.True(t, decimal.RequireFromString("217000.00").Equal(resp.Total))

	stored := env.invoiceRepo.invoices[resp.ID]
	require.NotNil(t, stored, "la factura debe sobrevivir al fallo de render")
	assert.Equal(t, entity.RenderStatusError, stored.RenderStatus)
	assert.Empty(t, stored.Document, "no debe haber documento almacenado")
	assert.Len(t, env.invoiceRepo.items, 3, "las líneas también quedan firmes")
}

// Si tras el fallo de render también falla el update de estado, el error de
// render sigue siendo el que se reporta y la factura sigue registrada (queda
// PENDIENTE en la base, el caller ve ERROR_RENDER).
func TestCommitInvoice_RenderYUpdateFallan_SeReportaElRender(t *testing.T) {
	env := newTestEnv(t)
	env.renderer.err = &billing.RenderError{StatusCode: 500, Body: "upstream down"}
	env.invoiceRepo.updateErr = domain.ErrInvalidInput
	draft := env.draftCompleto(t)

	resp, err := env.uc.CommitInvoice(context.Background(), 10, draft)

	var renderErr *billing.RenderError
	require.ErrorAs(t, err, &renderErr)
	assert.Equal(t, 500, renderErr.StatusCode)
	require.NotNil(t, resp)
	assert.Equal(t, entity.RenderStatusError, resp.RenderStatus)

	stored := env.invoiceRepo.invoices[resp.ID]
	require.NotNil(t, stored, "la factura sigue registrada")
	assert.Equal(t, entity.RenderStatusPending, stored.RenderStatus,
		"sin update, la fila conserva el estado inicial")
}

func TestCommitInvoice_RenderTimeout_FacturaPersistida(t *testing.T) {
	env := newTestEnv(t)
	env.renderer.err = &billing.RenderError{Err: context.DeadlineExceeded}
	draft := env.draftCompleto(t)

	resp, err := env.uc.CommitInvoice(context.Background(), 10, draft)

	var renderErr *billing.RenderError
	require.ErrorAs(t, err, &renderErr)
	assert.Zero(t, renderErr.StatusCode, "un fallo de transporte no tiene código HTTP")
	require.NotNil(t, resp)
	assert.Equal(t, entity.RenderStatusError, resp.RenderStatus)
	assert.Len(t, env.invoiceRepo.invoices, 1)
}

// ──────────────────────────────────────────────────────────────────────────────
// Consultas
// ──────────────────────────────────────────────────────────────────────────────

func TestGetInvoice_ConDetalle(t *testing.T) {
	env := newTestEnv(t)
	committed, err := env.uc.CommitInvoice(context.Background(), 10, env.draftCompleto(t))
	require.NoError(t, err)

	resp, err := env.uc.GetInvoice(context.Background(), committed.ID)
	require.NoError(t, err)
	assert.Equal(t, committed.ID, resp.ID)
	assert.Len(t, resp.Items, 3)
	assert.True(t, decimal.RequireFromString("217000.00").Equal(resp.Total))

	// Suma de subtotales = total de la cabecera.
	sum := decimal.Zero
	for _, it := range resp.Items {
		sum = sum.Add(it.Subtotal)
	}
	assert.True(t, sum.Equal(resp.Total))
}

// TestGetInvoice_LegibleTrasBorrarProducto: borrar un producto del catálogo
// no corrompe las líneas históricas que lo referencian; los snapshots de
// nombre, categoría y precio siguen legibles y el total no cambia.
func TestGetInvoice_LegibleTrasBorrarProducto(t *testing.T) {
	env := newTestEnv(t)
	committed, err := env.uc.CommitInvoice(context.Background(), 10, env.draftCompleto(t))
	require.NoError(t, err)

	require.NoError(t, env.productRepo.Delete(1))

	resp, err := env.uc.GetInvoice(context.Background(), committed.ID)
	require.NoError(t, err)
	require.Len(t, resp.Items, 3)

	laptop := resp.Items[0]
	assert.Equal(t, "Laptop HP", laptop.ProductName, "el nombre snapshot sobrevive al borrado")
	assert.Equal(t, "Cómputo", laptop.Category, "la categoría snapshot sobrevive al borrado")
	assert.True(t, decimal.RequireFromString("87000.00").Equal(laptop.UnitAmount),
		"el precio snapshot sobrevive al borrado")
	assert.True(t, decimal.RequireFromString("174000.00").Equal(laptop.Subtotal))
	assert.True(t, decimal.RequireFromString("217000.00").Equal(resp.Total),
		"el total histórico no cambia al borrar productos del catálogo")
}

func TestGetInvoice_NoExiste(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.uc.GetInvoice(context.Background(), 42)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetDocument_DevuelveBytesYNombre(t *testing.T) {
	env := newTestEnv(t)
	committed, err := env.uc.CommitInvoice(context.Background(), 10, env.draftCompleto(t))
	require.NoError(t, err)

	document, filename, err := env.uc.GetDocument(context.Background(), committed.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.7 fake"), document)
	assert.Equal(t, "factura_1.pdf", filename)
}

func TestGetDocument_SinDocumento(t *testing.T) {
	env := newTestEnv(t)
	env.renderer.err = &billing.RenderError{StatusCode: 503, Body: "mantenimiento"}
	committed, _ := env.uc.CommitInvoice(context.Background(), 10, env.draftCompleto(t))
	require.NotNil(t, committed)

	_, _, err := env.uc.GetDocument(context.Background(), committed.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound,
		"una factura sin PDF almacenado debe reportar no encontrado")
}
