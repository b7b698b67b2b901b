package renderer_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignaciocastillo/erp-api/internal/application/billing"
	"github.com/ignaciocastillo/erp-api/internal/infrastructure/renderer"
)

// ──────────────────────────────────────────────────────────────────────────────
// Tests del cliente HTTP de render contra un servidor httptest.
// ──────────────────────────────────────────────────────────────────────────────

func renderRequestTest() *billing.RenderRequest {
	return &billing.RenderRequest{
		From:     "Mi Empresa S.A.",
		To:       "Ferretería El Tornillo\ncompras@eltornillo.cr",
		Number:   42,
		Currency: "CRC",
		Items: []billing.RenderItem{
			{Name: "Laptop HP", Quantity: 2, UnitCost: decimal.RequireFromString("87000.00")},
		},
	}
}

func TestHTTPRenderer_Exito(t *testing.T) {
	var gotAuth, gotContentType string
	var gotPayload map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("%PDF-1.7 contenido"))
	}))
	defer srv.Close()

	client := renderer.NewHTTPRenderer(srv.URL, "clave-secreta", 5*time.Second)
	document, err := client.Render(context.Background(), renderRequestTest())

	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.7 contenido"), document)
	assert.Equal(t, "Bearer clave-secreta", gotAuth)
	assert.Equal(t, "application/json", gotContentType)

	// El payload usa el contrato JSON del servicio (snake_case).
	assert.Equal(t, "Mi Empresa S.A.", gotPayload["from"])
	assert.Equal(t, float64(42), gotPayload["number"])
	assert.Equal(t, "CRC", gotPayload["currency"])
	items, ok := gotPayload["items"].([]any)
	require.True(t, ok)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	assert.Equal(t, "Laptop HP", item["name"])
	assert.Contains(t, item, "unit_cost")
}

func TestHTTPRenderer_EstadoNoOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("upstream down"))
	}))
	defer srv.Close()

	client := renderer.NewHTTPRenderer(srv.URL, "clave", 5*time.Second)
	document, err := client.Render(context.Background(), renderRequestTest())

	assert.Nil(t, document)
	var renderErr *billing.RenderError
	require.ErrorAs(t, err, &renderErr, "un estado no-200 debe reportarse como RenderError")
	assert.Equal(t, http.StatusInternalServerError, renderErr.StatusCode)
	assert.Equal(t, "upstream down", renderErr.Body)
}

func TestHTTPRenderer_CredencialRechazada(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid api key"}`))
	}))
	defer srv.Close()

	client := renderer.NewHTTPRenderer(srv.URL, "clave-mala", 5*time.Second)
	_, err := client.Render(context.Background(), renderRequestTest())

	var renderErr *billing.RenderError
	require.ErrorAs(t, err, &renderErr)
	assert.Equal(t, http.StatusUnauthorized, renderErr.StatusCode)
	assert.Contains(t, renderErr.Body, "invalid api key")
}

func TestHTTPRenderer_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := renderer.NewHTTPRenderer(srv.URL, "clave", 50*time.Millisecond)
	_, err := client.Render(context.Background(), renderRequestTest())

	var renderErr *billing.RenderError
	require.ErrorAs(t, err, &renderErr, "un timeout debe reportarse como RenderError")
	assert.Zero(t, renderErr.StatusCode, "un fallo de transporte no tiene código HTTP")
	assert.Error(t, renderErr.Err)
}

func TestHTTPRenderer_ContextoCancelado(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := renderer.NewHTTPRenderer(srv.URL, "clave", 5*time.Second)
	_, err := client.Render(ctx, renderRequestTest())

	var renderErr *billing.RenderError
	require.ErrorAs(t, err, &renderErr)
	assert.ErrorIs(t, renderErr.Err, context.Canceled)
}

func TestHTTPRenderer_ServidorInalcanzable(t *testing.T) {
	// Puerto cerrado: el connect falla de inmediato.
	client := renderer.NewHTTPRenderer("http://127.0.0.1:1", "clave", time.Second)
	_, err := client.Render(context.Background(), renderRequestTest())

	var renderErr *billing.RenderError
	require.ErrorAs(t, err, &renderErr)
	assert.Zero(t, renderErr.StatusCode)
}
