// Package renderer implementa el puerto billing.InvoiceRenderer.
//
// HTTPRenderer habla con el servicio externo de generación de facturas
// (contrato JSON con bearer token, respuesta 200 = bytes del PDF).
// MarotoRenderer genera el documento localmente y se usa cuando no hay
// API key configurada (entornos de desarrollo).
package renderer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ignaciocastillo/erp-api/internal/application/billing"
)

var _ billing.InvoiceRenderer = (*HTTPRenderer)(nil)

// maxErrorBody limita cuánto del cuerpo de una respuesta de error se conserva
// para el detalle del RenderError.
const maxErrorBody = 4 << 10

// HTTPRenderer cliente del servicio externo de render.
// Endpoint y credencial vienen de configuración, nunca del código.
type HTTPRenderer struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPRenderer construye el cliente. Si timeout es cero se usan 30 s:
// el servicio puede tardar varios segundos en componer el PDF, pero un
// timeout explícito evita que un commit quede colgado en el render.
func NewHTTPRenderer(endpoint, apiKey string, timeout time.Duration) *HTTPRenderer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPRenderer{
		endpoint:   endpoint,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Render envía la factura al servicio y devuelve los bytes del PDF.
// Cualquier fallo (transporte, timeout, estado no-200) retorna *RenderError;
// el caller ya hizo el commit local y NO debe revertirlo por esto.
func (r *HTTPRenderer) Render(ctx context.Context, req *billing.RenderRequest) ([]byte, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, &billing.RenderError{Err: fmt.Errorf("serializar payload: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, &billing.RenderError{Err: fmt.Errorf("construir request: %w", err)}
	}
	httpReq.Header.Set("Authorization", "Bearer "+r.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(httpReq)
	if err != nil {
		return nil, &billing.RenderError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &billing.RenderError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	document, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &billing.RenderError{Err: fmt.Errorf("leer documento: %w", err)}
	}
	return document, nil
}
