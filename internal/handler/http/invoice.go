package http

import (
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/BadarHossain1/harris-vale-storefront/internal/invoice"
	"github.com/BadarHossain1/harris-vale-storefront/pkg/httputil"
	"github.com/BadarHossain1/harris-vale-storefront/pkg/validator"
)

// InvoiceHandler serves invoice downloads, previews, and bulk fetches.
type InvoiceHandler struct {
	service *invoice.Service
	logger  *slog.Logger
}

// NewInvoiceHandler creates an invoice HTTP handler.
func NewInvoiceHandler(service *invoice.Service, logger *slog.Logger) *InvoiceHandler {
	return &InvoiceHandler{service: service, logger: logger}
}

// BulkRequest is the JSON request body for a bulk invoice fetch.
type BulkRequest struct {
	OrderIDs []string `json:"orderIds" validate:"required,min=1,dive,required"`
}

// bulkItem is one decoded invoice re-encoded for the JSON response.
type bulkItem struct {
	Filename  string `json:"filename"`
	PDFBase64 string `json:"pdfBase64"`
}

// Download handles GET /api/storefront/invoices/{orderId}/download and
// streams the PDF as an attachment.
func (h *InvoiceHandler) Download(w http.ResponseWriter, r *http.Request) {
	dl, err := h.service.Download(r.Context(), chi.URLParam(r, "orderId"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	defer func() { _ = dl.Body.Close() }()

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", dl.Filename))
	if dl.Length > 0 {
		w.Header().Set("Content-Length", fmt.Sprintf("%d", dl.Length))
	}
	if _, err := io.Copy(w, dl.Body); err != nil {
		h.logger.WarnContext(r.Context(), "invoice stream interrupted", slog.String("error", err.Error()))
	}
}

// Preview handles GET /api/storefront/invoices/{orderId}/preview and serves
// the decoded PDF inline.
func (h *InvoiceHandler) Preview(w http.ResponseWriter, r *http.Request) {
	doc, err := h.service.Preview(r.Context(), chi.URLParam(r, "orderId"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", doc.Filename))
	_, _ = w.Write(doc.Data)
}

// Bulk handles POST /api/storefront/invoices/bulk. Every document is decoded
// and sanity-checked before any of them is returned.
func (h *InvoiceHandler) Bulk(w http.ResponseWriter, r *http.Request) {
	var req BulkRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	docs, err := h.service.Bulk(r.Context(), req.OrderIDs)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	items := make([]bulkItem, len(docs))
	for i, doc := range docs {
		items[i] = bulkItem{
			Filename:  doc.Filename,
			PDFBase64: base64.StdEncoding.EncodeToString(doc.Data),
		}
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: items})
}
