// Package invoice turns the backend's invoice responses into deliverable
// documents: raw streams for downloads and decoded PDF bytes for previews.
package invoice

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"

	"github.com/BadarHossain1/harris-vale-storefront/internal/backend"
	apperrors "github.com/BadarHossain1/harris-vale-storefront/pkg/errors"
)

var pdfMagic = []byte("%PDF")

// Document is a decoded invoice PDF.
type Document struct {
	Filename string
	Data     []byte
}

// Service decodes and sanity-checks invoice payloads from the backend.
type Service struct {
	backend *backend.Client
}

// NewService wraps a backend client.
func NewService(backend *backend.Client) *Service {
	return &Service{backend: backend}
}

// Download returns the raw PDF stream for one order. The caller must close
// the returned body.
func (s *Service) Download(ctx context.Context, orderID string) (*backend.InvoiceDownload, error) {
	return s.backend.DownloadInvoice(ctx, orderID)
}

// Preview fetches and decodes one order's invoice for inline rendering.
func (s *Service) Preview(ctx context.Context, orderID string) (Document, error) {
	preview, err := s.backend.PreviewInvoice(ctx, orderID)
	if err != nil {
		return Document{}, err
	}
	data, err := decodePDF(preview.PDFBase64)
	if err != nil {
		return Document{}, err
	}
	return Document{
		Filename: fmt.Sprintf("invoice-%s.pdf", orderID),
		Data:     data,
	}, nil
}

// Bulk fetches and decodes invoices for several orders. A single undecodable
// entry fails the whole batch so a partial archive is never produced.
func (s *Service) Bulk(ctx context.Context, orderIDs []string) ([]Document, error) {
	if len(orderIDs) == 0 {
		return nil, apperrors.InvalidInput("no order IDs given")
	}

	items, err := s.backend.BulkInvoices(ctx, orderIDs)
	if err != nil {
		return nil, err
	}

	docs := make([]Document, 0, len(items))
	for _, item := range items {
		data, err := decodePDF(item.PDFBase64)
		if err != nil {
			return nil, fmt.Errorf("invoice %q: %w", item.Filename, err)
		}
		name := item.Filename
		if name == "" {
			name = fmt.Sprintf("invoice-%d.pdf", len(docs)+1)
		}
		docs = append(docs, Document{Filename: name, Data: data})
	}
	return docs, nil
}

// decodePDF decodes a base64 payload and checks the PDF magic bytes so a
// backend error page never gets served as a document.
func decodePDF(encoded string) ([]byte, error) {
	if encoded == "" {
		return nil, apperrors.InvalidInput("empty invoice payload")
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, apperrors.InvalidInput("invoice payload is not valid base64")
	}
	if !bytes.HasPrefix(data, pdfMagic) {
		return nil, apperrors.InvalidInput("invoice payload is not a PDF")
	}
	return data, nil
}
