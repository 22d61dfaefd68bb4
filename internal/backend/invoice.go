package backend

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
)

// InvoiceDownload is a raw PDF stream from the backend. The caller owns Body
// and must close it.
type InvoiceDownload struct {
	Body     io.ReadCloser
	Filename string
	Length   int64
}

// InvoicePreview is a base64-encoded PDF returned for in-page display.
type InvoicePreview struct {
	PDFBase64 string `json:"pdfBase64"`
}

// InvoiceBulkItem is one entry of a bulk invoice fetch.
type InvoiceBulkItem struct {
	PDFBase64 string `json:"pdfBase64"`
	Filename  string `json:"filename"`
}

// DownloadInvoice streams the PDF for one order. Unlike the other endpoints
// this one returns raw bytes, not an envelope; the filename comes from the
// Content-Disposition header when present.
func (c *Client) DownloadInvoice(ctx context.Context, orderID string) (*InvoiceDownload, error) {
	path := "/api/invoice/" + url.PathEscape(orderID) + "/download"
	resp, err := c.http.Get(ctx, c.url(path))
	if err != nil {
		return nil, fmt.Errorf("backend GET %s: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		// Error bodies still use the envelope.
		_, err := c.decodeEnvelope(ctx, resp)
		if err == nil {
			err = fmt.Errorf("invoice download: unexpected status %d", resp.StatusCode)
		}
		return nil, err
	}

	filename := fmt.Sprintf("invoice-%s.pdf", orderID)
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil && params["filename"] != "" {
			filename = params["filename"]
		}
	}

	return &InvoiceDownload{
		Body:     resp.Body,
		Filename: filename,
		Length:   resp.ContentLength,
	}, nil
}

// PreviewInvoice fetches one order's invoice as base64 for inline rendering.
func (c *Client) PreviewInvoice(ctx context.Context, orderID string) (InvoicePreview, error) {
	var out InvoicePreview
	err := c.getJSON(ctx, "/api/invoice/"+url.PathEscape(orderID)+"/preview", &out)
	return out, err
}

// BulkInvoices fetches invoices for several orders in one round trip.
func (c *Client) BulkInvoices(ctx context.Context, orderIDs []string) ([]InvoiceBulkItem, error) {
	var out []InvoiceBulkItem
	err := c.sendJSON(ctx, http.MethodPost, "/api/invoice/bulk", map[string][]string{"orderIds": orderIDs}, &out)
	return out, err
}
