package apiclient

import (
	"context"
	"mime"
	"net/url"
	"strings"
)

// DefaultInvoiceFilename is used when the download carries no usable
// Content-Disposition header.
const DefaultInvoiceFilename = "factura.pdf"

// MyOrders lists the current user's orders.
func (c *Client) MyOrders(ctx context.Context) ([]Order, error) {
	r, err := c.Request(ctx, "/orders", RequestOptions{})
	if err != nil {
		return nil, err
	}
	return decodeList[Order](r)
}

// Order fetches one of the current user's orders.
func (c *Client) Order(ctx context.Context, id string) (Order, error) {
	r, err := c.Request(ctx, "/orders/"+url.PathEscape(id), RequestOptions{})
	if err != nil {
		return Order{}, err
	}
	return decodeOne[Order](r)
}

// DownloadInvoice fetches the PDF for a paid order.
func (c *Client) DownloadInvoice(ctx context.Context, orderID string) (Invoice, error) {
	r, err := c.Request(ctx, "/orders/"+url.PathEscape(orderID)+"/download", RequestOptions{})
	if err != nil {
		return Invoice{}, err
	}

	return Invoice{
		Filename:    filenameFromDisposition(r.Header.Get("Content-Disposition")),
		ContentType: r.Header.Get("Content-Type"),
		Data:        r.Body,
	}, nil
}

// filenameFromDisposition prefers the RFC 5987 filename* parameter, then
// filename, then DefaultInvoiceFilename.
func filenameFromDisposition(header string) string {
	if header == "" {
		return DefaultInvoiceFilename
	}

	// mime decodes filename* into filename.
	if _, params, err := mime.ParseMediaType(header); err == nil {
		if name := params["filename"]; name != "" {
			return sanitizeFilename(name)
		}
	}

	// Lenient fallback for unquoted names with spaces and similar.
	lower := strings.ToLower(header)
	if i := strings.Index(lower, "filename="); i >= 0 {
		name := header[i+len("filename="):]
		if j := strings.Index(name, ";"); j >= 0 {
			name = name[:j]
		}
		name = strings.Trim(strings.TrimSpace(name), `"`)
		if name != "" {
			return sanitizeFilename(name)
		}
	}

	return DefaultInvoiceFilename
}

func sanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if name == "" || name == "." || name == ".." {
		return DefaultInvoiceFilename
	}
	return name
}
