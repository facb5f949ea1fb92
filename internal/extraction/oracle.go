// Package extraction turns scanned PDF documents into structured payloads.
// The heavy lifting is delegated to an external extraction service; this
// package owns the payload schemas, their validation, and a cheap local
// scanner used before the expensive remote call.
package extraction

import "context"

// DocumentKind selects the extraction schema for a document.
type DocumentKind string

const (
	// KindDeliveryNote is a distributor delivery note ("nota de entrega").
	KindDeliveryNote DocumentKind = "delivery_note"

	// KindReturnCall is a distributor return call ("chamada de encalhe").
	KindReturnCall DocumentKind = "return_call"
)

// Oracle extracts a structured JSON payload from a scanned PDF. The raw
// bytes it returns are parsed and validated by this package; implementations
// only guarantee transport.
type Oracle interface {
	Extract(ctx context.Context, kind DocumentKind, pdf []byte) ([]byte, error)
}
