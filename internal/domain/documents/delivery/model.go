// Package delivery reconciles distributor delivery notes against the
// catalog and applies the resulting stock increments.
package delivery

import (
	"time"

	"bancaflow/internal/core/id"
)

// Document is one ingested delivery note.
type Document struct {
	ID             id.ID     `json:"id" db:"id"`
	OwnerID        id.ID     `json:"owner_id" db:"owner_id"`
	OutletID       string    `json:"outlet_id" db:"outlet_id"`
	DocumentNumber string    `json:"document_number" db:"document_number"`
	ReferenceDate  time.Time `json:"reference_date" db:"reference_date"`
	FileURL        *string   `json:"file_url,omitempty" db:"file_url"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// NewDocument creates a delivery document for an owner.
func NewDocument(ownerID id.ID, outletID, documentNumber string, referenceDate time.Time) *Document {
	return &Document{
		ID:             id.New(),
		OwnerID:        ownerID,
		OutletID:       outletID,
		DocumentNumber: documentNumber,
		ReferenceDate:  referenceDate,
		CreatedAt:      time.Now().UTC(),
	}
}

// Line associates a delivered quantity of one magazine with a document.
type Line struct {
	ID         id.ID `json:"id" db:"id"`
	DocumentID id.ID `json:"document_id" db:"document_id"`
	MagazineID id.ID `json:"magazine_id" db:"magazine_id"`
	Quantity   int   `json:"quantity" db:"quantity"`
}

// DocumentWithLines is a document together with its reconciled lines,
// joined against the catalog for display.
type DocumentWithLines struct {
	Document
	Lines []LineDetail `json:"lines"`
}

// LineDetail is a line enriched with the matched magazine's identity.
type LineDetail struct {
	Line
	MagazineName  string `json:"magazine_name" db:"magazine_name"`
	EditionNumber int    `json:"edition_number" db:"edition_number"`
}
