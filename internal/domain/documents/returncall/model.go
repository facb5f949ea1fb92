// Package returncall handles distributor return calls: the documents that
// tell the newsstand what has to go back, by when.
package returncall

import (
	"time"

	"bancaflow/internal/core/id"
)

// Status of a return call.
type Status string

const (
	// StatusOpen means the physical return is still pending.
	StatusOpen Status = "open"

	// StatusClosed means the operator confirmed the return was handed over.
	StatusClosed Status = "closed"
)

// Document is one ingested return call.
type Document struct {
	ID        id.ID     `json:"id" db:"id"`
	OwnerID   id.ID     `json:"owner_id" db:"owner_id"`
	OutletID  string    `json:"outlet_id" db:"outlet_id"`
	Deadline  time.Time `json:"deadline" db:"deadline"`
	Status    Status    `json:"status" db:"status"`
	FileURL   *string   `json:"file_url,omitempty" db:"file_url"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// NewDocument creates an open return call for an owner.
func NewDocument(ownerID id.ID, outletID string, deadline time.Time) *Document {
	return &Document{
		ID:        id.New(),
		OwnerID:   ownerID,
		OutletID:  outletID,
		Deadline:  deadline,
		Status:    StatusOpen,
		CreatedAt: time.Now().UTC(),
	}
}

// IsOpen reports whether the return is still pending.
func (d *Document) IsOpen() bool {
	return d.Status == StatusOpen
}

// Line associates one magazine with a return call. QuantityToReturn starts
// equal to QuantityReceived and is consumed by sales recorded before the
// physical return happens.
type Line struct {
	ID               id.ID      `json:"id" db:"id"`
	DocumentID       id.ID      `json:"document_id" db:"document_id"`
	MagazineID       id.ID      `json:"magazine_id" db:"magazine_id"`
	QuantityReceived int        `json:"quantity_received" db:"quantity_received"`
	QuantityToReturn int        `json:"quantity_to_return" db:"quantity_to_return"`
	ReceivedDate     *time.Time `json:"received_date,omitempty" db:"received_date"`
}

// DocumentWithLines is a return call together with its lines, joined
// against the catalog for display.
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
