package delivery

import (
	"context"
	"fmt"
	"time"

	"bancaflow/internal/core/apperror"
	"bancaflow/internal/core/id"
	"bancaflow/internal/core/tx"
	"bancaflow/internal/domain/catalog"
	"bancaflow/internal/domain/stock"
	"bancaflow/internal/extraction"
	"bancaflow/pkg/logger"
)

// BlobStore archives the original scanned document.
type BlobStore interface {
	Store(ctx context.Context, objectPath string, data []byte, contentType string) error
	SignedURL(ctx context.Context, objectPath string) (string, error)
}

// PayloadArchive keeps the raw extraction output for later auditing.
type PayloadArchive interface {
	Archive(ctx context.Context, documentID id.ID, kind string, payload []byte) error
}

// IngestResult summarizes one processed delivery note.
type IngestResult struct {
	DocumentID    id.ID     `json:"document_id"`
	OutletID      string    `json:"outlet_id"`
	ReferenceDate time.Time `json:"reference_date"`
	LinesTotal    int       `json:"lines_total"`
	Created       int       `json:"created"`
	Updated       int       `json:"updated"`
	Skipped       int       `json:"skipped"`
	FileURL       *string   `json:"file_url,omitempty"`
}

// Service ingests delivery notes end to end: extraction, reconciliation
// against the catalog and stock increments.
type Service struct {
	repo      Repository
	catalog   catalog.Repository
	matcher   *catalog.Matcher
	ledger    *stock.Service
	oracle    extraction.Oracle
	blobs     BlobStore
	archive   PayloadArchive
	txManager tx.Manager
}

// NewService creates a delivery ingestion service.
func NewService(
	repo Repository,
	catalogRepo catalog.Repository,
	matcher *catalog.Matcher,
	ledger *stock.Service,
	oracle extraction.Oracle,
	blobs BlobStore,
	archive PayloadArchive,
	txManager tx.Manager,
) *Service {
	return &Service{
		repo:      repo,
		catalog:   catalogRepo,
		matcher:   matcher,
		ledger:    ledger,
		oracle:    oracle,
		blobs:     blobs,
		archive:   archive,
		txManager: txManager,
	}
}

// Ingest processes one scanned delivery note for the owner. Each extracted
// line is matched against the catalog: matches add their quantity to stock,
// misses create a new catalog entry whose initial stock is the delivered
// quantity. A line that cannot be processed is skipped with a warning and
// never aborts the rest of the document.
func (s *Service) Ingest(ctx context.Context, ownerID id.ID, pdf []byte) (*IngestResult, error) {
	if len(pdf) == 0 {
		return nil, apperror.NewValidation("uploaded document is empty")
	}

	raw, err := s.oracle.Extract(ctx, extraction.KindDeliveryNote, pdf)
	if err != nil {
		return nil, err
	}

	payload, err := extraction.ParseDeliveryPayload(raw)
	if err != nil {
		return nil, err
	}
	refDate, err := payload.ReferenceDate()
	if err != nil {
		return nil, err
	}

	doc := NewDocument(ownerID, payload.Header.OutletID.Value, payload.Header.DeliveryNoteID.Value, refDate)
	if err := s.repo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create delivery document: %w", err)
	}

	if err := s.archive.Archive(ctx, doc.ID, string(extraction.KindDeliveryNote), raw); err != nil {
		logger.Warn(ctx, "extraction payload not archived", "document_id", doc.ID, "error", err)
	}

	result := &IngestResult{
		DocumentID:    doc.ID,
		OutletID:      doc.OutletID,
		ReferenceDate: doc.ReferenceDate,
		LinesTotal:    len(payload.Items) + payload.Dropped,
		Skipped:       payload.Dropped,
	}
	if payload.Dropped > 0 {
		logger.Warn(ctx, "delivery lines dropped during decode",
			"document_id", doc.ID, "dropped", payload.Dropped)
	}

	result.FileURL = s.storeOriginal(ctx, doc, pdf)

	snapshot, err := s.catalog.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog snapshot: %w", err)
	}

	for _, extracted := range payload.Items {
		item := extracted.LineItem()
		if item.Name == "" {
			logger.Warn(ctx, "skipping delivery line without a name", "document_id", doc.ID)
			result.Skipped++
			continue
		}

		created, err := s.reconcileLine(ctx, doc.ID, item, &snapshot)
		if err != nil {
			logger.Warn(ctx, "delivery line not reconciled",
				"document_id", doc.ID,
				"name", item.Name,
				"edition", item.EditionKey(),
				"error", err,
			)
			result.Skipped++
			continue
		}
		if created {
			result.Created++
		} else {
			result.Updated++
		}
	}

	logger.Info(ctx, "delivery note ingested",
		"document_id", doc.ID,
		"outlet_id", doc.OutletID,
		"created", result.Created,
		"updated", result.Updated,
		"skipped", result.Skipped,
	)

	return result, nil
}

// reconcileLine matches one line and applies its stock effect inside a
// transaction, so a new catalog entry and its line association land
// together. Newly created entries join the snapshot so later lines of the
// same document find them.
func (s *Service) reconcileLine(ctx context.Context, docID id.ID, item catalog.LineItem, snapshot *[]*catalog.Magazine) (bool, error) {
	match := s.matcher.FindMatch(item, *snapshot)

	createdNew := false
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if match.Found() {
			if err := s.ledger.ApplyDelivery(ctx, docID, match.Magazine.ID, item.Quantity); err != nil {
				return err
			}
			if catalog.IsWellFormedBarcode(item.Barcode) && !match.Magazine.HasBarcode() {
				s.ledger.BackfillBarcode(ctx, match.Magazine, item.Barcode)
			}
			return nil
		}

		qty := item.Quantity
		if qty < 0 {
			qty = 0
		}
		mag, created, err := s.ledger.EnsureEntry(ctx, item, qty)
		if err != nil {
			return err
		}
		if !created {
			// A concurrent writer owns the entry; the delivered quantity
			// still has to reach its stock.
			return s.ledger.ApplyDelivery(ctx, docID, mag.ID, item.Quantity)
		}

		// The entry was created with the delivered quantity as initial
		// stock, only the line association is missing.
		if err := s.ledger.RecordDeliveryLine(ctx, docID, mag.ID, qty); err != nil {
			return err
		}

		*snapshot = append(*snapshot, mag)
		createdNew = true
		return nil
	})

	return createdNew, err
}

// storeOriginal archives the PDF and records its signed URL. Best-effort.
func (s *Service) storeOriginal(ctx context.Context, doc *Document, pdf []byte) *string {
	objectPath := fmt.Sprintf("deliveries/%s.pdf", doc.ID)
	if err := s.blobs.Store(ctx, objectPath, pdf, "application/pdf"); err != nil {
		logger.Warn(ctx, "delivery pdf not archived", "document_id", doc.ID, "error", err)
		return nil
	}
	url, err := s.blobs.SignedURL(ctx, objectPath)
	if err != nil {
		logger.Warn(ctx, "delivery pdf url not signed", "document_id", doc.ID, "error", err)
		return nil
	}
	if err := s.repo.SetFileURL(ctx, doc.ID, url); err != nil {
		logger.Warn(ctx, "delivery file url not stored", "document_id", doc.ID, "error", err)
	}
	doc.FileURL = &url
	return &url
}

// Get returns one of the owner's delivery documents with its lines.
func (s *Service) Get(ctx context.Context, docID, ownerID id.ID) (*DocumentWithLines, error) {
	return s.repo.GetByOwner(ctx, docID, ownerID)
}

// List returns the owner's delivery documents, newest first.
func (s *Service) List(ctx context.Context, ownerID id.ID) ([]*Document, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}
