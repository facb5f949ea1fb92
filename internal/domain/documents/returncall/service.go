package returncall

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

// IngestResult summarizes one processed return call.
type IngestResult struct {
	DocumentID    id.ID     `json:"document_id"`
	Deadline      time.Time `json:"deadline"`
	LinesTotal    int       `json:"lines_total"`
	LegacyCreated int       `json:"legacy_created"`
	Associated    int       `json:"associated"`
	Skipped       int       `json:"skipped"`
	FileURL       *string   `json:"file_url,omitempty"`
}

// Service ingests return calls and manages their open/closed lifecycle.
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

// NewService creates a return call service.
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

// Ingest processes one scanned return call for the owner.
//
// The deadline is first read locally from the PDF so duplicates are caught
// before the extraction service is paid for. A deadline the owner already
// registered rejects the upload outright. Matched lines record what has to
// go back without touching stock; unmatched lines create legacy catalog
// entries with zero stock so the obligation has something to hang off.
func (s *Service) Ingest(ctx context.Context, ownerID id.ID, pdf []byte) (*IngestResult, error) {
	if len(pdf) == 0 {
		return nil, apperror.NewValidation("uploaded document is empty")
	}

	localDeadline, err := extraction.ScanReturnDeadline(pdf)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByDeadline(ctx, ownerID, localDeadline)
	if err != nil {
		return nil, fmt.Errorf("check duplicate return call: %w", err)
	}
	if exists {
		return nil, apperror.NewDuplicateDocument(ownerID.String(), localDeadline.Format("2006-01-02"))
	}

	raw, err := s.oracle.Extract(ctx, extraction.KindReturnCall, pdf)
	if err != nil {
		return nil, err
	}

	payload, err := extraction.ParseReturnPayload(raw)
	if err != nil {
		return nil, err
	}
	deadline, err := payload.Deadline()
	if err != nil {
		return nil, err
	}

	doc := NewDocument(ownerID, payload.Header.OutletID.Value, deadline)
	if err := s.repo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create return call: %w", err)
	}

	if err := s.archive.Archive(ctx, doc.ID, string(extraction.KindReturnCall), raw); err != nil {
		logger.Warn(ctx, "extraction payload not archived", "document_id", doc.ID, "error", err)
	}

	result := &IngestResult{
		DocumentID: doc.ID,
		Deadline:   doc.Deadline,
		LinesTotal: len(payload.Items) + payload.Dropped,
		Skipped:    payload.Dropped,
	}
	if payload.Dropped > 0 {
		logger.Warn(ctx, "return lines dropped during decode",
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
			logger.Warn(ctx, "skipping return line without a name", "document_id", doc.ID)
			result.Skipped++
			continue
		}

		createdLegacy, err := s.reconcileLine(ctx, doc.ID, item, extracted.ReceivedAt(), &snapshot)
		if err != nil {
			logger.Warn(ctx, "return line not reconciled",
				"document_id", doc.ID,
				"name", item.Name,
				"edition", item.EditionKey(),
				"error", err,
			)
			result.Skipped++
			continue
		}
		if createdLegacy {
			result.LegacyCreated++
		}
		result.Associated++
	}

	logger.Info(ctx, "return call ingested",
		"document_id", doc.ID,
		"deadline", doc.Deadline.Format("2006-01-02"),
		"legacy_created", result.LegacyCreated,
		"associated", result.Associated,
		"skipped", result.Skipped,
	)

	return result, nil
}

// reconcileLine resolves the line's catalog identity and records the return
// obligation. Legacy entries are created with zero stock; the catalog never
// gains stock from a return call.
func (s *Service) reconcileLine(ctx context.Context, docID id.ID, item catalog.LineItem, receivedAt *time.Time, snapshot *[]*catalog.Magazine) (bool, error) {
	match := s.matcher.FindMatch(item, *snapshot)

	createdLegacy := false
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		magID := id.Nil()
		if match.Found() {
			magID = match.Magazine.ID
			if catalog.IsWellFormedBarcode(item.Barcode) && !match.Magazine.HasBarcode() {
				s.ledger.BackfillBarcode(ctx, match.Magazine, item.Barcode)
			}
		} else {
			mag, created, err := s.ledger.EnsureEntry(ctx, item, 0)
			if err != nil {
				return err
			}
			magID = mag.ID
			if created {
				*snapshot = append(*snapshot, mag)
				createdLegacy = true
			}
		}

		return s.ledger.ApplyReturnIntake(ctx, docID, magID, item.Quantity, receivedAt)
	})

	return createdLegacy, err
}

// storeOriginal archives the PDF and records its signed URL. Best-effort.
func (s *Service) storeOriginal(ctx context.Context, doc *Document, pdf []byte) *string {
	objectPath := fmt.Sprintf("returns/%s.pdf", doc.ID)
	if err := s.blobs.Store(ctx, objectPath, pdf, "application/pdf"); err != nil {
		logger.Warn(ctx, "return pdf not archived", "document_id", doc.ID, "error", err)
		return nil
	}
	url, err := s.blobs.SignedURL(ctx, objectPath)
	if err != nil {
		logger.Warn(ctx, "return pdf url not signed", "document_id", doc.ID, "error", err)
		return nil
	}
	if err := s.repo.SetFileURL(ctx, doc.ID, url); err != nil {
		logger.Warn(ctx, "return file url not stored", "document_id", doc.ID, "error", err)
	}
	doc.FileURL = &url
	return &url
}

// Confirm marks the owner's return call as handed over. Confirming an
// already closed call is a no-op for its owner; a call owned by someone
// else is indistinguishable from a missing one.
func (s *Service) Confirm(ctx context.Context, docID, ownerID id.ID) (*Document, error) {
	doc, err := s.repo.GetByOwner(ctx, docID, ownerID)
	if err != nil {
		return nil, err
	}

	if !doc.IsOpen() {
		return &doc.Document, nil
	}

	if err := s.repo.UpdateStatus(ctx, docID, ownerID, StatusClosed); err != nil {
		return nil, err
	}
	doc.Status = StatusClosed

	logger.Info(ctx, "return call confirmed", "document_id", docID)
	return &doc.Document, nil
}

// Get returns one of the owner's return calls with its lines.
func (s *Service) Get(ctx context.Context, docID, ownerID id.ID) (*DocumentWithLines, error) {
	return s.repo.GetByOwner(ctx, docID, ownerID)
}

// List returns the owner's return calls, newest deadline first.
func (s *Service) List(ctx context.Context, ownerID id.ID) ([]*Document, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}
