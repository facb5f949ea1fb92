package catalog

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"bancaflow/internal/core/apperror"
	"bancaflow/internal/core/id"
	"bancaflow/pkg/logger"
)

// ImageStore is the blob-store surface the catalog needs for cover images.
type ImageStore interface {
	Upload(ctx context.Context, objectPath string, data []byte, contentType string) error
	PublicURL(objectPath string) string
}

// SearchResult is a fuzzy search hit with its similarity score.
type SearchResult struct {
	Magazine *Magazine `json:"magazine"`
	Score    int       `json:"score"`
}

// Service provides business logic for the magazine catalog.
type Service struct {
	repo   Repository
	scorer Scorer
	images ImageStore
}

// NewService creates a new catalog service.
func NewService(repo Repository, scorer Scorer, images ImageStore) *Service {
	if scorer == nil {
		scorer = TokenSortScorer{}
	}
	return &Service{repo: repo, scorer: scorer, images: images}
}

// Snapshot returns the full catalog listing, read committed at call time.
func (s *Service) Snapshot(ctx context.Context) ([]*Magazine, error) {
	mags, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperror.NewStorage("list magazines", err)
	}
	return mags, nil
}

// GetByID retrieves a magazine by ID.
func (s *Service) GetByID(ctx context.Context, magazineID id.ID) (*Magazine, error) {
	mag, err := s.repo.GetByID(ctx, magazineID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("magazine", magazineID.String())
		}
		return nil, err
	}
	return mag, nil
}

// FindByBarcode retrieves a magazine by exact, trimmed barcode.
func (s *Service) FindByBarcode(ctx context.Context, barcode string) (*Magazine, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, apperror.NewValidation("barcode is required").WithDetail("field", "barcode")
	}
	mag, err := s.repo.FindByBarcode(ctx, barcode)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("magazine", barcode)
		}
		return nil, err
	}
	return mag, nil
}

// SearchByName scores every catalog entry's name and nickname against the
// query and returns entries at or above SearchThreshold, best first.
func (s *Service) SearchByName(ctx context.Context, query string) ([]SearchResult, error) {
	query = NormalizeName(query)
	if query == "" {
		return nil, apperror.NewValidation("search query is required").WithDetail("field", "q")
	}

	snapshot, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	var results []SearchResult
	for _, mag := range snapshot {
		score := s.scorer.Score(query, NormalizeName(mag.Name))
		if mag.Nickname != nil {
			if nickScore := s.scorer.Score(query, NormalizeName(*mag.Nickname)); nickScore > score {
				score = nickScore
			}
		}
		if score >= SearchThreshold {
			results = append(results, SearchResult{Magazine: mag, Score: score})
		}
	}

	// Best match first; the snapshot is name-ordered so ties stay stable.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	return results, nil
}

// FindByEdition returns every magazine with the given edition number.
func (s *Service) FindByEdition(ctx context.Context, edition int) ([]*Magazine, error) {
	snapshot, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	var results []*Magazine
	for _, mag := range snapshot {
		if mag.EditionNumber == edition {
			results = append(results, mag)
		}
	}
	return results, nil
}

// RegisterBarcode back-fills a barcode on a magazine that has none.
// Barcodes are written once; an already-set barcode is never overwritten.
func (s *Service) RegisterBarcode(ctx context.Context, magazineID id.ID, barcode string) (*Magazine, error) {
	mag, err := s.GetByID(ctx, magazineID)
	if err != nil {
		return nil, err
	}

	if mag.HasBarcode() {
		return nil, apperror.NewConflict("magazine already has a barcode").
			WithDetail("magazine_id", magazineID.String()).
			WithDetail("barcode", *mag.Barcode)
	}

	if !mag.SetBarcode(barcode) {
		return nil, apperror.NewValidation("barcode must be 13 digits").
			WithDetail("field", "barcode").
			WithDetail("value", barcode)
	}

	if err := s.repo.Update(ctx, mag); err != nil {
		return nil, err
	}

	logger.Info(ctx, "barcode registered",
		"magazine_id", magazineID,
		"barcode", *mag.Barcode,
	)

	return mag, nil
}

// AttachCoverImage uploads a cover image to the blob store and writes the
// public URL onto the magazine identified by barcode.
func (s *Service) AttachCoverImage(ctx context.Context, barcode, filename, contentType string, data []byte) (*Magazine, error) {
	mag, err := s.FindByBarcode(ctx, barcode)
	if err != nil {
		return nil, err
	}

	ext := strings.TrimPrefix(path.Ext(filename), ".")
	if ext == "" {
		ext = "jpg"
	}
	if contentType == "" {
		contentType = "image/jpeg"
	}

	objectPath := fmt.Sprintf("covers/img_%s.%s", barcode, ext)
	if err := s.images.Upload(ctx, objectPath, data, contentType); err != nil {
		return nil, apperror.NewStorage("upload cover image", err)
	}

	url := s.images.PublicURL(objectPath)
	mag.ImageURL = &url
	if err := s.repo.Update(ctx, mag); err != nil {
		return nil, err
	}

	logger.Info(ctx, "cover image attached",
		"magazine_id", mag.ID,
		"path", objectPath,
	)

	return mag, nil
}
