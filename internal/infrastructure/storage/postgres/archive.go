package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"

	"bancaflow/internal/core/id"
)

// CompressionAlgo specifies the compression algorithm used.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// PayloadRecord is one archived extraction payload, kept for auditing
// what the extraction service actually returned for a document.
type PayloadRecord struct {
	ID              id.ID           `db:"id"`
	DocumentID      id.ID           `db:"document_id"`
	DocumentKind    string          `db:"document_kind"`
	Payload         []byte          `db:"payload"`
	CompressionAlgo CompressionAlgo `db:"compression_algo"`
	CreatedAt       time.Time       `db:"created_at"`
}

// PayloadArchive stores raw extraction payloads, zstd-compressing the
// large ones.
type PayloadArchive struct {
	txm               *TxManager
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int
}

// NewPayloadArchive creates a new payload archive.
func NewPayloadArchive(txm *TxManager) (*PayloadArchive, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &PayloadArchive{
		txm:               txm,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: 4 * 1024,
	}, nil
}

// Archive records the raw extraction payload for a document.
func (a *PayloadArchive) Archive(ctx context.Context, documentID id.ID, kind string, payload []byte) error {
	rec := PayloadRecord{
		ID:              id.New(),
		DocumentID:      documentID,
		DocumentKind:    kind,
		Payload:         payload,
		CompressionAlgo: CompressionNone,
		CreatedAt:       time.Now().UTC(),
	}

	if len(payload) > a.compressThreshold {
		rec.Payload = a.encoder.EncodeAll(payload, nil)
		rec.CompressionAlgo = CompressionZstd
	}

	sql := `
		INSERT INTO document_payloads (
			id, document_id, document_kind, payload, compression_algo, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`

	querier := a.txm.GetQuerier(ctx)
	_, err := querier.Exec(ctx, sql,
		rec.ID, rec.DocumentID, rec.DocumentKind,
		rec.Payload, rec.CompressionAlgo, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("archive payload: %w", err)
	}

	return nil
}

// Fetch returns the decompressed payload archived for a document, or nil
// when none was recorded.
func (a *PayloadArchive) Fetch(ctx context.Context, documentID id.ID) ([]byte, error) {
	sql := `
		SELECT payload, compression_algo
		FROM document_payloads
		WHERE document_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	var payload []byte
	var algo CompressionAlgo

	querier := a.txm.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, sql, documentID).Scan(&payload, &algo); err != nil {
		return nil, fmt.Errorf("fetch payload: %w", err)
	}

	if algo == CompressionZstd {
		decompressed, err := a.decoder.DecodeAll(payload, nil)
		if err != nil {
			return nil, fmt.Errorf("decompress payload: %w", err)
		}
		return decompressed, nil
	}

	return payload, nil
}
