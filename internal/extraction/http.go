package extraction

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"bancaflow/internal/core/apperror"
	"bancaflow/pkg/logger"
)

const defaultTimeout = 90 * time.Second

// HTTPOracle calls a remote extraction service over HTTP. The service
// receives the raw PDF and answers with the structured JSON payload for the
// requested document kind.
type HTTPOracle struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPOracle creates an oracle client for the given service endpoint.
func NewHTTPOracle(baseURL, apiKey string) *HTTPOracle {
	return &HTTPOracle{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: defaultTimeout},
	}
}

// Extract posts the PDF and returns the service's raw JSON answer. Transport
// failures and non-2xx answers surface as extraction failures.
func (o *HTTPOracle) Extract(ctx context.Context, kind DocumentKind, pdf []byte) ([]byte, error) {
	url := fmt.Sprintf("%s/v1/extract/%s", o.baseURL, kind)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(pdf))
	if err != nil {
		return nil, apperror.NewExtractionFailed(err)
	}
	req.Header.Set("Content-Type", "application/pdf")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	started := time.Now()
	resp, err := o.client.Do(req)
	if err != nil {
		return nil, apperror.NewExtractionFailed(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperror.NewExtractionFailed(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.Warn(ctx, "extraction service returned an error",
			"kind", kind,
			"status", resp.StatusCode,
			"elapsed", time.Since(started),
		)
		return nil, apperror.NewExtractionFailed(
			fmt.Errorf("extraction service answered %d", resp.StatusCode))
	}

	logger.Debug(ctx, "document extracted",
		"kind", kind,
		"pdf_bytes", len(pdf),
		"elapsed", time.Since(started),
	)

	return body, nil
}
