package extraction

import (
	"bytes"
	"compress/zlib"
	"io"
	"regexp"
	"time"

	"bancaflow/internal/core/apperror"
)

// The deadline label printed on every return call, in either the scanned
// DD/MM/YYYY form or already normalized to ISO.
var (
	deadlineBR  = regexp.MustCompile(`(?i)Data da chamada\s*[:\-]?\s*([0-9]{2}/[0-9]{2}/[0-9]{4})`)
	deadlineISO = regexp.MustCompile(`(?i)Data da chamada\s*[:\-]?\s*([0-9]{4}-[0-9]{2}-[0-9]{2})`)

	streamStart = []byte("stream")
	streamEnd   = []byte("endstream")
)

// ScanReturnDeadline pulls the return deadline out of a PDF without calling
// the extraction service. It scans the raw byte stream and every inflatable
// content stream for the deadline label. Used as the cheap pre-check that
// gates duplicate detection before any remote extraction happens.
func ScanReturnDeadline(pdf []byte) (time.Time, error) {
	if len(pdf) == 0 {
		return time.Time{}, apperror.NewValidation("uploaded document is empty")
	}

	if t, ok := findDeadline(pdf); ok {
		return t, nil
	}

	for _, chunk := range inflateStreams(pdf) {
		if t, ok := findDeadline(chunk); ok {
			return t, nil
		}
	}

	return time.Time{}, apperror.NewValidation("return deadline not found in document")
}

func findDeadline(text []byte) (time.Time, bool) {
	if m := deadlineISO.FindSubmatch(text); m != nil {
		if t, err := time.Parse("2006-01-02", string(m[1])); err == nil {
			return t, true
		}
	}
	if m := deadlineBR.FindSubmatch(text); m != nil {
		if t, err := time.Parse("02/01/2006", string(m[1])); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// inflateStreams walks the document's stream/endstream blocks and returns
// whatever zlib can decompress. Blocks using other filters are skipped.
func inflateStreams(pdf []byte) [][]byte {
	var out [][]byte
	rest := pdf
	for {
		start := bytes.Index(rest, streamStart)
		if start < 0 {
			break
		}
		rest = rest[start+len(streamStart):]

		end := bytes.Index(rest, streamEnd)
		if end < 0 {
			break
		}

		body := bytes.TrimLeft(rest[:end], "\r\n")
		rest = rest[end+len(streamEnd):]

		r, err := zlib.NewReader(bytes.NewReader(body))
		if err != nil {
			continue
		}
		// Partially corrupt streams still yield usable prefixes.
		inflated, _ := io.ReadAll(r)
		r.Close()
		if len(inflated) > 0 {
			out = append(out, inflated)
		}
	}
	return out
}
